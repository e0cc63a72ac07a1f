//go:build !ios && !android && (amd64 || arm64)

// Package platform knows how shared libraries are named and where they
// live on each operating system ffsnap supports.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// LibraryPathEnv names the environment variable holding extra directories
// to search for FFmpeg libraries, in filepath.ListSeparator form.
const LibraryPathEnv = "FFSNAP_LIBRARY_PATH"

// FormatLibraryName returns the platform-specific library filename.
// If version is 0, returns the unversioned library name.
//
//   - Linux:   FormatLibraryName("avcodec", 60) -> "libavcodec.so.60"
//   - macOS:   FormatLibraryName("avcodec", 60) -> "libavcodec.60.dylib"
//   - Windows: FormatLibraryName("avcodec", 60) -> "avcodec-60.dll"
func FormatLibraryName(name string, version int) string {
	return formatLibraryName(runtime.GOOS, name, version)
}

func formatLibraryName(goos, name string, version int) string {
	switch goos {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("lib%s.%d.dylib", name, version)
		}
		return "lib" + name + ".dylib"
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s-%d.dll", name, version)
		}
		return name + ".dll"
	default:
		if version > 0 {
			return fmt.Sprintf("lib%s.so.%d", name, version)
		}
		return "lib" + name + ".so"
	}
}

// Candidates lists every filename worth trying for a library, most specific
// first: each directory with each version, then each directory unversioned,
// then bare names left to the dynamic loader.
func Candidates(dirs []string, name string, versions []int) []string {
	var out []string
	for _, dir := range dirs {
		for _, v := range versions {
			out = append(out, filepath.Join(dir, FormatLibraryName(name, v)))
		}
		out = append(out, filepath.Join(dir, FormatLibraryName(name, 0)))
	}
	for _, v := range versions {
		out = append(out, FormatLibraryName(name, v))
	}
	return append(out, FormatLibraryName(name, 0))
}

// SearchPaths returns the directories to search for FFmpeg, with extra
// directories and FFSNAP_LIBRARY_PATH ahead of the loader variables and
// the well-known install locations of the current OS.
func SearchPaths(extra ...string) []string {
	paths := append([]string(nil), extra...)
	if env := os.Getenv(LibraryPathEnv); env != "" {
		paths = append(paths, filepath.SplitList(env)...)
	}

	switch runtime.GOOS {
	case "linux", "freebsd":
		if ld := os.Getenv("LD_LIBRARY_PATH"); ld != "" {
			paths = append(paths, filepath.SplitList(ld)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)
	case "darwin":
		if dyld := os.Getenv("DYLD_LIBRARY_PATH"); dyld != "" {
			paths = append(paths, filepath.SplitList(dyld)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/opt/homebrew/opt/ffmpeg/lib",
			"/usr/local/opt/ffmpeg/lib",
		)
		// Inside an app bundle the libraries ship next to the executable.
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(exe), "..", "Frameworks"))
		}
	case "windows":
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		if p := os.Getenv("PATH"); p != "" {
			paths = append(paths, filepath.SplitList(p)...)
		}
		paths = append(paths,
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
		)
	}

	return dedupe(paths)
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// PreferredHWDevices lists hardware decode device types in the order they
// are tried when the configured accelerator is "auto".
func PreferredHWDevices() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"videotoolbox"}
	case "windows":
		return []string{"d3d11va", "dxva2", "cuda"}
	default:
		return []string{"vaapi", "cuda", "vdpau"}
	}
}
