//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads the FFmpeg shared libraries with purego and runs
// the binding registrations of the avutil, avcodec, avformat and swscale
// packages once the libraries are resident.
package bindings

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffsnap/internal/platform"
)

// ErrNotLoaded is returned when FFmpeg functions are called before Load.
var ErrNotLoaded = errors.New("ffsnap: FFmpeg libraries not loaded; call ffsnap.Init first")

// ErrLibraryNotFound is returned when a required FFmpeg library cannot be found.
var ErrLibraryNotFound = errors.New("ffsnap: FFmpeg library not found")

// Library identifies one of the FFmpeg shared libraries.
type Library int

const (
	AVUtil Library = iota
	AVCodec
	AVFormat
	SWScale
	numLibraries
)

var libraryNames = [numLibraries]string{"avutil", "avcodec", "avformat", "swscale"}

// Accepted major versions, newest first. FFmpeg 4.4 through 7.x.
var libraryVersions = [numLibraries][]int{
	{59, 58, 57, 56},
	{61, 60, 59, 58},
	{61, 60, 59, 58},
	{8, 7, 6, 5},
}

func (l Library) String() string {
	if l < 0 || l >= numLibraries {
		return fmt.Sprintf("Library(%d)", int(l))
	}
	return "lib" + libraryNames[l]
}

var (
	mu         sync.Mutex
	extraPaths []string
	registrars []func()

	libs     [numLibraries]uintptr
	loaded   bool
	loadOnce sync.Once
	loadErr  error

	avutilVersion   func() uint32
	avcodecVersion  func() uint32
	avformatVersion func() uint32
	swscaleVersion  func() uint32
)

// SetSearchPaths adds directories searched before the platform defaults.
// It has no effect once Load has run.
func SetSearchPaths(dirs ...string) {
	mu.Lock()
	defer mu.Unlock()
	extraPaths = append(extraPaths, dirs...)
}

// OnLoad queues fn to run after the libraries are opened. Packages call it
// from init to register their purego bindings.
func OnLoad(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	registrars = append(registrars, fn)
}

// IsLoaded reports whether Load succeeded.
func IsLoaded() bool {
	return loaded
}

// Load opens the FFmpeg libraries and runs every OnLoad registration.
// It is safe to call multiple times; subsequent calls return the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		loaded = loadErr == nil
	})
	return loadErr
}

func doLoad() error {
	mu.Lock()
	dirs := platform.SearchPaths(extraPaths...)
	fns := append([]func(){}, registrars...)
	mu.Unlock()

	// Dependency order: avutil first, then the libraries linking against it.
	for _, lib := range []Library{AVUtil, AVCodec, AVFormat} {
		h, err := open(dirs, lib)
		if err != nil {
			return fmt.Errorf("loading %s: %w", lib, err)
		}
		libs[lib] = h
	}
	// swscale is only needed for conversion; its absence surfaces later as
	// a conversion error.
	libs[SWScale], _ = open(dirs, SWScale)

	purego.RegisterLibFunc(&avutilVersion, libs[AVUtil], "avutil_version")
	purego.RegisterLibFunc(&avcodecVersion, libs[AVCodec], "avcodec_version")
	purego.RegisterLibFunc(&avformatVersion, libs[AVFormat], "avformat_version")
	if libs[SWScale] != 0 {
		purego.RegisterLibFunc(&swscaleVersion, libs[SWScale], "swscale_version")
	}

	for _, fn := range fns {
		fn()
	}
	return nil
}

func open(dirs []string, lib Library) (uintptr, error) {
	for _, path := range platform.Candidates(dirs, libraryNames[lib], libraryVersions[lib]) {
		// RTLD_GLOBAL: the FFmpeg libraries resolve symbols from each other.
		h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, lib)
}

// Handle returns the dlopen handle of lib, or 0 when it is not loaded.
func Handle(lib Library) uintptr {
	if lib < 0 || lib >= numLibraries {
		return 0
	}
	return libs[lib]
}

// Has reports whether lib was opened.
func Has(lib Library) bool {
	return Handle(lib) != 0
}

// Register binds fptr to symbol in lib. It panics if the symbol is missing,
// like purego.RegisterLibFunc.
func Register(fptr any, lib Library, symbol string) {
	purego.RegisterLibFunc(fptr, Handle(lib), symbol)
}

// RegisterOptional binds fptr to symbol when lib is loaded and exports it.
// It reports whether the binding was made.
func RegisterOptional(fptr any, lib Library, symbol string) bool {
	h := Handle(lib)
	if h == 0 {
		return false
	}
	if _, err := purego.Dlsym(h, symbol); err != nil {
		return false
	}
	purego.RegisterLibFunc(fptr, h, symbol)
	return true
}

// Version returns the packed version number of lib, or 0 when unavailable.
// It is valid from OnLoad registrations onwards.
func Version(lib Library) uint32 {
	var fn func() uint32
	switch lib {
	case AVUtil:
		fn = avutilVersion
	case AVCodec:
		fn = avcodecVersion
	case AVFormat:
		fn = avformatVersion
	case SWScale:
		fn = swscaleVersion
	}
	if fn == nil {
		return 0
	}
	return fn()
}

// Major extracts the major component of a packed FFmpeg version.
func Major(v uint32) int {
	return int(v >> 16)
}

// FormatVersion renders a packed FFmpeg version as major.minor.micro.
func FormatVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xFF, v&0xFF)
}
