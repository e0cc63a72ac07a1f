//go:build !ios && !android && (amd64 || arm64)

// Package avutil provides the parts of FFmpeg's libavutil that snapshot
// extraction needs: frames, memory, dictionaries, options, logging, error
// strings and hardware device contexts.
package avutil

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// Dictionary is an opaque FFmpeg AVDictionary pointer.
type Dictionary = unsafe.Pointer

var (
	avMalloc func(size uintptr) unsafe.Pointer
	avFree   func(ptr unsafe.Pointer)
	avFreep  func(ptr *unsafe.Pointer)

	avDictSet  func(pm *unsafe.Pointer, key, value string, flags int32) int32
	avDictGet  func(m unsafe.Pointer, key string, prev unsafe.Pointer, flags int32) unsafe.Pointer
	avDictFree func(pm *unsafe.Pointer)

	avOptSetInt func(obj unsafe.Pointer, name string, val int64, searchFlags int32) int32

	avStrerror    func(errnum int32, errbuf unsafe.Pointer, errbufSize uintptr) int32
	avLogSetLevel func(level int32)
	avLogGetLevel func() int32
)

func init() {
	bindings.OnLoad(registerBindings)
}

func registerBindings() {
	lib := bindings.AVUtil

	bindings.Register(&avMalloc, lib, "av_malloc")
	bindings.Register(&avFree, lib, "av_free")
	bindings.Register(&avFreep, lib, "av_freep")

	bindings.Register(&avDictSet, lib, "av_dict_set")
	bindings.Register(&avDictGet, lib, "av_dict_get")
	bindings.Register(&avDictFree, lib, "av_dict_free")

	bindings.Register(&avOptSetInt, lib, "av_opt_set_int")

	bindings.Register(&avStrerror, lib, "av_strerror")
	bindings.Register(&avLogSetLevel, lib, "av_log_set_level")
	bindings.Register(&avLogGetLevel, lib, "av_log_get_level")

	registerFrameBindings(lib)
	registerHWBindings(lib)
	registerPixFmtBindings(lib)
}

// Malloc allocates memory using FFmpeg's allocator.
func Malloc(size uintptr) unsafe.Pointer {
	if avMalloc == nil {
		return nil
	}
	return avMalloc(size)
}

// Free frees memory allocated by Malloc.
func Free(ptr unsafe.Pointer) {
	if ptr == nil || avFree == nil {
		return
	}
	avFree(ptr)
}

// Freep frees *ptr and sets it to nil.
func Freep(ptr *unsafe.Pointer) {
	if ptr == nil || *ptr == nil || avFreep == nil {
		return
	}
	avFreep(ptr)
}

// DictSet sets a key-value pair in a dictionary, allocating it if needed.
func DictSet(dict *Dictionary, key, value string) error {
	if avDictSet == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avDictSet(dict, key, value, 0); ret < 0 {
		return NewError(ret, "av_dict_set")
	}
	return nil
}

// DictGet returns the value stored under key, or "" when absent.
// The match is case-insensitive, as av_dict_get does by default.
func DictGet(dict Dictionary, key string) string {
	if dict == nil || avDictGet == nil {
		return ""
	}
	entry := avDictGet(dict, key, nil, 0)
	if entry == nil {
		return ""
	}
	// AVDictionaryEntry{char *key; char *value}
	return GoString(*(*unsafe.Pointer)(unsafe.Add(entry, 8)))
}

// DictFree frees a dictionary and sets it to nil.
func DictFree(dict *Dictionary) {
	if dict == nil || *dict == nil || avDictFree == nil {
		return
	}
	avDictFree(dict)
}

// AV_OPT_SEARCH_CHILDREN lets OptSetInt reach private codec options.
const AV_OPT_SEARCH_CHILDREN = 1

// OptSetInt sets an integer AVOption on an FFmpeg object.
func OptSetInt(obj unsafe.Pointer, name string, val int64) error {
	if avOptSetInt == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avOptSetInt(obj, name, val, AV_OPT_SEARCH_CHILDREN); ret < 0 {
		return NewError(ret, "av_opt_set_int "+name)
	}
	return nil
}

// ErrorString returns FFmpeg's message for an error code.
func ErrorString(errnum int32) string {
	if avStrerror == nil {
		return "unknown error (FFmpeg not loaded)"
	}
	buf := make([]byte, 256)
	avStrerror(errnum, unsafe.Pointer(&buf[0]), uintptr(len(buf)))
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// GoString copies a NUL-terminated C string.
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// GoBytes copies size bytes starting at p.
func GoBytes(p unsafe.Pointer, size int) []byte {
	if p == nil || size <= 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(p), size))
	return out
}
