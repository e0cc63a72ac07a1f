//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// BufferRef is an opaque FFmpeg AVBufferRef pointer.
type BufferRef = unsafe.Pointer

// HWDeviceType is an AVHWDeviceType value.
type HWDeviceType int32

// HWDeviceTypeNone is AV_HWDEVICE_TYPE_NONE.
const HWDeviceTypeNone HWDeviceType = 0

var (
	avHWDeviceFindTypeByName func(name string) int32
	avHWDeviceGetTypeName    func(typ int32) string
	avHWDeviceCtxCreate      func(ref *unsafe.Pointer, typ int32, device unsafe.Pointer, opts unsafe.Pointer, flags int32) int32
	avHWFrameTransferData    func(dst, src unsafe.Pointer, flags int32) int32
	avBufferRef              func(buf unsafe.Pointer) unsafe.Pointer
	avBufferUnref            func(buf *unsafe.Pointer)
)

func registerHWBindings(lib bindings.Library) {
	bindings.Register(&avHWDeviceFindTypeByName, lib, "av_hwdevice_find_type_by_name")
	bindings.Register(&avHWDeviceGetTypeName, lib, "av_hwdevice_get_type_name")
	bindings.Register(&avHWDeviceCtxCreate, lib, "av_hwdevice_ctx_create")
	bindings.Register(&avHWFrameTransferData, lib, "av_hwframe_transfer_data")
	bindings.Register(&avBufferRef, lib, "av_buffer_ref")
	bindings.Register(&avBufferUnref, lib, "av_buffer_unref")
}

// HWDeviceFindTypeByName maps a name such as "videotoolbox" or "vaapi" to
// its device type, or HWDeviceTypeNone.
func HWDeviceFindTypeByName(name string) HWDeviceType {
	if avHWDeviceFindTypeByName == nil {
		return HWDeviceTypeNone
	}
	return HWDeviceType(avHWDeviceFindTypeByName(name))
}

func (t HWDeviceType) String() string {
	if avHWDeviceGetTypeName != nil {
		if s := avHWDeviceGetTypeName(int32(t)); s != "" {
			return s
		}
	}
	return fmt.Sprintf("HWDeviceType(%d)", int32(t))
}

// HWDeviceCtxCreate opens the default device of the given type.
// The returned reference is released with BufferUnref.
func HWDeviceCtxCreate(typ HWDeviceType) (BufferRef, error) {
	if avHWDeviceCtxCreate == nil {
		return nil, bindings.ErrNotLoaded
	}
	var ref unsafe.Pointer
	if ret := avHWDeviceCtxCreate(&ref, int32(typ), nil, nil, 0); ret < 0 {
		return nil, NewError(ret, "av_hwdevice_ctx_create")
	}
	return ref, nil
}

// HWFrameTransferData downloads a hardware frame into dst, which must be
// an allocated, empty frame. The software format is chosen by FFmpeg.
func HWFrameTransferData(dst, src Frame) error {
	if avHWFrameTransferData == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avHWFrameTransferData(dst, src, 0); ret < 0 {
		return NewError(ret, "av_hwframe_transfer_data")
	}
	return nil
}

// BufferRefNew returns a new reference to buf.
func BufferRefNew(buf BufferRef) BufferRef {
	if buf == nil || avBufferRef == nil {
		return nil
	}
	return avBufferRef(buf)
}

// BufferUnref drops a reference and sets it to nil.
func BufferUnref(buf *BufferRef) {
	if buf == nil || *buf == nil || avBufferUnref == nil {
		return
	}
	avBufferUnref(buf)
}
