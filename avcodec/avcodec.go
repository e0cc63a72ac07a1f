//go:build !ios && !android && (amd64 || arm64)

// Package avcodec provides bindings to FFmpeg's libavcodec library:
// decoder and encoder discovery, codec contexts, packets, codec parameters,
// hardware configurations and bitstream filters.
package avcodec

import (
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// Codec is an opaque FFmpeg AVCodec pointer.
type Codec = unsafe.Pointer

// Context is an opaque FFmpeg AVCodecContext pointer.
type Context = unsafe.Pointer

var (
	avcodecFindDecoder       func(id int32) unsafe.Pointer
	avcodecFindEncoderByName func(name string) unsafe.Pointer
	avcodecGetName           func(id int32) string
	avcodecAllocContext3     func(codec unsafe.Pointer) unsafe.Pointer
	avcodecFreeContext       func(ctx *unsafe.Pointer)
	avcodecOpen2             func(ctx, codec unsafe.Pointer, options *unsafe.Pointer) int32
	avcodecSendPacket        func(ctx, pkt unsafe.Pointer) int32
	avcodecReceiveFrame      func(ctx, frame unsafe.Pointer) int32
	avcodecSendFrame         func(ctx, frame unsafe.Pointer) int32
	avcodecReceivePacket     func(ctx, pkt unsafe.Pointer) int32
	avcodecFlushBuffers      func(ctx unsafe.Pointer)
	avcodecParametersToCtx   func(ctx, par unsafe.Pointer) int32
	avcodecParametersCopy    func(dst, src unsafe.Pointer) int32
)

func init() {
	bindings.OnLoad(registerBindings)
}

func registerBindings() {
	lib := bindings.AVCodec

	bindings.Register(&avcodecFindDecoder, lib, "avcodec_find_decoder")
	bindings.Register(&avcodecFindEncoderByName, lib, "avcodec_find_encoder_by_name")
	bindings.Register(&avcodecGetName, lib, "avcodec_get_name")
	bindings.Register(&avcodecAllocContext3, lib, "avcodec_alloc_context3")
	bindings.Register(&avcodecFreeContext, lib, "avcodec_free_context")
	bindings.Register(&avcodecOpen2, lib, "avcodec_open2")
	bindings.Register(&avcodecSendPacket, lib, "avcodec_send_packet")
	bindings.Register(&avcodecReceiveFrame, lib, "avcodec_receive_frame")
	bindings.Register(&avcodecSendFrame, lib, "avcodec_send_frame")
	bindings.Register(&avcodecReceivePacket, lib, "avcodec_receive_packet")
	bindings.Register(&avcodecFlushBuffers, lib, "avcodec_flush_buffers")
	bindings.Register(&avcodecParametersToCtx, lib, "avcodec_parameters_to_context")
	bindings.Register(&avcodecParametersCopy, lib, "avcodec_parameters_copy")

	registerPacketBindings(lib)
	registerHWConfigBindings(lib)
	registerBSFBindings(lib)
}

// FindDecoder finds a decoder by codec ID.
func FindDecoder(id CodecID) Codec {
	if avcodecFindDecoder == nil {
		return nil
	}
	return avcodecFindDecoder(int32(id))
}

// FindEncoderByName finds an encoder by name.
func FindEncoderByName(name string) Codec {
	if avcodecFindEncoderByName == nil {
		return nil
	}
	codec := avcodecFindEncoderByName(name)
	runtime.KeepAlive(name)
	return codec
}

// GetName returns FFmpeg's short name for a codec ID, such as "h264".
func GetName(id CodecID) string {
	if avcodecGetName == nil {
		return ""
	}
	return avcodecGetName(int32(id))
}

// AVCodec.name follows the class pointer.
const offsetCodecName = 8

// GetCodecName returns the implementation name of a decoder or encoder.
func GetCodecName(codec Codec) string {
	if codec == nil {
		return ""
	}
	return avutil.GoString(*(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecName)))
}

// AllocContext3 allocates a codec context.
func AllocContext3(codec Codec) Context {
	if avcodecAllocContext3 == nil {
		return nil
	}
	return avcodecAllocContext3(codec)
}

// FreeContext frees a codec context and sets it to nil.
func FreeContext(ctx *Context) {
	if ctx == nil || *ctx == nil || avcodecFreeContext == nil {
		return
	}

	// Stage the pointer in FFmpeg memory: handing foreign code a pointer
	// into Go memory that it then writes through aborts on macOS.
	tmp := avutil.Malloc(unsafe.Sizeof(uintptr(0)))
	if tmp != nil {
		*(*unsafe.Pointer)(tmp) = *ctx
		avcodecFreeContext((*unsafe.Pointer)(tmp))
		avutil.Free(tmp)
		*ctx = nil
		return
	}
	avcodecFreeContext(ctx)
	*ctx = nil
}

// Open2 opens a codec context.
func Open2(ctx Context, codec Codec, options *avutil.Dictionary) error {
	if avcodecOpen2 == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avcodecOpen2(ctx, codec, options); ret < 0 {
		return avutil.NewError(ret, "avcodec_open2")
	}
	return nil
}

// SendPacket sends a packet to the decoder. Pass nil to enter draining mode.
// EAGAIN and EOF are reported as errors; callers drain with ReceiveFrame first.
func SendPacket(ctx Context, pkt Packet) error {
	if avcodecSendPacket == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecSendPacket(ctx, pkt)
	runtime.KeepAlive(pkt)
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_send_packet")
	}
	return nil
}

// ReceiveFrame receives a decoded frame from the decoder.
// EAGAIN means more input is needed; EOF means the decoder is fully drained.
func ReceiveFrame(ctx Context, frame avutil.Frame) error {
	if avcodecReceiveFrame == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avcodecReceiveFrame(ctx, frame); ret < 0 {
		return avutil.NewError(ret, "avcodec_receive_frame")
	}
	return nil
}

// SendFrame sends a frame to the encoder. Pass nil to flush the encoder.
func SendFrame(ctx Context, frame avutil.Frame) error {
	if avcodecSendFrame == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecSendFrame(ctx, frame)
	runtime.KeepAlive(frame)
	if ret < 0 && ret != avutil.AVERROR_EOF {
		return avutil.NewError(ret, "avcodec_send_frame")
	}
	return nil
}

// ReceivePacket receives an encoded packet from the encoder.
func ReceivePacket(ctx Context, pkt Packet) error {
	if avcodecReceivePacket == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avcodecReceivePacket(ctx, pkt); ret < 0 {
		return avutil.NewError(ret, "avcodec_receive_packet")
	}
	return nil
}

// FlushBuffers resets decoder state after a seek.
func FlushBuffers(ctx Context) {
	if ctx == nil || avcodecFlushBuffers == nil {
		return
	}
	avcodecFlushBuffers(ctx)
}

// ParametersToContext copies stream parameters into a codec context.
func ParametersToContext(ctx Context, par Parameters) error {
	if avcodecParametersToCtx == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avcodecParametersToCtx(ctx, par); ret < 0 {
		return avutil.NewError(ret, "avcodec_parameters_to_context")
	}
	return nil
}

// ParametersCopy copies codec parameters from src to dst.
func ParametersCopy(dst, src Parameters) error {
	if avcodecParametersCopy == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avcodecParametersCopy(dst, src); ret < 0 {
		return avutil.NewError(ret, "avcodec_parameters_copy")
	}
	return nil
}

// AVCodecContext field offsets. Fields up to pix_fmt are unchanged from
// avcodec 58 to 61; hw_device_ctx is only verified for avcodec 60.
const (
	offsetCtxTimeBase    = 100
	offsetCtxWidth       = 116
	offsetCtxHeight      = 120
	offsetCtxPixFmt      = 136
	offsetCtxHWDeviceCtx = 864
)

// SetEncoderGeometry prepares an encoder context for still frames.
func SetEncoderGeometry(ctx Context, width, height int32, format avutil.PixelFormat, timeBase avutil.Rational) {
	if ctx == nil {
		return
	}
	*(*int32)(unsafe.Add(ctx, offsetCtxWidth)) = width
	*(*int32)(unsafe.Add(ctx, offsetCtxHeight)) = height
	*(*int32)(unsafe.Add(ctx, offsetCtxPixFmt)) = int32(format)
	*(*avutil.Rational)(unsafe.Add(ctx, offsetCtxTimeBase)) = timeBase
}

// GetCtxPixFmt returns the context's pixel format.
func GetCtxPixFmt(ctx Context) avutil.PixelFormat {
	if ctx == nil {
		return avutil.PixelFormatNone
	}
	return avutil.PixelFormat(*(*int32)(unsafe.Add(ctx, offsetCtxPixFmt)))
}

// HWDeviceCtxSupported reports whether SetHWDeviceCtx knows the context
// layout of the loaded libavcodec.
func HWDeviceCtxSupported() bool {
	return bindings.Major(bindings.Version(bindings.AVCodec)) == 60
}

// SetHWDeviceCtx attaches a new reference to a hardware device to a decoder
// context. It must be called before Open2.
func SetHWDeviceCtx(ctx Context, device avutil.BufferRef) bool {
	if ctx == nil || device == nil || !HWDeviceCtxSupported() {
		return false
	}
	ref := avutil.BufferRefNew(device)
	if ref == nil {
		return false
	}
	*(*unsafe.Pointer)(unsafe.Add(ctx, offsetCtxHWDeviceCtx)) = ref
	return true
}
