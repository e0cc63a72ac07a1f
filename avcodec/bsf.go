//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"errors"
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// BSFContext is an opaque FFmpeg AVBSFContext pointer.
type BSFContext = unsafe.Pointer

// ErrBSFNotFound is returned when libavcodec was built without a filter.
var ErrBSFNotFound = errors.New("avcodec: bitstream filter not found")

var (
	avBsfGetByName     func(name string) unsafe.Pointer
	avBsfAlloc         func(filter unsafe.Pointer, ctx *unsafe.Pointer) int32
	avBsfInit          func(ctx unsafe.Pointer) int32
	avBsfFree          func(ctx *unsafe.Pointer)
	avBsfFlush         func(ctx unsafe.Pointer)
	avBsfSendPacket    func(ctx, pkt unsafe.Pointer) int32
	avBsfReceivePacket func(ctx, pkt unsafe.Pointer) int32
)

func registerBSFBindings(lib bindings.Library) {
	bindings.Register(&avBsfGetByName, lib, "av_bsf_get_by_name")
	bindings.Register(&avBsfAlloc, lib, "av_bsf_alloc")
	bindings.Register(&avBsfInit, lib, "av_bsf_init")
	bindings.Register(&avBsfFree, lib, "av_bsf_free")
	bindings.Register(&avBsfFlush, lib, "av_bsf_flush")
	bindings.Register(&avBsfSendPacket, lib, "av_bsf_send_packet")
	bindings.Register(&avBsfReceivePacket, lib, "av_bsf_receive_packet")
}

// AVBSFContext field offsets.
const (
	offsetBsfParIn      = 24
	offsetBsfTimeBaseIn = 40
)

// BSFAlloc allocates a bitstream filter context configured with the input
// stream's parameters and time base, and initialises it.
func BSFAlloc(name string, par Parameters, timeBase avutil.Rational) (BSFContext, error) {
	if avBsfGetByName == nil {
		return nil, bindings.ErrNotLoaded
	}
	filter := avBsfGetByName(name)
	if filter == nil {
		return nil, ErrBSFNotFound
	}
	var ctx unsafe.Pointer
	if ret := avBsfAlloc(filter, &ctx); ret < 0 {
		return nil, avutil.NewError(ret, "av_bsf_alloc")
	}
	parIn := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetBsfParIn))
	if err := ParametersCopy(parIn, par); err != nil {
		avBsfFree(&ctx)
		return nil, err
	}
	*(*avutil.Rational)(unsafe.Add(ctx, offsetBsfTimeBaseIn)) = timeBase
	if ret := avBsfInit(ctx); ret < 0 {
		avBsfFree(&ctx)
		return nil, avutil.NewError(ret, "av_bsf_init")
	}
	return ctx, nil
}

// BSFFree frees a filter context and sets it to nil.
func BSFFree(ctx *BSFContext) {
	if ctx == nil || *ctx == nil || avBsfFree == nil {
		return
	}
	avBsfFree(ctx)
	*ctx = nil
}

// BSFFlush discards buffered packets, as after a seek.
func BSFFlush(ctx BSFContext) {
	if ctx == nil || avBsfFlush == nil {
		return
	}
	avBsfFlush(ctx)
}

// BSFSendPacket submits a packet; the filter takes ownership of its data.
func BSFSendPacket(ctx BSFContext, pkt Packet) error {
	if ret := avBsfSendPacket(ctx, pkt); ret < 0 {
		return avutil.NewError(ret, "av_bsf_send_packet")
	}
	return nil
}

// BSFReceivePacket retrieves a filtered packet. EAGAIN means more input
// is needed.
func BSFReceivePacket(ctx BSFContext, pkt Packet) error {
	if ret := avBsfReceivePacket(ctx, pkt); ret < 0 {
		return avutil.NewError(ret, "av_bsf_receive_packet")
	}
	return nil
}
