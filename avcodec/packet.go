//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// Packet is an opaque FFmpeg AVPacket pointer.
type Packet = unsafe.Pointer

// AVPacket flags.
const (
	PacketFlagKey     = 0x0001
	PacketFlagCorrupt = 0x0002
)

var (
	avPacketAlloc func() unsafe.Pointer
	avPacketFree  func(pkt *unsafe.Pointer)
	avPacketUnref func(pkt unsafe.Pointer)
)

func registerPacketBindings(lib bindings.Library) {
	bindings.Register(&avPacketAlloc, lib, "av_packet_alloc")
	bindings.Register(&avPacketFree, lib, "av_packet_free")
	bindings.Register(&avPacketUnref, lib, "av_packet_unref")
}

// AVPacket field offsets, stable since avcodec 58.
const (
	offsetPacketPts         = 8
	offsetPacketDts         = 16
	offsetPacketData        = 24
	offsetPacketSize        = 32
	offsetPacketStreamIndex = 36
	offsetPacketFlags       = 40
)

// PacketAlloc allocates a packet.
func PacketAlloc() Packet {
	if avPacketAlloc == nil {
		return nil
	}
	return avPacketAlloc()
}

// PacketFree frees a packet and sets it to nil.
func PacketFree(pkt *Packet) {
	if pkt == nil || *pkt == nil || avPacketFree == nil {
		return
	}
	avPacketFree(pkt)
	*pkt = nil
}

// PacketUnref unreferences a packet's buffers.
func PacketUnref(pkt Packet) {
	if pkt == nil || avPacketUnref == nil {
		return
	}
	avPacketUnref(pkt)
}

// GetPacketPTS returns the presentation timestamp.
func GetPacketPTS(pkt Packet) int64 {
	if pkt == nil {
		return avutil.NoPTSValue
	}
	return *(*int64)(unsafe.Add(pkt, offsetPacketPts))
}

// GetPacketDTS returns the decoding timestamp.
func GetPacketDTS(pkt Packet) int64 {
	if pkt == nil {
		return avutil.NoPTSValue
	}
	return *(*int64)(unsafe.Add(pkt, offsetPacketDts))
}

// GetPacketData returns the packet payload pointer.
func GetPacketData(pkt Packet) unsafe.Pointer {
	if pkt == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(pkt, offsetPacketData))
}

// GetPacketSize returns the payload size in bytes.
func GetPacketSize(pkt Packet) int32 {
	if pkt == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(pkt, offsetPacketSize))
}

// GetPacketStreamIndex returns the index of the stream the packet belongs to.
func GetPacketStreamIndex(pkt Packet) int32 {
	if pkt == nil {
		return -1
	}
	return *(*int32)(unsafe.Add(pkt, offsetPacketStreamIndex))
}

// GetPacketFlags returns the packet flags.
func GetPacketFlags(pkt Packet) int32 {
	if pkt == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(pkt, offsetPacketFlags))
}

// PacketBytes copies the packet payload into Go memory.
func PacketBytes(pkt Packet) []byte {
	return avutil.GoBytes(GetPacketData(pkt), int(GetPacketSize(pkt)))
}

// PacketView returns the packet payload without copying. The slice is only
// valid until the packet is unreferenced.
func PacketView(pkt Packet) []byte {
	data, size := GetPacketData(pkt), GetPacketSize(pkt)
	if data == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), int(size))
}
