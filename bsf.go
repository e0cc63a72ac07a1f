//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avutil"
)

// packetFilter runs a stream's packets through a bitstream filter before
// they reach the decoder.
type packetFilter struct {
	name string
	ctx  avcodec.BSFContext
}

// newPacketFilter returns the filter a stream needs, or nil when its
// packets can go to the decoder as they are. H.264, HEVC and MPEG-4 part 2
// streams without extradata carry their parameter sets in-band;
// extract_extradata lifts them out.
func newPacketFilter(par avcodec.Parameters, timeBase avutil.Rational) (*packetFilter, error) {
	if !avcodec.GetParCodecID(par).NeedsParameterSets() || avcodec.GetParExtradataSize(par) > 0 {
		return nil, nil
	}
	const name = "extract_extradata"
	ctx, err := avcodec.BSFAlloc(name, par, timeBase)
	if err != nil {
		return nil, err
	}
	return &packetFilter{name: name, ctx: ctx}, nil
}

// send submits pkt, or nil to drain. The filter takes the packet's data.
func (f *packetFilter) send(pkt avcodec.Packet) error {
	return avcodec.BSFSendPacket(f.ctx, pkt)
}

// receive fills pkt with the next filtered packet. EAGAIN means the filter
// wants more input; EOF means it is drained.
func (f *packetFilter) receive(pkt avcodec.Packet) error {
	return avcodec.BSFReceivePacket(f.ctx, pkt)
}

func (f *packetFilter) flush() {
	avcodec.BSFFlush(f.ctx)
}

func (f *packetFilter) close() {
	avcodec.BSFFree(&f.ctx)
}
