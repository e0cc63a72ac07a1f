//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avformat"
	"github.com/obinnaokechukwu/ffsnap/avutil"
)

// frameDecoder decodes one stream of a demuxer. Packets of other streams
// are read and dropped.
type frameDecoder struct {
	d        *demuxer
	index    int
	timeBase avutil.Rational
	start    int64 // stream start time in timeBase units

	codecCtx avcodec.Context
	hwDevice avutil.BufferRef
	hwName   string
	filter   *packetFilter
	pkt      avcodec.Packet

	// Frames alternate so the previous one survives a failed receive.
	frames  [2]avutil.Frame
	cur     int
	lastPTS float64

	readEOF  bool // demuxer exhausted, filter drained
	draining bool // decoder sent the drain signal
}

func openFrameDecoder(d *demuxer, s avformat.Stream, hwDevices []string) (_ *frameDecoder, err error) {
	par := avformat.GetStreamCodecPar(s)
	codecID := avcodec.GetParCodecID(par)

	// Find decoder
	codec := avcodec.FindDecoder(codecID)
	if codec == nil {
		return nil, fmt.Errorf("ffsnap: no decoder for %s", codecID)
	}

	dec := &frameDecoder{
		d:        d,
		index:    int(avformat.GetStreamIndex(s)),
		timeBase: avformat.GetStreamTimeBase(s),
	}
	if st := avformat.GetStreamStartTime(s); st != avutil.NoPTSValue {
		dec.start = st
	}
	defer func() {
		if err != nil {
			dec.Close()
		}
	}()

	// Allocate codec context
	dec.codecCtx = avcodec.AllocContext3(codec)
	if dec.codecCtx == nil {
		return nil, errors.New("ffsnap: failed to allocate codec context")
	}

	// Copy codec parameters
	if err := avcodec.ParametersToContext(dec.codecCtx, par); err != nil {
		return nil, err
	}

	if len(hwDevices) > 0 {
		dec.hwDevice, dec.hwName, err = openHWDevice(codec, hwDevices)
		if err != nil {
			return nil, err
		}
		if !avcodec.SetHWDeviceCtx(dec.codecCtx, dec.hwDevice) {
			return nil, fmt.Errorf("%w: cannot attach %s device", errNoHWDevice, dec.hwName)
		}
	}

	// Open codec
	var opts avutil.Dictionary
	if err := avutil.DictSet(&opts, "threads", "auto"); err != nil {
		return nil, err
	}
	err = avcodec.Open2(dec.codecCtx, codec, &opts)
	avutil.DictFree(&opts)
	if err != nil {
		return nil, err
	}

	if dec.filter, err = newPacketFilter(par, dec.timeBase); err != nil {
		if !errors.Is(err, avcodec.ErrBSFNotFound) {
			return nil, err
		}
		logger().Debug("bitstream filter unavailable, decoding packets unfiltered", "stream", dec.index)
		err = nil
	}

	// Allocate packet and frames
	dec.pkt = avcodec.PacketAlloc()
	dec.frames[0] = avutil.FrameAlloc()
	dec.frames[1] = avutil.FrameAlloc()
	if dec.pkt == nil || dec.frames[0] == nil || dec.frames[1] == nil {
		return nil, errors.New("ffsnap: failed to allocate packet or frame")
	}

	logger().Debug("decoder opened", "stream", dec.index, "codec", avcodec.GetCodecName(codec),
		"hwaccel", dec.hwName, "bsf", dec.filter != nil)
	return dec, nil
}

func (dec *frameDecoder) Hardware() bool {
	return dec.hwDevice != nil
}

// Next implements the send/receive loop: drain the decoder, and feed it a
// packet whenever it asks for more input.
func (dec *frameDecoder) Next() (Frame, error) {
	for {
		next := dec.frames[dec.cur^1]
		err := avcodec.ReceiveFrame(dec.codecCtx, next)
		if err == nil {
			dec.cur ^= 1
			return dec.wrap(next), nil
		}
		if avutil.IsEOF(err) {
			return nil, io.EOF
		}
		if !avutil.IsAgain(err) {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPacket, err)
		}
		if dec.draining {
			return nil, io.EOF
		}

		err = dec.nextPacket()
		if errors.Is(err, io.EOF) {
			// Enter draining mode to flush buffered frames.
			dec.draining = true
			if err := avcodec.SendPacket(dec.codecCtx, nil); err != nil && !avutil.IsEOF(err) {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		corrupt := avcodec.GetPacketFlags(dec.pkt)&avcodec.PacketFlagCorrupt != 0
		if !corrupt {
			err = avcodec.SendPacket(dec.codecCtx, dec.pkt)
		}
		avcodec.PacketUnref(dec.pkt)
		if corrupt {
			return nil, fmt.Errorf("%w: stream %d flagged corrupt by demuxer", ErrCorruptPacket, dec.index)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPacket, err)
		}
	}
}

// nextPacket leaves the next packet of the stream in dec.pkt.
func (dec *frameDecoder) nextPacket() error {
	for {
		if dec.filter != nil {
			err := dec.filter.receive(dec.pkt)
			switch {
			case err == nil:
				return nil
			case avutil.IsEOF(err):
				return io.EOF
			case !avutil.IsAgain(err):
				return fmt.Errorf("%w: %s: %w", ErrCorruptPacket, dec.filter.name, err)
			}
		}
		if dec.readEOF {
			return io.EOF
		}

		err := avformat.ReadFrame(dec.d.fmtCtx, dec.pkt)
		if avutil.IsEOF(err) {
			dec.readEOF = true
			if dec.filter == nil {
				return io.EOF
			}
			if err := dec.filter.send(nil); err != nil {
				return io.EOF
			}
			continue
		}
		if err != nil {
			if avutil.IsInvalidData(err) {
				return fmt.Errorf("%w: %w", ErrCorruptPacket, err)
			}
			return err
		}

		if int(avcodec.GetPacketStreamIndex(dec.pkt)) != dec.index {
			avcodec.PacketUnref(dec.pkt)
			continue
		}
		if dec.filter == nil {
			return nil
		}
		if avcodec.GetPacketFlags(dec.pkt)&avcodec.PacketFlagCorrupt != 0 {
			// Report it from Next without passing it through the filter.
			return nil
		}
		err = dec.filter.send(dec.pkt)
		avcodec.PacketUnref(dec.pkt)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCorruptPacket, dec.filter.name, err)
		}
	}
}

// SeekTo seeks the stream to the keyframe at or before seconds, falling
// back to a container-level seek when the stream refuses.
func (dec *frameDecoder) SeekTo(seconds float64) error {
	ts := dec.start
	if dec.timeBase.Valid() {
		ts += dec.timeBase.Timestamp(seconds)
	}
	err := avformat.SeekFrame(dec.d.fmtCtx, int32(dec.index), ts, avformat.SeekFlagBackward)
	if err != nil {
		global := int64(seconds * avformat.TimeBase)
		if st := avformat.GetStartTime(dec.d.fmtCtx); st != avutil.NoPTSValue {
			global += st
		}
		if gerr := avformat.SeekFrame(dec.d.fmtCtx, -1, global, avformat.SeekFlagBackward); gerr != nil {
			return errors.Join(err, gerr)
		}
	}

	// Flush decoder buffers
	avcodec.FlushBuffers(dec.codecCtx)
	if dec.filter != nil {
		dec.filter.flush()
	}
	dec.readEOF = false
	dec.draining = false
	dec.resetClock(seconds)
	return nil
}

// resetClock forgets the time carried by unstamped frames. After a seek
// they lie somewhere before seconds, so they stay below any target until
// a stamped frame arrives.
func (dec *frameDecoder) resetClock(seconds float64) {
	dec.lastPTS = math.Inf(-1)
	if seconds <= 0 {
		dec.lastPTS = 0
	}
}

// framePTS converts raw to seconds. Frames without a timestamp inherit
// the time of the previous frame.
func (dec *frameDecoder) framePTS(raw int64) float64 {
	if raw != avutil.NoPTSValue && dec.timeBase.Valid() {
		dec.lastPTS = dec.timeBase.Seconds(raw - dec.start)
	}
	return dec.lastPTS
}

func (dec *frameDecoder) wrap(f avutil.Frame) *ffFrame {
	pts := dec.framePTS(avutil.GetFramePTS(f))

	sar := avutil.GetFrameSampleAspectRatio(f)
	if !sar.Valid() {
		sar = avutil.NewRational(1, 1)
	}
	format := avutil.GetFrameFormat(f)
	return &ffFrame{
		ptr: f,
		pts: pts,
		geometry: Geometry{
			Width:        int(avutil.GetFrameWidth(f)),
			Height:       int(avutil.GetFrameHeight(f)),
			Format:       int(format),
			SampleAspect: sar.Float64(),
			Hardware:     format.IsHardware(),
		},
	}
}

func (dec *frameDecoder) Close() error {
	if dec.filter != nil {
		dec.filter.close()
		dec.filter = nil
	}
	for i := range dec.frames {
		if dec.frames[i] != nil {
			avutil.FrameFree(&dec.frames[i])
		}
	}
	if dec.pkt != nil {
		avcodec.PacketFree(&dec.pkt)
	}
	if dec.codecCtx != nil {
		avcodec.FreeContext(&dec.codecCtx)
	}
	if dec.hwDevice != nil {
		avutil.BufferUnref(&dec.hwDevice)
	}
	return nil
}

// ffFrame is a frame owned by a frameDecoder.
type ffFrame struct {
	ptr      avutil.Frame
	pts      float64
	geometry Geometry
}

func (f *ffFrame) PTS() float64       { return f.pts }
func (f *ffFrame) Geometry() Geometry { return f.geometry }
