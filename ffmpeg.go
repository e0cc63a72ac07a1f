//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avformat"
	"github.com/obinnaokechukwu/ffsnap/avutil"
)

// FFmpegBackend demuxes with libavformat, decodes with libavcodec, scales
// with libswscale and encodes PNG with libavcodec's png encoder.
type FFmpegBackend struct{}

func (FFmpegBackend) OpenContainer(src ByteSource, cfg *Config) (Container, error) {
	if err := InitWithConfig(*cfg); err != nil {
		return nil, err
	}
	return openDemuxer(src, cfg.ProbeSize)
}

func (FFmpegBackend) NewConverter(src Geometry, dst image.Point, format PixelFormat) (Converter, error) {
	return newSWSConverter(src, dst, format)
}

func (FFmpegBackend) NewEncoder() (ImageEncoder, error) {
	return newPNGEncoder()
}

// demuxer is an opened libavformat input reading through an avioBridge.
type demuxer struct {
	fmtCtx  avformat.FormatContext
	io      *avioBridge
	streams []StreamInfo
}

func openDemuxer(src ByteSource, probeSize int64) (*demuxer, error) {
	bridge, err := newAVIOBridge(src)
	if err != nil {
		return nil, err
	}

	// Allocate format context
	fmtCtx := avformat.AllocContext()
	if fmtCtx == nil {
		bridge.close()
		return nil, errors.New("ffsnap: failed to allocate format context")
	}
	avformat.SetIOContext(fmtCtx, bridge.ctx)
	avformat.AddFlags(fmtCtx, avformat.FlagCustomIO)

	var opts avutil.Dictionary
	if probeSize > 0 {
		if err := avutil.DictSet(&opts, "probesize", strconv.FormatInt(probeSize, 10)); err != nil {
			avformat.FreeContext(fmtCtx)
			bridge.close()
			return nil, err
		}
	}

	// avformat_open_input frees the context itself on failure
	err = avformat.OpenInput(&fmtCtx, "", &opts)
	avutil.DictFree(&opts)
	if err != nil {
		bridge.close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	d := &demuxer{fmtCtx: fmtCtx, io: bridge}
	if err := avformat.FindStreamInfo(fmtCtx); err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	for i := 0; i < avformat.GetNumStreams(fmtCtx); i++ {
		d.streams = append(d.streams, streamInfo(avformat.GetStream(fmtCtx, i)))
	}
	return d, nil
}

func streamInfo(s avformat.Stream) StreamInfo {
	par := avformat.GetStreamCodecPar(s)
	id := avcodec.GetParCodecID(par)
	info := StreamInfo{
		Index:     int(avformat.GetStreamIndex(s)),
		Codec:     id.String(),
		Decodable: avcodec.FindDecoder(id) != nil,
		BitRate:   avcodec.GetParBitRate(par),
	}

	switch avcodec.GetParMediaType(par) {
	case avutil.MediaTypeVideo:
		info.Kind = KindVideo
		info.Width = int(avcodec.GetParWidth(par))
		info.Height = int(avcodec.GetParHeight(par))
		sar := avformat.GetStreamSampleAspectRatio(s)
		if !sar.Valid() {
			sar = avcodec.GetParSampleAspectRatio(par)
		}
		if sar.Valid() {
			info.SampleAspect = sar.Float64()
		}
		info.AttachedPicture = avformat.GetStreamDisposition(s)&avformat.DispositionAttachedPic != 0
	case avutil.MediaTypeAudio:
		info.Kind = KindAudio
		info.Channels = int(avcodec.GetParChannels(par))
	case avutil.MediaTypeAttachment:
		info.Kind = KindAttachment
		info.AttachedPicture = strings.HasPrefix(avformat.GetStreamMetadata(s, "mimetype"), "image/") &&
			avcodec.GetParExtradataSize(par) > 0
	}
	return info
}

func (d *demuxer) Streams() []StreamInfo {
	return d.streams
}

func (d *demuxer) Duration() float64 {
	dur := avformat.GetDuration(d.fmtCtx)
	if dur <= 0 {
		return 0
	}
	return float64(dur) / avformat.TimeBase
}

func (d *demuxer) Metadata(key string) string {
	return avformat.GetMetadata(d.fmtCtx, key)
}

// AttachedPicture copies the cover packet of an attached picture stream,
// or the payload of an image attachment.
func (d *demuxer) AttachedPicture(index int) ([]byte, error) {
	s := avformat.GetStream(d.fmtCtx, index)
	if s == nil {
		return nil, fmt.Errorf("ffsnap: no stream %d", index)
	}
	if avformat.GetStreamDisposition(s)&avformat.DispositionAttachedPic != 0 {
		if data := avcodec.PacketBytes(avformat.GetStreamAttachedPic(s)); len(data) > 0 {
			return data, nil
		}
	}
	if data := avcodec.GetParExtradata(avformat.GetStreamCodecPar(s)); len(data) > 0 {
		return data, nil
	}
	return nil, fmt.Errorf("ffsnap: stream %d carries no picture", index)
}

func (d *demuxer) OpenDecoder(index int, hwDevices []string) (FrameDecoder, error) {
	s := avformat.GetStream(d.fmtCtx, index)
	if s == nil {
		return nil, fmt.Errorf("ffsnap: no stream %d", index)
	}
	return openFrameDecoder(d, s, hwDevices)
}

func (d *demuxer) Close() error {
	if d.fmtCtx != nil {
		avformat.CloseInput(&d.fmtCtx)
	}
	if d.io != nil {
		if d.io.err != nil {
			logger().Debug("byte source reported errors", "error", d.io.err)
		}
		d.io.close()
		d.io = nil
	}
	return nil
}
