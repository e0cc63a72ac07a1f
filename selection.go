//go:build !ios && !android && (amd64 || arm64)

package ffsnap

// StreamScorer reports whether candidate should replace best. Streams are
// offered in index order, so returning false on ties keeps the lowest
// index.
type StreamScorer func(candidate, best StreamInfo) bool

// DefaultStreamScorer prefers the higher bit rate, then more audio
// channels, then the larger picture.
func DefaultStreamScorer(candidate, best StreamInfo) bool {
	if candidate.BitRate != best.BitRate {
		return candidate.BitRate > best.BitRate
	}
	if candidate.Channels != best.Channels {
		return candidate.Channels > best.Channels
	}
	return candidate.Width*candidate.Height > best.Width*best.Height
}

// selectStream returns the index of the best decodable stream of kind, or
// -1. Attached pictures never count as video.
func selectStream(streams []StreamInfo, kind StreamKind, better StreamScorer) int {
	best := -1
	for i, s := range streams {
		if s.Kind != kind || !s.Decodable || s.AttachedPicture {
			continue
		}
		if best < 0 || better(s, streams[best]) {
			best = i
		}
	}
	if best < 0 {
		return -1
	}
	return streams[best].Index
}

// coverStreams returns the attached picture and image attachment streams
// in index order.
func coverStreams(streams []StreamInfo) []StreamInfo {
	var out []StreamInfo
	for _, s := range streams {
		if s.AttachedPicture {
			out = append(out, s)
		}
	}
	return out
}
