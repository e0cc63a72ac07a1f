//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"io"
	"testing"
)

// box builds an MP4 box around the concatenated payloads.
func box(name string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	b := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(b, uint32(8+len(body)))
	copy(b[4:], name)
	return append(b, body...)
}

func dataBox(typ byte, pic []byte) []byte {
	return box("data", []byte{0, 0, 0, typ, 0, 0, 0, 0}, pic)
}

func coverFile(meta []byte) []byte {
	return bytes.Join([][]byte{
		box("ftyp", []byte("M4A \x00\x00\x00\x00M4A mp42isom")),
		box("free", make([]byte, 16)),
		box("moov",
			box("mvhd", make([]byte, 100)),
			box("udta", meta),
		),
		box("mdat", make([]byte, 64)),
	}, nil)
}

func TestMP4CoverProbe(t *testing.T) {
	pic := encodePNG(t, 300, 200, color.White)
	hdlr := box("hdlr", make([]byte, 25))

	tests := []struct {
		name string
		meta []byte
	}{
		{"iso full box", box("meta", []byte{0, 0, 0, 0}, hdlr, box("ilst", box("covr", dataBox(dataTypePNG, pic))))},
		{"quicktime", box("meta", hdlr, box("ilst", box("covr", dataBox(dataTypePNG, pic))))},
		{"implicit type", box("meta", []byte{0, 0, 0, 0}, box("ilst", box("©nam", []byte("x")), box("covr", dataBox(0, pic))))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := coverFile(tt.meta)
			blob, err := MP4CoverProbe{}.ProbePicture(bytes.NewReader(file))
			if err != nil {
				t.Fatalf("ProbePicture failed: %v", err)
			}
			if blob == nil {
				t.Fatal("cover not found")
			}
			if want := int64(bytes.Index(file, pic)); blob.Offset != want {
				t.Errorf("Offset = %d, want %d", blob.Offset, want)
			}
			if blob.Size != int64(len(pic)) || blob.Width != 300 || blob.Height != 200 {
				t.Errorf("blob = %+v", blob)
			}
		})
	}
}

func TestMP4CoverProbeMisses(t *testing.T) {
	pic := encodePNG(t, 8, 8, color.Black)
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not mp4", []byte("RIFF\x10\x00\x00\x00WAVEfmt this is no box tree")},
		{"no udta", bytes.Join([][]byte{box("ftyp", []byte("isom")), box("moov", box("mvhd", make([]byte, 100)))}, nil)},
		{"no covr", coverFile(box("meta", []byte{0, 0, 0, 0}, box("ilst", box("©nam", []byte("x")))))},
		{"truncated", coverFile(box("meta", []byte{0, 0, 0, 0}, box("ilst", box("covr", dataBox(dataTypePNG, pic)))))[:60]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := MP4CoverProbe{}.ProbePicture(bytes.NewReader(tt.data))
			if blob != nil || err != nil {
				t.Errorf("ProbePicture = %+v, %v; want nil, nil", blob, err)
			}
		})
	}
}

func TestMP4CoverProbeRejects(t *testing.T) {
	text := coverFile(box("meta", []byte{0, 0, 0, 0}, box("ilst", box("covr", dataBox(1, []byte("hello"))))))
	if blob, err := (MP4CoverProbe{}).ProbePicture(bytes.NewReader(text)); blob != nil || err == nil {
		t.Errorf("text cover: %+v, %v", blob, err)
	}

	var boxes [][]byte
	for i := 0; i < 20; i++ {
		boxes = append(boxes, box("free", nil))
	}
	many := bytes.Join(boxes, nil)
	if _, err := (MP4CoverProbe{MaxBoxes: 10}).ProbePicture(bytes.NewReader(many)); !errors.Is(err, errTooManyBoxes) {
		t.Errorf("box budget: got %v", err)
	}
}

func TestReadRegionKeepsPosition(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	src.Seek(7, io.SeekStart)

	data, err := readRegion(src, 2, 3)
	if err != nil {
		t.Fatalf("readRegion failed: %v", err)
	}
	if string(data) != "234" {
		t.Errorf("data = %q", data)
	}
	if pos, _ := src.Seek(0, io.SeekCurrent); pos != 7 {
		t.Errorf("position = %d, want 7", pos)
	}

	if _, err := readRegion(src, 8, 5); err == nil {
		t.Error("region past the end accepted")
	}
	if _, err := readRegion(src, -1, 5); err == nil {
		t.Error("negative offset accepted")
	}
}
