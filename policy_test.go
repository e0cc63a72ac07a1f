//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"reflect"
	"testing"
)

func TestThumbnailTimePolicy(t *testing.T) {
	tests := []struct {
		duration, snapshotTime, want int
	}{
		{0, 60, 0},
		{4, 60, 0},
		{5, 60, 2},
		{90, 60, 45},
		{119, 60, 59},
		{120, 60, 60},
		{7200, 60, 60},
		{30, 10, 10},
	}
	for _, tt := range tests {
		if got := ThumbnailTime(tt.duration, tt.snapshotTime); got != tt.want {
			t.Errorf("ThumbnailTime(%d, %d) = %d, want %d", tt.duration, tt.snapshotTime, got, tt.want)
		}
	}
}

func TestSheetTimes(t *testing.T) {
	tests := []struct {
		duration, max int
		want          []float64
	}{
		{0, 10, nil},
		{-3, 10, nil},
		{30, 10, []float64{15}},
		{60, 10, []float64{30}},
		{119, 10, []float64{}},
		{180, 10, []float64{60, 120}},
		{300, 10, []float64{60, 120, 180, 240}},
		{3600, 4, []float64{720, 1440, 2160, 2880}},
		{30, 0, []float64{}},
	}
	for _, tt := range tests {
		got := SheetTimes(tt.duration, tt.max)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SheetTimes(%d, %d) = %v, want %v", tt.duration, tt.max, got, tt.want)
		}
	}
}
