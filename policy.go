//go:build !ios && !android && (amd64 || arm64)

package ffsnap

const (
	// Clips shorter than this are not worth seeking into [s].
	minimumSeekDuration = 5
	// One contact sheet image per this many seconds [s].
	sheetPeriod = 60
)

// ThumbnailTime returns where to take a thumbnail snapshot of a clip of
// duration seconds, given the preferred offset snapshotTime.
func ThumbnailTime(duration, snapshotTime int) int {
	switch {
	case duration < minimumSeekDuration:
		return 0
	case duration < 2*snapshotTime:
		return duration / 2
	}
	return snapshotTime
}

// SheetTimes returns the snapshot times of a contact sheet for a clip of
// duration seconds, spread evenly and at most maxCount of them.
func SheetTimes(duration, maxCount int) []float64 {
	var n int
	switch {
	case duration <= 0:
		return nil
	case duration <= sheetPeriod:
		n = 1
	default:
		n = duration/sheetPeriod - 1
	}
	n = min(n, maxCount)

	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		times = append(times, float64(duration*(i+1)/(n+1)))
	}
	return times
}
