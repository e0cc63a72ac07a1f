//go:build !ios && !android && (amd64 || arm64)

package avutil

import "fmt"

// Rational mirrors AVRational and can be read in place from FFmpeg structs.
type Rational struct {
	Num int32
	Den int32
}

// NewRational creates a new Rational with the given numerator and denominator.
func NewRational(num, den int32) Rational {
	return Rational{Num: num, Den: den}
}

// Float64 converts the rational to a float64.
// Returns 0 if the denominator is 0.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Valid reports whether both terms are positive, which is what FFmpeg
// requires of time bases and known aspect ratios.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Seconds converts a timestamp expressed in r units to seconds.
func (r Rational) Seconds(ts int64) float64 {
	return float64(ts) * r.Float64()
}

// Timestamp converts seconds to a timestamp in r units, truncating.
func (r Rational) Timestamp(seconds float64) int64 {
	if r.Num == 0 {
		return 0
	}
	return int64(seconds * float64(r.Den) / float64(r.Num))
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
