// Package rezoom resamples encoded sprites to a rational zoom factor.
package rezoom

import (
	"errors"
	"fmt"
)

// ErrFactor is returned for zoom factors outside the supported set
var ErrFactor = errors.New("unsupported zoom factor")

// Factor is the zoom ratio Num/Den
type Factor struct {
	Num, Den int
}

// Identity is native resolution
var Identity = Factor{1, 1}

// Ladder lists the zoom steps from largest to smallest
var Ladder = []Factor{
	{2, 1}, {3, 2}, {4, 3}, {1, 1}, {3, 4}, {5, 8}, {1, 2}, {3, 8}, {1, 4},
}

// Validate checks the denominator set and the 0.25x..3x range
func (f Factor) Validate() error {
	switch f.Den {
	case 1, 2, 3, 4, 8:
	default:
		return fmt.Errorf("%w: %d/%d denominator", ErrFactor, f.Num, f.Den)
	}
	if f.Num <= 0 || f.Num > 3*f.Den || 4*f.Num < f.Den {
		return fmt.Errorf("%w: %d/%d out of range", ErrFactor, f.Num, f.Den)
	}
	return nil
}

// IsIdentity reports whether the factor leaves sprites untouched
func (f Factor) IsIdentity() bool {
	return f.Num == f.Den
}

func (f Factor) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Ratio returns the factor as a float, for display
func (f Factor) Ratio() float64 {
	return float64(f.Num) / float64(f.Den)
}

// Scale maps a coordinate to the zoomed grid, rounding toward -inf
func (f Factor) Scale(v int) int {
	return floorDiv(v*f.Num, f.Den)
}

// Step returns the next ladder entry: zoomIn moves toward larger factors.
// Factors not on the ladder snap to the nearest entry in that direction.
func (f Factor) Step(zoomIn bool) Factor {
	r := f.Ratio()
	if zoomIn {
		for i := len(Ladder) - 1; i >= 0; i-- {
			if Ladder[i].Ratio() > r {
				return Ladder[i]
			}
		}
		return Ladder[0]
	}
	for _, l := range Ladder {
		if l.Ratio() < r {
			return l
		}
	}
	return Ladder[len(Ladder)-1]
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
