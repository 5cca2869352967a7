package rezoom

import (
	"fmt"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/palette"
)

// Geometry is a sprite's offset and extent
type Geometry struct {
	X, Y, W, H int
}

// Empty reports whether the geometry covers no pixels
func (g Geometry) Empty() bool {
	return g.W <= 0 || g.H <= 0
}

// Resample produces the encoded sprite for factor f. For the identity
// factor it returns the input unchanged. A result that lost every opaque
// pixel comes back with an empty geometry and no data.
func Resample(g Geometry, data []uint16, f Factor) (Geometry, []uint16, error) {
	if f.IsIdentity() {
		return g, data, nil
	}
	if err := f.Validate(); err != nil {
		return g, nil, err
	}
	src, err := codec.Decode(data, g.W, g.H)
	if err != nil {
		return g, nil, fmt.Errorf("rezoom %s: %w", f, err)
	}

	var out *codec.Raster
	var ox, oy int
	if f.Num == 2 && f.Den == 1 {
		out = upscale2x(src)
		ox, oy = 2*g.X, 2*g.Y
	} else {
		out, ox, oy = boxFilter(src, g.X, g.Y, f)
	}

	bx, by, bw, bh := out.Bounds()
	if bw == 0 {
		return Geometry{X: ox, Y: oy}, nil, nil
	}
	if bw > codec.MaxWidth {
		return g, nil, fmt.Errorf("rezoom %s: %w: width %d exceeds %d", f, codec.ErrMalformed, bw, codec.MaxWidth)
	}
	trimmed := out.Crop(bx, by, bw, bh)
	return Geometry{X: ox + bx, Y: oy + by, W: bw, H: bh}, codec.Encode(trimmed), nil
}

// tap is one source column (or row) contributing to a destination pixel
type tap struct {
	src    int
	weight int
}

// taps returns, for every destination index, the source indices it
// covers and their overlap. Coordinates are absolute; lengths are
// measured in 1/num source pixels so all weights are integers. Sources
// outside [0, n) are dropped, which zero-pads the offset remainder.
func taps(origin, n int, f Factor) (first int, out [][]tap) {
	first = floorDiv(origin*f.Num, f.Den)
	last := ceilDiv((origin+n)*f.Num, f.Den)
	out = make([][]tap, last-first)
	for d := first; d < last; d++ {
		lo, hi := d*f.Den, (d+1)*f.Den
		for s := floorDiv(lo, f.Num); s*f.Num < hi; s++ {
			local := s - origin
			if local < 0 || local >= n {
				continue
			}
			w := min((s+1)*f.Num, hi) - max(s*f.Num, lo)
			if w > 0 {
				out[d-first] = append(out[d-first], tap{src: local, weight: w})
			}
		}
	}
	return first, out
}

// boxFilter averages every covered source pixel weighted by area. A
// destination pixel is transparent only when no opaque source pixel
// reaches it; otherwise only opaque sources enter the average.
func boxFilter(src *codec.Raster, gx, gy int, f Factor) (*codec.Raster, int, int) {
	ox, cols := taps(gx, src.W, f)
	oy, rows := taps(gy, src.H, f)
	out := codec.NewRaster(len(cols), len(rows))
	for dy, rt := range rows {
		for dx, ct := range cols {
			var acc accumulator
			for _, r := range rt {
				for _, c := range ct {
					if v, ok := src.At(c.src, r.src); ok {
						acc.add(v, r.weight*c.weight)
					}
				}
			}
			if v, ok := acc.result(); ok {
				out.Set(dx, dy, v)
			}
		}
	}
	return out, ox, oy
}

// upscale2x doubles a raster. Every opaque source pixel becomes a 2x2
// block: the top-left copies it and the other three average it with its
// opaque right, lower and diagonal neighbors. Transparent source pixels
// stay transparent, so an empty border keeps its width on every side.
func upscale2x(src *codec.Raster) *codec.Raster {
	out := codec.NewRaster(2*src.W, 2*src.H)
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			v, ok := src.At(x, y)
			if !ok {
				continue
			}
			out.Set(2*x, 2*y, v)
			fill := func(ox, oy int, pts ...[2]int) {
				var acc accumulator
				acc.add(v, 1)
				for _, p := range pts {
					if n, ok := src.At(p[0], p[1]); ok {
						acc.add(n, 1)
					}
				}
				if n, ok := acc.result(); ok {
					out.Set(ox, oy, n)
				}
			}
			fill(2*x+1, 2*y, [2]int{x + 1, y})
			fill(2*x, 2*y+1, [2]int{x, y + 1})
			fill(2*x+1, 2*y+1, [2]int{x + 1, y}, [2]int{x, y + 1}, [2]int{x + 1, y + 1})
		}
	}
	return out
}

// accumulator averages literal RGB555 words per channel. Special words
// (player slots, lights) cannot be averaged: when the heaviest contributor
// is special it is copied through unchanged.
type accumulator struct {
	r, g, b   int
	literal   int
	best      uint16
	bestW     int
	anyOpaque bool
}

func (a *accumulator) add(v uint16, w int) {
	a.anyOpaque = true
	if w > a.bestW {
		a.best, a.bestW = v, w
	}
	if palette.IsSpecial(v) {
		return
	}
	r, g, b := palette.SplitWord(v)
	a.r += int(r) * w
	a.g += int(g) * w
	a.b += int(b) * w
	a.literal += w
}

func (a *accumulator) result() (uint16, bool) {
	if !a.anyOpaque {
		return 0, false
	}
	if palette.IsSpecial(a.best) || a.literal == 0 {
		return a.best, true
	}
	half := a.literal / 2
	return palette.JoinWord(
		uint16((a.r+half)/a.literal),
		uint16((a.g+half)/a.literal),
		uint16((a.b+half)/a.literal),
	), true
}
