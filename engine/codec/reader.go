// Package codec implements the run-length sprite format and the blit
// kernels that consume it.
//
// A sprite is H scanlines of 16-bit words. Every scanline is a sequence of
// groups
//
//	clear, colored, pixel[0] .. pixel[colored-1]
//
// and ends with a group whose colored count is zero. Clear runs are fully
// transparent. Pixel words are RGB555 literals or palette special words
// (player slots and lights), see package palette.
package codec

import (
	"errors"
	"fmt"
	"iter"
)

// ErrMalformed is wrapped by every validation failure
var ErrMalformed = errors.New("malformed sprite data")

// Reader is a bounds-checked cursor over encoded sprite words
type Reader struct {
	data []uint16
	pos  int
	err  error
}

// NewReader starts reading at the first scanline
func NewReader(data []uint16) *Reader {
	return &Reader{data: data}
}

// Err returns the first overrun encountered, if any
func (r *Reader) Err() error { return r.err }

// Offset is the word index of the cursor
func (r *Reader) Offset() int { return r.pos }

// NextRun returns the clear run preceding the next colored run of the
// current scanline and the colored pixels. ok is false once the scanline
// terminator has been consumed or the data ran out.
func (r *Reader) NextRun() (skip int, pixels []uint16, ok bool) {
	if r.err != nil {
		return 0, nil, false
	}
	if r.pos+2 > len(r.data) {
		r.err = fmt.Errorf("%w: missing terminator at word %d", ErrMalformed, r.pos)
		return 0, nil, false
	}
	clear, n := int(r.data[r.pos]), int(r.data[r.pos+1])
	r.pos += 2
	if n == 0 {
		return 0, nil, false
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: run of %d at word %d overruns data", ErrMalformed, n, r.pos)
		return 0, nil, false
	}
	pixels = r.data[r.pos : r.pos+n]
	r.pos += n
	return clear, pixels, true
}

// SkipLine advances past the current scanline
func (r *Reader) SkipLine() {
	for {
		if _, _, ok := r.NextRun(); !ok {
			return
		}
	}
}

// Runs yields (x, pixels) for every colored run of the current scanline.
// Each call consumes exactly one scanline, so ranging over Runs once per
// row walks the sprite. Breaking early still leaves the cursor at the
// start of the next scanline.
func (r *Reader) Runs() iter.Seq2[int, []uint16] {
	return func(yield func(int, []uint16) bool) {
		x := 0
		for {
			skip, px, ok := r.NextRun()
			if !ok {
				return
			}
			x += skip
			if !yield(x, px) {
				r.SkipLine()
				return
			}
			x += len(px)
		}
	}
}

// Pixels yields (x, word) for every opaque pixel of the current scanline
func (r *Reader) Pixels() iter.Seq2[int, uint16] {
	return func(yield func(int, uint16) bool) {
		for x, px := range r.Runs() {
			for i, w := range px {
				if !yield(x+i, w) {
					return
				}
			}
		}
	}
}
