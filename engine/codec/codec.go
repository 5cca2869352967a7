package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/1siamBot/spritecomp/engine/palette"
)

// MaxWidth is the widest sprite whose runs fit in a word
const MaxWidth = 0xFFFF

// Validate checks that data holds exactly h scanlines no wider than w.
// It is the ingestion boundary: kernels trust validated data.
func Validate(data []uint16, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty extent %dx%d", ErrMalformed, w, h)
	}
	if w > MaxWidth {
		return fmt.Errorf("%w: width %d exceeds %d", ErrMalformed, w, MaxWidth)
	}
	r := NewReader(data)
	for y := 0; y < h; y++ {
		x := 0
		for {
			skip, px, ok := r.NextRun()
			if !ok {
				break
			}
			x += skip
			if x+len(px) > w {
				return fmt.Errorf("%w: line %d run ends at %d past width %d", ErrMalformed, y, x+len(px), w)
			}
			for _, p := range px {
				if !palette.ValidWord(p) {
					return fmt.Errorf("%w: line %d invalid word %#04x", ErrMalformed, y, p)
				}
			}
			x += len(px)
		}
		if err := r.Err(); err != nil {
			return fmt.Errorf("line %d: %w", y, err)
		}
	}
	if r.Offset() != len(data) {
		return fmt.Errorf("%w: %d trailing words after %d lines", ErrMalformed, len(data)-r.Offset(), h)
	}
	return nil
}

// FromBytes converts a little-endian byte stream into words
func FromBytes(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte length %d", ErrMalformed, len(b))
	}
	words := make([]uint16, len(b)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return words, nil
}

// ToBytes is the inverse of FromBytes
func ToBytes(words []uint16) []byte {
	b := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(b[2*i:], w)
	}
	return b
}

// HasPlayerColor reports whether validated data uses any player slot
func HasPlayerColor(data []uint16, h int) bool {
	r := NewReader(data)
	for y := 0; y < h; y++ {
		for _, w := range r.Pixels() {
			if palette.IsPlayerWord(w) {
				return true
			}
		}
	}
	return false
}

// Raster is a dense sprite image: one source word per pixel plus an
// opacity flag.
type Raster struct {
	W, H   int
	Pix    []uint16
	Opaque []bool
}

// NewRaster returns a fully transparent raster
func NewRaster(w, h int) *Raster {
	return &Raster{W: w, H: h, Pix: make([]uint16, w*h), Opaque: make([]bool, w*h)}
}

// Set makes (x, y) opaque with word v
func (r *Raster) Set(x, y int, v uint16) {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return
	}
	r.Pix[y*r.W+x] = v
	r.Opaque[y*r.W+x] = true
}

// At returns the word at (x, y) and whether it is opaque
func (r *Raster) At(x, y int) (uint16, bool) {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return 0, false
	}
	i := y*r.W + x
	return r.Pix[i], r.Opaque[i]
}

// Equal reports pixel-for-pixel equality, ignoring words under
// transparent pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r.W != o.W || r.H != o.H {
		return false
	}
	for i := range r.Opaque {
		if r.Opaque[i] != o.Opaque[i] || r.Opaque[i] && r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Decode validates data and expands it into a raster
func Decode(data []uint16, w, h int) (*Raster, error) {
	if err := Validate(data, w, h); err != nil {
		return nil, err
	}
	out := NewRaster(w, h)
	r := NewReader(data)
	for y := 0; y < h; y++ {
		for x, v := range r.Pixels() {
			out.Set(x, y, v)
		}
	}
	return out, nil
}

// Encode packs a raster into the canonical minimal encoding: colored runs
// are maximal, trailing clear pixels are dropped, and the only zero-length
// group on a line is its terminator. It panics on rasters wider than
// MaxWidth.
func Encode(r *Raster) []uint16 {
	if r.W > MaxWidth {
		panic(fmt.Sprintf("codec: encode width %d exceeds %d", r.W, MaxWidth))
	}
	out := make([]uint16, 0, 2*r.H+len(r.Pix)/2)
	for y := 0; y < r.H; y++ {
		row := y * r.W
		last := 0
		x := 0
		for x < r.W {
			for x < r.W && !r.Opaque[row+x] {
				x++
			}
			if x == r.W {
				break
			}
			start := x
			for x < r.W && r.Opaque[row+x] {
				x++
			}
			out = append(out, uint16(start-last), uint16(x-start))
			out = append(out, r.Pix[row+start:row+x]...)
			last = x
		}
		out = append(out, 0, 0)
	}
	return out
}

// Bounds returns the tight box around opaque pixels as x, y, w, h.
// An all-transparent raster yields a zero extent.
func (r *Raster) Bounds() (x0, y0, w, h int) {
	minX, minY, maxX, maxY := r.W, r.H, -1, -1
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			if r.Opaque[y*r.W+x] {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	if maxX < 0 {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX - minX + 1, maxY - minY + 1
}

// Crop returns the sub-raster starting at (x0, y0) of size w x h
func (r *Raster) Crop(x0, y0, w, h int) *Raster {
	out := NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if v, ok := r.At(x0+x, y0+y); ok {
				out.Set(x, y, v)
			}
		}
	}
	return out
}

// Recode returns a copy of validated data with every pixel word passed
// through m. The run structure is unchanged.
func Recode(data []uint16, h int, m *palette.Map) []uint16 {
	out := make([]uint16, len(data))
	copy(out, data)
	r := NewReader(data)
	for y := 0; y < h; y++ {
		for {
			_, px, ok := r.NextRun()
			if !ok {
				break
			}
			start := r.Offset() - len(px)
			for i, w := range px {
				out[start+i] = m.Lookup(w)
			}
		}
	}
	return out
}
