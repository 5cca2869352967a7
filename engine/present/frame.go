// Package present moves compositor frames to a screen. Backends own the
// 16-bit frame buffer the compositor draws into and convert its dirty
// rectangles to RGBA on Present.
package present

import (
	"image"

	"github.com/1siamBot/spritecomp/engine/palette"
)

// Frame is a 16-bit frame buffer
type Frame struct {
	Pix    []uint16
	W, H   int
	Pitch  int
	Format palette.Format
}

// NewFrame allocates a w x h frame with no row padding
func NewFrame(w, h int, f palette.Format) *Frame {
	return &Frame{Pix: make([]uint16, w*h), W: w, H: h, Pitch: w, Format: f}
}

// Bounds returns the frame rectangle
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.W, f.H) }

// ConvertRect writes r's pixels into dst as packed RGBA rows of r.Dx()
// pixels and returns the bytes used. dst grows when too small.
func (f *Frame) ConvertRect(r image.Rectangle, dst []byte) []byte {
	r = r.Intersect(f.Bounds())
	n := 4 * r.Dx() * r.Dy()
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for _, p := range f.Pix[y*f.Pitch+r.Min.X : y*f.Pitch+r.Max.X] {
			dst[i], dst[i+1], dst[i+2] = f.Format.Unpack(p)
			dst[i+3] = 0xFF
			i += 4
		}
	}
	return dst
}

// RGBA converts the whole frame
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	f.ConvertRect(f.Bounds(), img.Pix)
	return img
}
