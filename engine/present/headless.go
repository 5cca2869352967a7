package present

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Headless keeps a frame in memory and records what was presented.
// It backs tests and batch rendering.
type Headless struct {
	*Frame
	Frames int
	Pixels int               // total presented pixels
	Last   []image.Rectangle // rects of the last Present
	shown  *image.RGBA       // screen contents as of the last Present
}

// NewHeadless returns a headless backend presenting f
func NewHeadless(f *Frame) *Headless {
	return &Headless{Frame: f, shown: image.NewRGBA(image.Rect(0, 0, f.W, f.H))}
}

// Present copies the dirty rectangles to the simulated screen
func (h *Headless) Present(rects []image.Rectangle) error {
	h.Frames++
	h.Last = append(h.Last[:0], rects...)
	var buf []byte
	for _, r := range rects {
		r = r.Intersect(h.Bounds())
		if r.Empty() {
			continue
		}
		buf = h.ConvertRect(r, buf)
		w := 4 * r.Dx()
		for y := 0; y < r.Dy(); y++ {
			copy(h.shown.Pix[h.shown.PixOffset(r.Min.X, r.Min.Y+y):], buf[y*w:(y+1)*w])
		}
		h.Pixels += r.Dx() * r.Dy()
	}
	return nil
}

// Screen returns what a real display would show after the presented
// frames.
func (h *Headless) Screen() *image.RGBA { return h.shown }

// SavePNG writes the simulated screen to path
func (h *Headless) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, h.shown); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
