package present

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Ebiten uploads dirty rectangles into an offscreen ebiten image that is
// drawn to the window every frame.
type Ebiten struct {
	*Frame
	offscreen *ebiten.Image
	buf       []byte
	drawOpts  ebiten.DrawImageOptions
}

// NewEbiten returns a backend for a frame; the image is created lazily on
// first Present so construction works before the game loop starts.
func NewEbiten(f *Frame) *Ebiten {
	return &Ebiten{Frame: f}
}

// Present writes the dirty rectangles into the offscreen image. Call it
// from the game's Draw.
func (e *Ebiten) Present(rects []image.Rectangle) error {
	if e.offscreen == nil || e.offscreen.Bounds().Dx() != e.W || e.offscreen.Bounds().Dy() != e.H {
		e.offscreen = ebiten.NewImage(e.W, e.H)
		rects = []image.Rectangle{e.Bounds()}
	}
	for _, r := range rects {
		r = r.Intersect(e.Bounds())
		if r.Empty() {
			continue
		}
		e.buf = e.ConvertRect(r, e.buf)
		e.offscreen.SubImage(r).(*ebiten.Image).WritePixels(e.buf)
	}
	return nil
}

// Resize reallocates the frame; the offscreen image follows on the next
// Present.
func (e *Ebiten) Resize(w, h int) {
	*e.Frame = *NewFrame(w, h, e.Format)
}

// Draw scales the offscreen image into screen, keeping the aspect ratio.
func (e *Ebiten) Draw(screen *ebiten.Image) {
	if e.offscreen == nil {
		return
	}
	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := min(float64(screenW)/float64(e.W), float64(screenH)/float64(e.H))
	offsetX := (float64(screenW) - float64(e.W)*scale) / 2
	offsetY := (float64(screenH) - float64(e.H)*scale) / 2

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(scale, scale)
	e.drawOpts.GeoM.Translate(offsetX, offsetY)
	e.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(e.offscreen, &e.drawOpts)
}
