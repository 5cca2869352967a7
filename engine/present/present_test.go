package present

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/render"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

func TestConvertRect(t *testing.T) {
	for _, f := range []palette.Format{palette.RGB565, palette.RGB555} {
		fr := NewFrame(4, 3, f)
		fr.Pix[1*4+2] = f.Pack(255, 0, 0)
		fr.Pix[2*4+3] = f.Pack(0, 0, 255)
		buf := fr.ConvertRect(image.Rect(2, 1, 6, 3), nil)
		if len(buf) != 4*2*2 {
			t.Fatalf("%v: %d bytes", f, len(buf))
		}
		if buf[0] != 255 || buf[1] != 0 || buf[2] != 0 || buf[3] != 255 {
			t.Fatalf("%v: red pixel %v", f, buf[:4])
		}
		if got := buf[12:16]; got[2] != 255 || got[0] != 0 {
			t.Fatalf("%v: blue pixel %v", f, got)
		}
	}
}

func TestHeadlessShowsOnlyPresentedRects(t *testing.T) {
	fr := NewFrame(64, 32, palette.RGB565)
	h := NewHeadless(fr)
	c, err := render.NewCompositor(render.Config{Format: fr.Format}, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.BindFramebuffer(fr.Pix, fr.W, fr.H, fr.Pitch); err != nil {
		t.Fatal(err)
	}
	c.Flush()
	c.Flush()
	if h.Frames != 2 || h.Pixels != 2*64*32 {
		t.Fatalf("initial presents %d frames %d pixels", h.Frames, h.Pixels)
	}

	r := codec.NewRaster(2, 2)
	for i := 0; i < 4; i++ {
		r.Set(i%2, i/2, palette.Word(255, 255, 255))
	}
	id, _ := c.RegisterSprite(sprite.Geometry{W: 2, H: 2}, codec.ToBytes(codec.Encode(r)), false)
	c.Draw(id, 40, 20, render.NoPlayer, true, true)
	// drawn without marking: stays off screen
	c.Draw(id, 2, 2, render.NoPlayer, true, false)
	c.Flush()

	if len(h.Last) != 1 || h.Last[0] != image.Rect(32, 16, 48, 32) {
		t.Fatalf("last rects %v", h.Last)
	}
	white := color.RGBA{255, 255, 255, 255}
	if got := h.Screen().RGBAAt(40, 20); got != white {
		t.Fatalf("presented pixel %v", got)
	}
	if got := h.Screen().RGBAAt(2, 2); got == white {
		t.Fatal("unmarked draw reached the screen")
	}
	if got := fr.RGBA().RGBAAt(2, 2); got != white {
		t.Fatalf("frame pixel %v", got)
	}

	if err := h.SavePNG(filepath.Join(t.TempDir(), "shot.png")); err != nil {
		t.Fatal(err)
	}
}
