// Package render composites encoded sprites into a 16-bit frame buffer.
// The Compositor is the only entry point game and UI code need: it
// resolves zoom and recolor caches, clips each scanline, runs the blit
// kernels and records dirty tiles for the presentation backend.
package render

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/1siamBot/spritecomp/engine/clip"
	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/dirty"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/rezoom"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

// NoPlayer draws with the active player's colors
const NoPlayer = -1

// Presenter copies dirty parts of the frame buffer to the screen
type Presenter interface {
	Present(rects []image.Rectangle) error
}

// Compositor owns the sprite table and draws into a bound frame buffer.
// Draw calls must come from one goroutine.
type Compositor struct {
	cfg       Config
	store     *sprite.Store
	tables    *palette.Tables
	clip      *clip.Stack
	dirty     *dirty.Tracker
	presenter Presenter

	fb            []uint16
	w, h, pitch   int
	warnedUnknown sync.Map
}

// NewCompositor builds a compositor from cfg. p may be nil when frames
// are never presented.
func NewCompositor(cfg Config, p Presenter) (*Compositor, error) {
	cfg.Defaults()
	tables := palette.NewTables(cfg.Format)
	tables.SetLightLevel(cfg.LightLevel)
	tables.SetNightShift(cfg.NightShift)
	store := sprite.NewStore(tables)
	if err := store.SetFactor(cfg.Zoom); err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	c := &Compositor{
		cfg:       cfg,
		store:     store,
		tables:    tables,
		clip:      clip.NewStack(clip.Rect{}),
		dirty:     dirty.New(0, 0),
		presenter: p,
	}
	log.Printf("Compositor: %s, zoom %s, %d workers", cfg.Format, cfg.Zoom, cfg.Workers)
	return c, nil
}

// Store exposes the sprite table
func (c *Compositor) Store() *sprite.Store { return c.store }

// Tables exposes the color tables
func (c *Compositor) Tables() *palette.Tables { return c.tables }

// Format returns the display pixel format
func (c *Compositor) Format() palette.Format { return c.cfg.Format }

// Size returns the bound frame size
func (c *Compositor) Size() (w, h int) { return c.w, c.h }

// Stats returns the sprite cache counters
func (c *Compositor) Stats() sprite.Stats { return c.store.Stats() }

// RegisterSprite adds a sprite from little-endian encoded data
func (c *Compositor) RegisterSprite(g sprite.Geometry, data []byte, zoomable bool) (sprite.ID, error) {
	return c.store.Register(g, data, zoomable)
}

// SetBaseOffset adjusts a sprite's offset once after loading
func (c *Compositor) SetBaseOffset(id sprite.ID, dx, dy int) error {
	return c.store.SetBaseOffset(id, dx, dy)
}

// FreeSpritesFrom drops all sprites with ids >= id
func (c *Compositor) FreeSpritesFrom(id sprite.ID) {
	c.store.FreeFrom(id)
	c.warnedUnknown.Clear()
}

// Prewarm builds every sprite's caches for the current zoom and palette
func (c *Compositor) Prewarm(ctx context.Context) error {
	return c.store.Prewarm(ctx, c.cfg.Workers)
}

// BindFramebuffer points the compositor at pix, a w x h frame whose rows
// are pitch pixels apart. A size change resets the clip rectangle,
// invalidates zoom caches and dirties the whole frame.
func (c *Compositor) BindFramebuffer(pix []uint16, w, h, pitch int) error {
	if w <= 0 || h <= 0 || pitch < w || len(pix) < pitch*(h-1)+w {
		return fmt.Errorf("compositor: frame buffer of %d pixels too small for %dx%d pitch %d", len(pix), w, h, pitch)
	}
	resized := w != c.w || h != c.h
	c.fb, c.w, c.h, c.pitch = pix, w, h, pitch
	if resized {
		c.clip.SetRect(clip.Rect{Right: w, Bottom: h})
		c.store.InvalidateZoom()
		c.dirty.Resize(w, h)
	}
	return nil
}

// Flush hands the dirty rectangles of this frame to the presenter and
// starts a new frame.
func (c *Compositor) Flush() error {
	rects := c.dirty.EndFrame()
	if c.presenter == nil || len(rects) == 0 {
		return nil
	}
	return c.presenter.Present(rects)
}

// MarkDirty flags an inclusive pixel rectangle for presentation
func (c *Compositor) MarkDirty(x1, y1, x2, y2 int) { c.dirty.Mark(x1, y1, x2, y2) }

// MarkAllDirty forces a full redraw
func (c *Compositor) MarkAllDirty() { c.dirty.MarkAll() }

// IsTileDirty reports whether a 16x16 tile must be presented
func (c *Compositor) IsTileDirty(tx, ty int) bool { return c.dirty.IsDirty(tx, ty) }

// Zoom

// Zoom returns the current zoom factor
func (c *Compositor) Zoom() rezoom.Factor { return c.store.Factor() }

// SetZoom changes the zoom factor to num/den
func (c *Compositor) SetZoom(num, den int) error {
	f := rezoom.Factor{Num: num, Den: den}
	old := c.store.Factor()
	if err := c.store.SetFactor(f); err != nil {
		return err
	}
	if f.Num*old.Den != old.Num*f.Den {
		c.dirty.MarkAll()
	}
	return nil
}

// ZoomIn moves one step up the zoom ladder
func (c *Compositor) ZoomIn() rezoom.Factor { return c.stepZoom(true) }

// ZoomOut moves one step down the zoom ladder
func (c *Compositor) ZoomOut() rezoom.Factor { return c.stepZoom(false) }

func (c *Compositor) stepZoom(in bool) rezoom.Factor {
	f := c.store.Factor().Step(in)
	if err := c.SetZoom(f.Num, f.Den); err != nil {
		// ladder entries are always valid
		panic(err)
	}
	return f
}

// Colors. Every table change repaints the frame.

// SetNightShift sets the darkness step, 0 is full day
func (c *Compositor) SetNightShift(n int) {
	if c.tables.NightShift() != n {
		c.tables.SetNightShift(n)
		c.dirty.MarkAll()
	}
}

// SetLightLevel sets the brightness offset
func (c *Compositor) SetLightLevel(l int) {
	if c.tables.LightLevel() != l {
		c.tables.SetLightLevel(l)
		c.dirty.MarkAll()
	}
}

// SetPlayerColors assigns two color bands to a player
func (c *Compositor) SetPlayerColors(player int, color1, color2 uint8) error {
	if err := c.tables.SetPlayerColors(player, palette.Assignment{Color1: color1, Color2: color2}); err != nil {
		return err
	}
	c.dirty.MarkAll()
	return nil
}

// SetActivePlayer selects whose colors NoPlayer draws use
func (c *Compositor) SetActivePlayer(player int) {
	if c.tables.ActivePlayer() != player {
		c.tables.SetActivePlayer(player)
		c.dirty.MarkAll()
	}
}

// Clipping

// ClipRect returns the clip rectangle
func (c *Compositor) ClipRect() clip.Rect { return c.clip.Rect() }

// SetClipRect limits drawing to the w x h rectangle at (x, y), cut to the
// frame.
func (c *Compositor) SetClipRect(x, y, w, h int) {
	r := clip.Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
	c.clip.SetRect(r.Intersect(c.frameRect()))
}

func (c *Compositor) frameRect() clip.Rect { return clip.Rect{Right: c.w, Bottom: c.h} }

// PushClipLine adds a clip line hiding pixels on one side of
// (x0,y0)-(x1,y1).
func (c *Compositor) PushClipLine(x0, y0, x1, y1 int, mask uint8, nonConvex bool) {
	c.clip.PushLine(clip.Line{X0: x0, Y0: y0, X1: x1, Y1: y1, Mask: mask, NonConvex: nonConvex})
}

// ClearClipLines drops every clip line
func (c *Compositor) ClearClipLines() { c.clip.ClearLines() }

// SetActiveDirectionMask selects which clip lines are live
func (c *Compositor) SetActiveDirectionMask(mask uint8) { c.clip.SetActiveMask(mask) }

// PushClip saves the clip rectangle and lines
func (c *Compositor) PushClip() { c.clip.Push() }

// PopClip restores the last saved clip state. The restored rectangle is
// cut to the current frame, which may have shrunk since PushClip.
func (c *Compositor) PopClip() {
	if !c.clip.Pop() {
		log.Printf("Compositor: PopClip without PushClip")
		return
	}
	c.clip.SetRect(c.clip.Rect().Intersect(c.frameRect()))
}

// Drawing

// Draw blits a sprite at (x, y) through the cached color tables: the
// day/night table when daynight is set, the all-day table otherwise.
// Player colors come from player, or the active player for NoPlayer.
func (c *Compositor) Draw(id sprite.ID, x, y, player int, daynight, markDirty bool) {
	var v sprite.View
	var err error
	if daynight && player == NoPlayer {
		v, err = c.store.Rendered(id)
	} else {
		v, err = c.store.ForPlayer(id, player, !daynight)
	}
	if err != nil {
		c.warn(id, err)
		return
	}
	blit(c, v, x, y, codec.Copy{}, markDirty)
}

// DrawRecolored recolors the zoomed source words while drawing, leaving
// the caches alone. It suits one-off draws in another player's colors.
func (c *Compositor) DrawRecolored(id sprite.ID, x, y, player int, daynight, markDirty bool) {
	v, err := c.store.Zoomed(id)
	if err != nil {
		c.warn(id, err)
		return
	}
	m := c.tables.Map(player, !daynight)
	blit(c, v, x, y, codec.Recolor{Map: &m}, markDirty)
}

// DrawBlended draws a sprite translucently over the frame. With outline
// set, every opaque sprite pixel is replaced by color, a display pixel.
// The result is always marked dirty.
func (c *Compositor) DrawBlended(id sprite.ID, x, y int, color uint16, tier codec.Tier, outline bool) {
	if !tier.Valid() {
		log.Printf("Compositor: invalid blend tier %d for sprite %d", tier, id)
		return
	}
	v, err := c.store.Rendered(id)
	if err != nil {
		c.warn(id, err)
		return
	}
	if outline {
		blit(c, v, x, y, codec.NewOutline(c.cfg.Format, tier, color), true)
		return
	}
	blit(c, v, x, y, codec.NewBlend(c.cfg.Format, tier), true)
}

// FillRect fills the w x h rectangle at (x, y) with a display pixel,
// honoring the clip rectangle but not clip lines.
func (c *Compositor) FillRect(x, y, w, h int, color uint16) {
	r := clip.Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}.Intersect(c.clip.Rect()).Intersect(c.frameRect())
	if r.Empty() || c.fb == nil {
		return
	}
	for row := r.Top; row < r.Bottom; row++ {
		line := c.fb[row*c.pitch+r.Left : row*c.pitch+r.Right]
		for i := range line {
			line[i] = color
		}
	}
	c.dirty.Mark(r.Left, r.Top, r.Right-1, r.Bottom-1)
}

func (c *Compositor) warn(id sprite.ID, err error) {
	if _, seen := c.warnedUnknown.LoadOrStore(id, struct{}{}); !seen {
		log.Printf("Compositor: skipping sprite %d: %v", id, err)
	}
}

// blit runs one kernel over a sprite placed with its offset at (x, y).
// Each row is cut to the clip span before the kernel sees it.
func blit[P codec.Op](c *Compositor, v sprite.View, x, y int, op P, markDirty bool) {
	if v.Empty() || c.fb == nil {
		return
	}
	x += v.X
	y += v.Y
	r := c.clip.Rect()
	top := max(y, r.Top, 0)
	bottom := min(y+v.H, r.Bottom, c.h)
	if top >= bottom || x >= min(r.Right, c.w) || x+v.W <= max(r.Left, 0) {
		return
	}

	rd := codec.NewReader(v.Data)
	for row := y; row < top; row++ {
		rd.SkipLine()
	}
	lo, hi := c.w, 0
	c.clip.Begin(top)
	for row := top; row < bottom; row++ {
		xmin, xmax := c.clip.Advance()
		line := c.fb[row*c.pitch : row*c.pitch+c.w]
		codec.DrawLine(line, rd, x, xmin, xmax, op)
		if a, b := max(xmin, x), min(xmax, x+v.W); a < b {
			lo, hi = min(lo, a), max(hi, b)
		}
	}
	if markDirty && lo < hi {
		c.dirty.Mark(lo, top, hi-1, bottom-1)
	}
}
