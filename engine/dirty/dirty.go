// Package dirty tracks which 16x16 screen tiles changed since the last
// presented frame.
package dirty

import "image"

const (
	TileShift = 4
	TileSize  = 1 << TileShift
)

// Tracker keeps two tile bitmaps. A tile is dirty when it is set in the
// current or the previous frame, so a moved object's old position gets
// repainted too.
type Tracker struct {
	w, h     int
	tw, th   int
	current  []uint64
	previous []uint64
}

// New returns a tracker for a w x h pixel frame
func New(w, h int) *Tracker {
	t := &Tracker{}
	t.Resize(w, h)
	return t
}

// Resize reallocates the bitmaps for a new frame size and marks
// everything dirty.
func (t *Tracker) Resize(w, h int) {
	t.w, t.h = max(w, 0), max(h, 0)
	t.tw = (t.w + TileSize - 1) >> TileShift
	t.th = (t.h + TileSize - 1) >> TileShift
	words := (t.tw*t.th + 63) / 64
	t.current = make([]uint64, words)
	t.previous = make([]uint64, words)
	t.MarkAll()
}

// Tiles returns the bitmap dimensions in tiles
func (t *Tracker) Tiles() (tw, th int) { return t.tw, t.th }

// Mark flags every tile touched by the inclusive pixel rectangle
// (x1,y1)-(x2,y2). Parts outside the frame are ignored.
func (t *Tracker) Mark(x1, y1, x2, y2 int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	x1, y1 = max(x1, 0), max(y1, 0)
	x2, y2 = min(x2, t.w-1), min(y2, t.h-1)
	if x1 > x2 || y1 > y2 {
		return
	}
	for ty := y1 >> TileShift; ty <= y2>>TileShift; ty++ {
		row := ty * t.tw
		for tx := x1 >> TileShift; tx <= x2>>TileShift; tx++ {
			i := row + tx
			t.current[i>>6] |= 1 << (i & 63)
		}
	}
}

// MarkAll flags the whole frame
func (t *Tracker) MarkAll() {
	t.Mark(0, 0, t.w-1, t.h-1)
}

// IsDirty reports whether tile (tx, ty) must be presented
func (t *Tracker) IsDirty(tx, ty int) bool {
	if tx < 0 || ty < 0 || tx >= t.tw || ty >= t.th {
		return false
	}
	i := ty*t.tw + tx
	return (t.current[i>>6]|t.previous[i>>6])&(1<<(i&63)) != 0
}

// Rects returns the dirty tiles as pixel rectangles, one per maximal
// horizontal run of dirty tiles, clipped to the frame.
func (t *Tracker) Rects() []image.Rectangle {
	var rects []image.Rectangle
	for ty := 0; ty < t.th; ty++ {
		tx := 0
		for tx < t.tw {
			if !t.IsDirty(tx, ty) {
				tx++
				continue
			}
			start := tx
			for tx < t.tw && t.IsDirty(tx, ty) {
				tx++
			}
			r := image.Rect(start<<TileShift, ty<<TileShift, tx<<TileShift, (ty+1)<<TileShift)
			rects = append(rects, r.Intersect(image.Rect(0, 0, t.w, t.h)))
		}
	}
	return rects
}

// EndFrame returns the rectangles to present and rolls the bitmaps:
// previous takes current, current is cleared.
func (t *Tracker) EndFrame() []image.Rectangle {
	rects := t.Rects()
	t.previous, t.current = t.current, t.previous
	clear(t.current)
	return rects
}
