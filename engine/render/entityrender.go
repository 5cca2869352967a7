package render

import (
	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/maplib"
)

// Object is a sprite standing on a map tile
type Object struct {
	Sprite   string
	X, Y     int
	Player   int  // color owner, NoPlayer for the active player
	Selected bool // draws a highlight over the sprite
	Ghost    bool // translucent placement preview
}

// DrawObject draws an object anchored at the center of its tile.
// It reports false when the sprite name is unknown.
func (r *IsoRenderer) DrawObject(tm *maplib.TileMap, o Object) bool {
	id, ok := r.Sprites.Lookup(o.Sprite)
	if !ok {
		return false
	}
	tile := tm.At(o.X, o.Y)
	if tile == nil {
		return false
	}
	tx, ty := r.Camera.TileOrigin(o.X, o.Y, tile.Top())
	_, by := r.Camera.TileOrigin(o.X+1, o.Y+1, tile.Top())
	sx, sy := tx, (ty+by)/2

	if o.Ghost {
		r.Comp.DrawBlended(id, sx, sy, 0, codec.Tier50, false)
		return true
	}
	r.Comp.Draw(id, sx, sy, o.Player, true, true)
	if o.Selected {
		hi := r.Comp.Format().Pack(255, 255, 0)
		r.Comp.DrawBlended(id, sx, sy, hi, codec.Tier25, true)
	}
	return true
}
