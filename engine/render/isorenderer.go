package render

import (
	"github.com/1siamBot/spritecomp/engine/maplib"
	"github.com/1siamBot/spritecomp/engine/rezoom"
)

// IsoRenderer draws a tile map and the objects standing on it through a
// compositor, back to front.
type IsoRenderer struct {
	Camera     *Camera
	Comp       *Compositor
	Sprites    *Catalog
	Background uint16 // display pixel behind the map
}

// NewIsoRenderer creates a new isometric renderer
func NewIsoRenderer(comp *Compositor, sprites *Catalog, screenW, screenH int) *IsoRenderer {
	cam := NewCamera(screenW, screenH)
	cam.Zoom = comp.Zoom()
	return &IsoRenderer{
		Camera:     cam,
		Comp:       comp,
		Sprites:    sprites,
		Background: comp.Format().Pack(20, 20, 30),
	}
}

// ZoomIn steps the compositor and camera one zoom level in
func (r *IsoRenderer) ZoomIn() rezoom.Factor {
	r.Camera.Zoom = r.Comp.ZoomIn()
	return r.Camera.Zoom
}

// ZoomOut steps the compositor and camera one zoom level out
func (r *IsoRenderer) ZoomOut() rezoom.Factor {
	r.Camera.Zoom = r.Comp.ZoomOut()
	return r.Camera.Zoom
}

// DrawMap renders the visible portion of the tile map with objects on
// top. The whole frame is repainted.
func (r *IsoRenderer) DrawMap(tm *maplib.TileMap, objects []Object) {
	r.Camera.SetTileSize(tm.TileWidth, tm.TileHeight, tm.HeightStep)
	w, h := r.Comp.Size()
	r.Comp.FillRect(0, 0, w, h, r.Background)

	onTile := make(map[[2]int][]Object)
	for _, o := range objects {
		k := [2]int{o.X, o.Y}
		onTile[k] = append(onTile[k], o)
	}

	minX, minY, maxX, maxY := r.Camera.VisibleTileRange(tm.Width, tm.Height)
	// diagonals from the back corner forward keep the painter's order
	for d := minX + minY; d <= maxX+maxY; d++ {
		for x := max(minX, d-maxY); x <= min(maxX, d-minY); x++ {
			y := d - x
			tile := tm.At(x, y)
			if tile == nil {
				continue
			}
			if id, ok := r.Sprites.TerrainVariant(tile.Terrain, tile.Slope, x, y); ok {
				sx, sy := r.Camera.TileOrigin(x, y, int(tile.Height))
				r.Comp.Draw(id, sx, sy, NoPlayer, true, true)
			}
			if objs := onTile[[2]int{x, y}]; len(objs) > 0 {
				r.pushSlopeClip(tm, x, y)
				for _, o := range objs {
					r.DrawObject(tm, o)
				}
				r.Comp.ClearClipLines()
				r.Comp.SetActiveDirectionMask(uint8(maplib.AllRibi))
			}
		}
	}
}

// pushSlopeClip adds clip lines along the back edges of neighbors that
// rise above tile (x, y), so they cover objects standing behind them.
func (r *IsoRenderer) pushSlopeClip(tm *maplib.TileMap, x, y int) {
	occ := tm.Occluders(x, y)
	r.Comp.ClearClipLines()
	r.Comp.SetActiveDirectionMask(uint8(occ))
	cam := r.Camera
	if occ&maplib.South != 0 {
		top := tm.At(x, y+1).Top()
		// back right edge of the south tile, traversed up-left: hides
		// what lies below-left of it
		ax, ay := cam.TileOrigin(x, y+1, top)
		bx, by := cam.TileOrigin(x+1, y+1, top)
		r.Comp.PushClipLine(bx, by, ax, ay, uint8(maplib.South), false)
	}
	if occ&maplib.East != 0 {
		top := tm.At(x+1, y).Top()
		// back left edge of the east tile, traversed down-left; below
		// its end the cliff face hides everything to the right
		ax, ay := cam.TileOrigin(x+1, y, top)
		bx, by := cam.TileOrigin(x+1, y+1, top)
		r.Comp.PushClipLine(ax, ay, bx, by, uint8(maplib.East), true)
	}
}
