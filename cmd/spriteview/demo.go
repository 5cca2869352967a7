package main

import (
	"bytes"
	"image/color"
	"math"

	"golang.org/x/image/colornames"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/maplib"
	"github.com/1siamBot/spritecomp/engine/pak"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/render"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

const (
	demoVariants = 3
	MapSize      = 48
)

var terrainColors = map[maplib.TerrainType]color.RGBA{
	maplib.TerrainGrass:  colornames.Forestgreen,
	maplib.TerrainDirt:   colornames.Sienna,
	maplib.TerrainSand:   colornames.Sandybrown,
	maplib.TerrainWater:  colornames.Steelblue,
	maplib.TerrainRock:   colornames.Slategray,
	maplib.TerrainRoad:   colornames.Dimgray,
	maplib.TerrainSnow:   colornames.Snow,
	maplib.TerrainForest: colornames.Darkgreen,
}

var demoSlopes = []maplib.Slope{
	maplib.Flat,
	maplib.SlopeUp(maplib.North), maplib.SlopeUp(maplib.East),
	maplib.SlopeUp(maplib.South), maplib.SlopeUp(maplib.West),
}

func shade(c color.RGBA, f float64) uint16 {
	s := func(v uint8) uint8 { return uint8(min(255, math.Round(float64(v)*f))) }
	return palette.Word(s(c.R), s(c.G), s(c.B))
}

// sign of the cross product of (b-a) and (p-a)
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func inTriangle(ax, ay, bx, by, cx, cy, px, py float64) bool {
	d1 := edge(ax, ay, bx, by, px, py)
	d2 := edge(bx, by, cx, cy, px, py)
	d3 := edge(cx, cy, ax, ay, px, py)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// terrainSprite rasterizes one ground diamond. The origin is the tile's
// north corner at ground level.
func terrainSprite(tm *maplib.TileMap, t maplib.TerrainType, slope maplib.Slope, variant int) pak.Entry {
	tw, th, hs := tm.TileWidth, tm.TileHeight, tm.HeightStep
	lift := func(c maplib.Slope) float64 {
		if slope&c != 0 {
			return float64(hs)
		}
		return 0
	}
	// corners relative to the top left of the raster
	nx, ny := float64(tw)/2, float64(hs)-lift(maplib.CornerN)
	ex, ey := float64(tw), float64(hs+th/2)-lift(maplib.CornerE)
	sx, sy := float64(tw)/2, float64(hs+th)-lift(maplib.CornerS)
	wx, wy := 0.0, float64(hs+th/2)-lift(maplib.CornerW)

	light := 1.0
	switch slope.Rises() {
	case maplib.North, maplib.West:
		light = 1.15
	case maplib.South, maplib.East:
		light = 0.75
	}
	base := terrainColors[t]
	jitter := 1 + 0.04*float64(variant-1)

	r := codec.NewRaster(tw, th+hs)
	for y := 0; y < th+hs; y++ {
		for x := 0; x < tw; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			right := inTriangle(nx, ny, ex, ey, sx, sy, px, py)
			left := inTriangle(nx, ny, sx, sy, wx, wy, px, py)
			if !right && !left {
				continue
			}
			f := light * jitter
			if (x+y+variant)%7 == 0 {
				f *= 0.92
			}
			r.Set(x, y, shade(base, f))
		}
	}
	return pak.Entry{
		Name:     render.TerrainName(t, slope, variant),
		Geometry: sprite.Geometry{X: -tw / 2, Y: -hs, W: tw, H: th + hs},
		Zoomable: true,
		Data:     codec.Encode(r),
	}
}

func tankSprite() pak.Entry {
	const w, h = 24, 14
	r := codec.NewRaster(w, h)
	for y := 4; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x-w/2)+0.5, float64(y-9)+0.5
			if dx*dx/144+dy*dy/25 <= 1 {
				r.Set(x, y, palette.PlayerBase+uint16(7*(y-4)/(h-4)))
			}
		}
	}
	// turret in the second band
	for y := 0; y < 6; y++ {
		for x := 8; x < 16; x++ {
			r.Set(x, y, palette.PlayerBase+8+uint16(y))
		}
	}
	for x := 16; x < 22; x++ {
		r.Set(x, 2, palette.Word(40, 40, 40))
	}
	return pak.Entry{Name: "tank", Geometry: sprite.Geometry{X: -w / 2, Y: -h + 3, W: w, H: h}, Zoomable: true, Data: codec.Encode(r)}
}

func towerSprite() pak.Entry {
	const w, h = 8, 40
	r := codec.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := palette.Word(160, 160, 168)
			if x >= w/2 {
				c = palette.Word(104, 104, 112)
			}
			r.Set(x, y, c)
		}
	}
	return pak.Entry{Name: "tower", Geometry: sprite.Geometry{X: -w / 2, Y: -h + 2, W: w, H: h}, Zoomable: true, Data: codec.Encode(r)}
}

func treeSprite() pak.Entry {
	const w, h = 16, 24
	r := codec.NewRaster(w, h)
	for y := 0; y < 18; y++ {
		half := (y + 2) / 2
		for x := w/2 - half; x < w/2+half; x++ {
			r.Set(x, y, shade(colornames.Darkolivegreen, 0.8+0.02*float64(y)))
		}
	}
	for y := 18; y < h; y++ {
		r.Set(w/2-1, y, shade(colornames.Saddlebrown, 1))
		r.Set(w/2, y, shade(colornames.Saddlebrown, 0.8))
	}
	return pak.Entry{Name: "tree", Geometry: sprite.Geometry{X: -w / 2, Y: -h + 2, W: w, H: h}, Zoomable: true, Data: codec.Encode(r)}
}

func lampSprite() pak.Entry {
	const w, h = 6, 22
	r := codec.NewRaster(w, h)
	for y := 0; y < 4; y++ {
		for x := 1; x < 5; x++ {
			r.Set(x, y, palette.LightBase+uint16(y))
		}
	}
	for y := 4; y < h; y++ {
		r.Set(2, y, palette.Word(56, 56, 56))
		r.Set(3, y, palette.Word(40, 40, 40))
	}
	return pak.Entry{Name: "lamp", Geometry: sprite.Geometry{X: -w / 2, Y: -h + 1, W: w, H: h}, Zoomable: true, Data: codec.Encode(r)}
}

// markerSprite is the hover cursor; it keeps its size at every zoom
func markerSprite() pak.Entry {
	const n = 9
	r := codec.NewRaster(n, n)
	for i := 0; i < n; i++ {
		r.Set(i, n/2, palette.Word(255, 255, 0))
		r.Set(n/2, i, palette.Word(255, 255, 0))
	}
	return pak.Entry{Name: "marker", Geometry: sprite.Geometry{X: -n / 2, Y: -n / 2, W: n, H: n}, Data: codec.Encode(r)}
}

// demoPak builds a pack with ground sprites for every terrain and simple
// slope plus a handful of objects.
func demoPak(tm *maplib.TileMap) ([]byte, error) {
	var entries []pak.Entry
	for _, t := range maplib.Terrains() {
		for _, s := range demoSlopes {
			for v := 0; v < demoVariants; v++ {
				entries = append(entries, terrainSprite(tm, t, s, v))
			}
		}
	}
	entries = append(entries, tankSprite(), towerSprite(), treeSprite(), lampSprite(), markerSprite())
	var buf bytes.Buffer
	if err := pak.Write(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// generateDemoMap creates a demo map with varied terrain and a plateau
func generateDemoMap() *maplib.TileMap {
	tm := maplib.NewTileMap("Demo Valley", MapSize, MapSize)

	// River through the middle
	for x := 0; x < MapSize; x++ {
		y := MapSize/2 + int(3*math.Sin(float64(x)*0.15))
		tm.SetTerrain(x, y-1, x, y+1, maplib.TerrainWater)
	}

	forests := [][4]int{{5, 5, 12, 10}, {30, 6, 38, 12}, {14, 34, 22, 40}}
	for _, f := range forests {
		tm.SetTerrain(f[0], f[1], f[2], f[3], maplib.TerrainForest)
	}

	// Roads
	for x := 0; x < MapSize; x++ {
		tm.SetTerrain(x, MapSize/4, x, MapSize/4, maplib.TerrainRoad)
	}
	for y := 0; y < MapSize; y++ {
		tm.SetTerrain(MapSize/4, y, MapSize/4, y, maplib.TerrainRoad)
	}

	tm.SetTerrain(36, 36, 46, 46, maplib.TerrainSand)
	tm.SetTerrain(18, 16, 22, 20, maplib.TerrainDirt)

	// Rocky plateau with a snowy peak
	tm.SetTerrain(27, 27, 33, 33, maplib.TerrainRock)
	tm.Raise(28, 28, 32, 32)
	tm.SetTerrain(29, 29, 31, 31, maplib.TerrainSnow)
	tm.Raise(29, 29, 31, 31)
	return tm
}

func demoObjects() []render.Object {
	objs := []render.Object{
		{Sprite: "tank", X: 10, Y: 14, Player: 0},
		{Sprite: "tank", X: 11, Y: 14, Player: 0},
		{Sprite: "tank", X: 12, Y: 15, Player: 0},
		{Sprite: "tank", X: 34, Y: 30, Player: 1},
		{Sprite: "tank", X: 30, Y: 34, Player: 1},
		{Sprite: "tower", X: 30, Y: 30},
		{Sprite: "tower", X: 19, Y: 18},
		{Sprite: "lamp", X: MapSize/4 + 1, Y: MapSize/4 + 1},
		{Sprite: "lamp", X: MapSize/4 - 1, Y: MapSize/4 + 6},
	}
	for _, f := range [][2]int{{6, 6}, {8, 7}, {10, 9}, {32, 8}, {35, 10}, {16, 36}, {20, 38}} {
		objs = append(objs, render.Object{Sprite: "tree", X: f[0], Y: f[1]})
	}
	for i := range objs {
		if objs[i].Sprite != "tank" {
			objs[i].Player = render.NoPlayer
		}
	}
	return objs
}
