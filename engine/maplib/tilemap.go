package maplib

import (
	"encoding/json"
	"os"
)

// TerrainType defines the terrain of a tile
type TerrainType uint8

const (
	TerrainGrass TerrainType = iota
	TerrainDirt
	TerrainSand
	TerrainWater
	TerrainRock
	TerrainRoad
	TerrainSnow
	TerrainForest
	terrainCount
)

var terrainNames = [terrainCount]string{
	"grass", "dirt", "sand", "water", "rock", "road", "snow", "forest",
}

// String returns the asset name of the terrain
func (t TerrainType) String() string {
	if t < terrainCount {
		return terrainNames[t]
	}
	return "unknown"
}

// Terrains lists every terrain type
func Terrains() []TerrainType {
	out := make([]TerrainType, terrainCount)
	for i := range out {
		out[i] = TerrainType(i)
	}
	return out
}

// Tile represents a single map tile
type Tile struct {
	Terrain     TerrainType `json:"terrain"`
	Height      int8        `json:"height"` // ground level of the lowest corner (0-7)
	Slope       Slope       `json:"slope"`
	TileVariant uint8       `json:"variant"` // visual variant index
}

// Top returns the height of the tile's highest corner
func (t *Tile) Top() int {
	if t.Slope != Flat {
		return int(t.Height) + 1
	}
	return int(t.Height)
}

// TileMap represents the map
type TileMap struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`

	Description string `json:"description"`

	// Isometric rendering constants
	TileWidth  int `json:"tile_width"`  // pixel width of a tile (default 64)
	TileHeight int `json:"tile_height"` // pixel height of a tile (default 32)
	HeightStep int `json:"height_step"` // pixels per height level (default 8)
}

// NewTileMap creates a new flat grass map
func NewTileMap(name string, width, height int) *TileMap {
	tm := &TileMap{
		Name:       name,
		Width:      width,
		Height:     height,
		Tiles:      make([]Tile, width*height),
		TileWidth:  64,
		TileHeight: 32,
		HeightStep: 8,
	}
	for i := range tm.Tiles {
		tm.Tiles[i] = Tile{Terrain: TerrainGrass}
	}
	return tm
}

// At returns a pointer to the tile at (x, y)
func (tm *TileMap) At(x, y int) *Tile {
	if x < 0 || y < 0 || x >= tm.Width || y >= tm.Height {
		return nil
	}
	return &tm.Tiles[y*tm.Width+x]
}

// InBounds checks if coordinates are within map bounds
func (tm *TileMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < tm.Width && y < tm.Height
}

// Neighbor returns the tile one step from (x, y) in direction r, which
// must be a single direction.
func (tm *TileMap) Neighbor(x, y int, r Ribi) *Tile {
	dx, dy := r.Delta()
	return tm.At(x+dx, y+dy)
}

// Occluders returns the directions in which a neighboring tile rises
// above the top of (x, y). Only south and east can cover objects drawn
// on the tile.
func (tm *TileMap) Occluders(x, y int) Ribi {
	t := tm.At(x, y)
	if t == nil {
		return 0
	}
	var out Ribi
	for _, r := range []Ribi{South, East} {
		if n := tm.Neighbor(x, y, r); n != nil && n.Top() > t.Top() {
			out |= r
		}
	}
	return out
}

// WorldToIso converts world tile coords to isometric screen coords
func (tm *TileMap) WorldToIso(wx, wy float64) (sx, sy float64) {
	tw := float64(tm.TileWidth)
	th := float64(tm.TileHeight)
	sx = (wx - wy) * (tw / 2)
	sy = (wx + wy) * (th / 2)
	return
}

// IsoToWorld converts isometric screen coords to world tile coords
func (tm *TileMap) IsoToWorld(sx, sy float64) (wx, wy float64) {
	tw := float64(tm.TileWidth)
	th := float64(tm.TileHeight)
	wx = (sx/tw + sy/th)
	wy = (sy/th - sx/tw)
	return
}

// SaveJSON saves the map to a JSON file
func (tm *TileMap) SaveJSON(path string) error {
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadJSON loads a map from a JSON file
func LoadJSON(path string) (*TileMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tm TileMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, err
	}
	return &tm, nil
}

// SetTerrain sets terrain for a rectangular region
func (tm *TileMap) SetTerrain(x1, y1, x2, y2 int, terrain TerrainType) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if t := tm.At(x, y); t != nil {
				t.Terrain = terrain
			}
		}
	}
}

// Raise lifts the rectangle (x1,y1)-(x2,y2) by one level and slopes its
// rim down to the surrounding ground.
func (tm *TileMap) Raise(x1, y1, x2, y2 int) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if t := tm.At(x, y); t != nil && t.Height < 7 {
				t.Height++
				t.Slope = Flat
			}
		}
	}
	for y := y1 - 1; y <= y2+1; y++ {
		for x := x1 - 1; x <= x2+1; x++ {
			if x >= x1 && x <= x2 && y >= y1 && y <= y2 {
				continue
			}
			t := tm.At(x, y)
			if t == nil {
				continue
			}
			var up Ribi
			if y == y1-1 && x >= x1 && x <= x2 {
				up |= South
			}
			if y == y2+1 && x >= x1 && x <= x2 {
				up |= North
			}
			if x == x1-1 && y >= y1 && y <= y2 {
				up |= East
			}
			if x == x2+1 && y >= y1 && y <= y2 {
				up |= West
			}
			if up.IsSingle() {
				t.Slope = SlopeUp(up)
			}
		}
	}
}
