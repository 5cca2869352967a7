package render

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/1siamBot/spritecomp/engine/maplib"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

// TerrainName is the catalog name of a ground sprite
func TerrainName(t maplib.TerrainType, slope maplib.Slope, variant int) string {
	return fmt.Sprintf("terrain/%s/%d/%d", t, slope, variant)
}

type terrainKey struct {
	terrain maplib.TerrainType
	slope   maplib.Slope
}

// Catalog names registered sprites. Ground sprites follow TerrainName;
// any other name is an object sprite.
type Catalog struct {
	byName  map[string]sprite.ID
	terrain map[terrainKey][]sprite.ID
}

// NewCatalog returns an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		byName:  make(map[string]sprite.ID),
		terrain: make(map[terrainKey][]sprite.ID),
	}
}

// Add records a sprite under name
func (c *Catalog) Add(name string, id sprite.ID) {
	c.byName[name] = id
	parts := strings.Split(name, "/")
	if len(parts) != 4 || parts[0] != "terrain" {
		return
	}
	t, ok := terrainByName(parts[1])
	slope, err1 := strconv.Atoi(parts[2])
	variant, err2 := strconv.Atoi(parts[3])
	if !ok || err1 != nil || err2 != nil || variant < 0 {
		log.Printf("Catalog: bad terrain sprite name %q", name)
		return
	}
	key := terrainKey{t, maplib.Slope(slope)}
	variants := c.terrain[key]
	for len(variants) <= variant {
		variants = append(variants, id)
	}
	variants[variant] = id
	c.terrain[key] = variants
}

// AddAll records names[i] as sprite first+i
func (c *Catalog) AddAll(names []string, first sprite.ID) {
	for i, n := range names {
		c.Add(n, first+sprite.ID(i))
	}
	log.Printf("Catalog: %d sprites, %d terrain kinds", len(c.byName), len(c.terrain))
}

// Lookup returns the sprite registered under name
func (c *Catalog) Lookup(name string) (sprite.ID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// TerrainVariant returns a deterministic ground sprite for a tile. A
// sloped tile without its own sprite falls back to the flat one.
func (c *Catalog) TerrainVariant(t maplib.TerrainType, slope maplib.Slope, tileX, tileY int) (sprite.ID, bool) {
	variants, ok := c.terrain[terrainKey{t, slope}]
	if !ok && slope != maplib.Flat {
		variants, ok = c.terrain[terrainKey{t, maplib.Flat}]
	}
	if !ok || len(variants) == 0 {
		return 0, false
	}
	hash := uint(tileX*7919 + tileY*7927 + tileX*tileY*31)
	return variants[hash%uint(len(variants))], true
}

func terrainByName(name string) (maplib.TerrainType, bool) {
	for _, t := range maplib.Terrains() {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}
