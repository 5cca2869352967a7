package render

import (
	"math"
	"testing"

	"github.com/1siamBot/spritecomp/engine/maplib"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/rezoom"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

func TestCatalogTerrainVariants(t *testing.T) {
	cat := NewCatalog()
	cat.AddAll([]string{
		TerrainName(maplib.TerrainGrass, maplib.Flat, 0),
		TerrainName(maplib.TerrainGrass, maplib.Flat, 1),
		TerrainName(maplib.TerrainGrass, maplib.SlopeUp(maplib.North), 0),
		"tree",
		"terrain/lava/0/0",
	}, 10)

	if id, ok := cat.Lookup("tree"); !ok || id != 13 {
		t.Fatalf("tree -> %d %v", id, ok)
	}
	seen := map[sprite.ID]bool{}
	for i := 0; i < 16; i++ {
		x, y := i%4, i/4
		id, ok := cat.TerrainVariant(maplib.TerrainGrass, maplib.Flat, x, y)
		if !ok || (id != 10 && id != 11) {
			t.Fatalf("variant %d %v", id, ok)
		}
		again, _ := cat.TerrainVariant(maplib.TerrainGrass, maplib.Flat, x, y)
		if again != id {
			t.Fatal("variant choice not deterministic")
		}
		seen[id] = true
	}
	if len(seen) != 2 {
		t.Fatalf("variants used %v", seen)
	}
	if id, _ := cat.TerrainVariant(maplib.TerrainGrass, maplib.SlopeUp(maplib.North), 0, 0); id != 12 {
		t.Fatalf("slope sprite %d", id)
	}
	if id, ok := cat.TerrainVariant(maplib.TerrainGrass, maplib.SlopeUp(maplib.West), 0, 0); !ok || (id != 10 && id != 11) {
		t.Fatalf("missing slope did not fall back: %d %v", id, ok)
	}
	if _, ok := cat.TerrainVariant(maplib.TerrainSnow, maplib.Flat, 0, 0); ok {
		t.Fatal("unknown terrain found")
	}
}

func TestCameraRoundTrip(t *testing.T) {
	cam := NewCamera(320, 200)
	cam.CenterOn(10, 6)
	for _, z := range []rezoom.Factor{{Num: 1, Den: 1}, {Num: 1, Den: 2}, {Num: 3, Den: 2}} {
		cam.Zoom = z
		sx, sy := cam.WorldToScreen(12, 5)
		wx, wy := cam.ScreenToWorld(sx, sy)
		if math.Abs(wx-12) > 0.1 || math.Abs(wy-5) > 0.1 {
			t.Fatalf("zoom %v: (12,5) -> (%d,%d) -> (%.2f,%.2f)", z, sx, sy, wx, wy)
		}
	}
	cam.Zoom = rezoom.Factor{Num: 1, Den: 2}
	x0, y0 := cam.TileOrigin(10, 6, 0)
	x1, y1 := cam.TileOrigin(11, 6, 0)
	if x0 != 160 || y0 != 100 || x1-x0 != 16 || y1-y0 != 8 {
		t.Fatalf("tile origins (%d,%d) (%d,%d)", x0, y0, x1, y1)
	}
}

// occlusionScene stands an 8x40 tower, anchored at its bottom center, on
// tile (1,1) of a flat 4x4 map.
func occlusionScene(t *testing.T) (*IsoRenderer, *frame, *maplib.TileMap, []Object) {
	t.Helper()
	c, fr, _ := setup(t, palette.RGB565, 200, 200, 200)
	id, err := c.RegisterSprite(sprite.Geometry{X: -4, Y: -40, W: 8, H: 40}, solidBytes(8, 40, palette.Word(0, 255, 0)), true)
	if err != nil {
		t.Fatal(err)
	}
	cat := NewCatalog()
	cat.Add("tower", id)
	r := NewIsoRenderer(c, cat, 200, 200)
	tm := maplib.NewTileMap("t", 4, 4)
	return r, fr, tm, []Object{{Sprite: "tower", X: 1, Y: 1, Player: NoPlayer}}
}

func TestTowerUnoccluded(t *testing.T) {
	r, fr, tm, objs := occlusionScene(t)
	r.DrawMap(tm, objs)
	for _, p := range [][2]int{{100, 146}, {96, 108}, {103, 147}} {
		if fr.at(p[0], p[1]) == r.Background {
			t.Fatalf("tower pixel %v not drawn", p)
		}
	}
	if fr.at(100, 148) != r.Background || fr.at(104, 140) != r.Background {
		t.Fatal("drew outside tower")
	}
}

func TestSouthSlopeHidesTowerBase(t *testing.T) {
	r, fr, tm, objs := occlusionScene(t)
	tm.At(1, 2).Height = 3
	r.DrawMap(tm, objs)
	if fr.at(100, 146) != r.Background {
		t.Fatal("base in front of the ridge drawn")
	}
	if fr.at(100, 120) == r.Background || fr.at(100, 140) == r.Background {
		t.Fatal("top of tower hidden")
	}
	if fr.at(99, 140) != r.Background {
		t.Fatal("pixel left of the ridge drawn")
	}
}

func TestEastCliffHidesRightHalf(t *testing.T) {
	r, fr, tm, objs := occlusionScene(t)
	tm.At(2, 1).Height = 3
	r.DrawMap(tm, objs)
	if fr.at(100, 146) != r.Background {
		t.Fatal("right half below the ridge drawn")
	}
	if fr.at(99, 146) == r.Background || fr.at(103, 130) == r.Background {
		t.Fatal("visible tower part hidden")
	}
	if fr.at(102, 139) != r.Background {
		t.Fatal("pixel behind the ridge line drawn")
	}
}

func TestSelectedAndGhostObjects(t *testing.T) {
	r, fr, tm, objs := occlusionScene(t)
	r.DrawMap(tm, objs)
	plain := fr.at(100, 130)

	objs[0].Selected = true
	r.DrawMap(tm, objs)
	if got := fr.at(100, 130); got == plain || got == r.Background {
		t.Fatalf("selected pixel %#04x plain %#04x", got, plain)
	}

	objs[0].Selected, objs[0].Ghost = false, true
	r.DrawMap(tm, objs)
	if got := fr.at(100, 130); got == plain || got == r.Background {
		t.Fatalf("ghost pixel %#04x", got)
	}
	if r.DrawObject(tm, Object{Sprite: "missing"}) {
		t.Fatal("unknown object drawn")
	}
}

func TestIsoZoomStepsCamera(t *testing.T) {
	r, _, _, _ := occlusionScene(t)
	if f := r.ZoomOut(); r.Camera.Zoom != f || f != (rezoom.Factor{Num: 3, Den: 4}) {
		t.Fatalf("camera zoom %v compositor %v", r.Camera.Zoom, f)
	}
	if f := r.ZoomIn(); f != rezoom.Identity || r.Comp.Zoom() != rezoom.Identity {
		t.Fatalf("zoom back %v", f)
	}
}
