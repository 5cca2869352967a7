package dirty

import (
	"image"
	"math/rand/v2"
	"testing"
)

func fresh(w, h int) *Tracker {
	t := New(w, h)
	t.EndFrame()
	t.EndFrame()
	return t
}

func coverage(rects []image.Rectangle, tw, th int) []int {
	seen := make([]int, tw*th)
	for _, r := range rects {
		for y := r.Min.Y >> TileShift; y <= (r.Max.Y-1)>>TileShift; y++ {
			for x := r.Min.X >> TileShift; x <= (r.Max.X-1)>>TileShift; x++ {
				seen[y*tw+x]++
			}
		}
	}
	return seen
}

func TestNewTrackerStartsFullyDirty(t *testing.T) {
	tr := New(40, 20)
	if tw, th := tr.Tiles(); tw != 3 || th != 2 {
		t.Fatalf("tiles %dx%d", tw, th)
	}
	rects := tr.EndFrame()
	if len(rects) != 2 || rects[0] != image.Rect(0, 0, 40, 16) || rects[1] != image.Rect(0, 16, 40, 20) {
		t.Fatalf("rects %v", rects)
	}
}

func TestMarkCoverageExactlyOnce(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 50; i++ {
		tr := fresh(200, 120)
		tw, th := tr.Tiles()
		want := make([]bool, tw*th)
		for j := 0; j < 1+rng.IntN(8); j++ {
			x1, y1 := rng.IntN(260)-30, rng.IntN(180)-30
			x2, y2 := x1+rng.IntN(60), y1+rng.IntN(60)
			tr.Mark(x1, y1, x2, y2)
			cx1, cy1 := max(x1, 0), max(y1, 0)
			cx2, cy2 := min(x2, 199), min(y2, 119)
			for y := cy1; y <= cy2; y++ {
				for x := cx1; x <= cx2; x++ {
					want[(y>>TileShift)*tw+x>>TileShift] = true
				}
			}
		}
		seen := coverage(tr.EndFrame(), tw, th)
		for k := range want {
			if want[k] && seen[k] != 1 || !want[k] && seen[k] != 0 {
				t.Fatalf("case %d tile %d: marked=%v reported %d times", i, k, want[k], seen[k])
			}
		}
	}
}

func TestPreviousFrameStaysDirtyOnce(t *testing.T) {
	tr := fresh(64, 64)
	tr.Mark(20, 20, 21, 21)
	if !tr.IsDirty(1, 1) {
		t.Fatal("marked tile not dirty")
	}
	if len(tr.EndFrame()) != 1 {
		t.Fatal("expected one rect")
	}
	if !tr.IsDirty(1, 1) {
		t.Fatal("vacated tile must stay dirty for one frame")
	}
	if got := tr.EndFrame(); len(got) != 1 || got[0] != image.Rect(16, 16, 32, 32) {
		t.Fatalf("second frame rects %v", got)
	}
	if got := tr.EndFrame(); len(got) != 0 {
		t.Fatalf("third frame rects %v", got)
	}
}

func TestRunsCoalesce(t *testing.T) {
	tr := fresh(128, 32)
	tr.Mark(0, 0, 47, 0)
	tr.Mark(96, 0, 100, 0)
	got := tr.EndFrame()
	want := []image.Rectangle{image.Rect(0, 0, 48, 16), image.Rect(96, 0, 112, 16)}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestMarkOutsideIgnored(t *testing.T) {
	tr := fresh(32, 32)
	tr.Mark(-10, -10, -1, -1)
	tr.Mark(40, 0, 50, 10)
	if got := tr.EndFrame(); len(got) != 0 {
		t.Fatalf("rects %v", got)
	}
}
