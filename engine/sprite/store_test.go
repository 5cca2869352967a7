package sprite

import (
	"context"
	"errors"
	"testing"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/rezoom"
)

func solid(w, h int, v uint16) []uint16 {
	r := codec.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.Set(x, y, v)
		}
	}
	return codec.Encode(r)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(palette.NewTables(palette.RGB565))
}

func TestRegisterValidates(t *testing.T) {
	s := newStore(t)
	if _, err := s.RegisterWords(Geometry{W: 0, H: 4}, nil, true); !errors.Is(err, ErrEmptySprite) {
		t.Fatalf("zero width: %v", err)
	}
	if _, err := s.RegisterWords(Geometry{W: 2, H: 1}, []uint16{0, 3, 1, 1, 1, 0, 0}, true); !errors.Is(err, codec.ErrMalformed) {
		t.Fatalf("overlong run: %v", err)
	}
	if _, err := s.Register(Geometry{W: 1, H: 1}, []byte{1, 2, 3}, true); !errors.Is(err, codec.ErrMalformed) {
		t.Fatalf("odd bytes: %v", err)
	}
	id, err := s.Register(Geometry{W: 2, H: 2}, codec.ToBytes(solid(2, 2, palette.Word(255, 0, 0))), true)
	if err != nil || id != 0 {
		t.Fatalf("register: id=%d err=%v", id, err)
	}
	id, _ = s.RegisterWords(Geometry{W: 1, H: 1}, solid(1, 1, palette.PlayerBase+3), false)
	if id != 1 {
		t.Fatalf("second id %d", id)
	}
	sp, _ := s.Get(1)
	if info := sp.Info(); info.Flags&HasPlayerColor == 0 || info.Flags&Zoomable != 0 {
		t.Fatalf("flags %v", info.Flags)
	}
	if _, err := s.Get(7); !errors.Is(err, ErrUnknownSprite) {
		t.Fatalf("get unknown: %v", err)
	}
}

func TestSetBaseOffsetOnce(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{W: 4, H: 4}, solid(4, 4, 0x1234), true)
	if err := s.SetBaseOffset(id, 2, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBaseOffset(id, 1, 1); !errors.Is(err, ErrPositionLocked) {
		t.Fatalf("second adjust: %v", err)
	}
	v, _ := s.Zoomed(id)
	if v.X != 2 || v.Y != 2 {
		t.Fatalf("offset %d,%d", v.X, v.Y)
	}
}

func TestZoomCacheReused(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{X: 2, Y: 2, W: 4, H: 4}, solid(4, 4, palette.Word(255, 0, 0)), true)
	if err := s.SetFactor(rezoom.Factor{Num: 1, Den: 2}); err != nil {
		t.Fatal(err)
	}
	f, _ := s.Flags(id)
	if f&NeedsRezoom == 0 || f&NeedsRecode == 0 {
		t.Fatalf("fresh sprite flags %v", f)
	}
	v, err := s.Rendered(id)
	if err != nil {
		t.Fatal(err)
	}
	if v.Geometry != (Geometry{X: 1, Y: 1, W: 2, H: 2}) {
		t.Fatalf("zoomed geometry %+v", v.Geometry)
	}
	s.Rendered(id)
	s.Zoomed(id)
	if st := s.Stats(); st.Rezooms != 1 || st.Recodes != 1 {
		t.Fatalf("stats after reuse %+v", st)
	}
	if f, _ := s.Flags(id); f&(NeedsRezoom|NeedsRecode) != 0 {
		t.Fatalf("flags after build %v", f)
	}

	// same ratio spelled differently keeps the cache
	s.SetFactor(rezoom.Factor{Num: 2, Den: 4})
	s.Rendered(id)
	if st := s.Stats(); st.Rezooms != 1 {
		t.Fatalf("equivalent factor rezoomed: %+v", st)
	}

	s.SetFactor(rezoom.Factor{Num: 3, Den: 4})
	s.Rendered(id)
	if st := s.Stats(); st.Rezooms != 2 || st.Recodes != 2 {
		t.Fatalf("stats after factor change %+v", st)
	}
}

func TestPaletteChangeRecodesOnly(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{W: 3, H: 3}, solid(3, 3, palette.Word(200, 200, 200)), true)
	s.SetFactor(rezoom.Factor{Num: 1, Den: 2})
	before, _ := s.Rendered(id)
	s.Tables().SetNightShift(2)
	after, _ := s.Rendered(id)
	if st := s.Stats(); st.Rezooms != 1 || st.Recodes != 2 {
		t.Fatalf("stats %+v", st)
	}
	if before.Data[2] == after.Data[2] {
		t.Fatal("night shift did not change pixels")
	}
}

func TestOffsetChangeInvalidatesRecode(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{W: 4, H: 4}, solid(4, 4, 0x7FFF), true)
	s.SetFactor(rezoom.Factor{Num: 1, Den: 2})
	s.Rendered(id)
	s.SetBaseOffset(id, 1, 0)
	v, _ := s.Rendered(id)
	if st := s.Stats(); st.Rezooms != 2 || st.Recodes != 2 {
		t.Fatalf("stats %+v", st)
	}
	if v.W != 3 {
		t.Fatalf("width after odd offset %d", v.W)
	}
}

func TestNonZoomableKeepsBase(t *testing.T) {
	s := newStore(t)
	data := solid(5, 3, 0x0421)
	id, _ := s.RegisterWords(Geometry{X: 7, Y: -1, W: 5, H: 3}, data, false)
	s.SetFactor(rezoom.Factor{Num: 1, Den: 4})
	v, _ := s.Zoomed(id)
	if v.Geometry != (Geometry{X: 7, Y: -1, W: 5, H: 3}) || &v.Data[0] != &data[0] {
		t.Fatalf("non-zoomable sprite was resampled: %+v", v.Geometry)
	}
	if st := s.Stats(); st.Rezooms != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestNonZoomableSurvivesZoomChange(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{W: 4, H: 2}, solid(4, 2, 0x0421), false)
	if _, err := s.Rendered(id); err != nil {
		t.Fatal(err)
	}
	s.SetFactor(rezoom.Factor{Num: 1, Den: 2})
	s.InvalidateZoom()
	if _, err := s.Rendered(id); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Recodes != 1 || st.Rezooms != 0 {
		t.Fatalf("zoom change recoded a non-zoomable sprite: %+v", st)
	}

	// a new offset is new base geometry
	if err := s.SetBaseOffset(id, 1, 0); err != nil {
		t.Fatal(err)
	}
	v, _ := s.Rendered(id)
	if v.X != 1 || s.Stats().Recodes != 2 {
		t.Fatalf("offset change: %+v stats %+v", v.Geometry, s.Stats())
	}
}

func TestPlayerCacheTagged(t *testing.T) {
	s := newStore(t)
	tab := s.Tables()
	tab.SetPlayerColors(1, palette.Assignment{Color1: 4, Color2: 5})
	tab.SetPlayerColors(2, palette.Assignment{Color1: 9, Color2: 10})
	id, _ := s.RegisterWords(Geometry{W: 2, H: 1}, solid(2, 1, palette.PlayerBase+2), false)

	v1, _ := s.ForPlayer(id, 1, false)
	v1b, _ := s.ForPlayer(id, 1, false)
	if st := s.Stats(); st.PlayerRecodes != 1 {
		t.Fatalf("repeat draw recoded: %+v", st)
	}
	v2, _ := s.ForPlayer(id, 2, false)
	if st := s.Stats(); st.PlayerRecodes != 2 {
		t.Fatalf("player switch not recoded: %+v", st)
	}
	if v1.Data[2] != v1b.Data[2] || v1.Data[2] == v2.Data[2] {
		t.Fatalf("player pixels %#04x %#04x", v1.Data[2], v2.Data[2])
	}
	if want := tab.Special(4*palette.BandShades+2, true); v1.Data[2] != want {
		t.Fatalf("player 1 pixel %#04x want %#04x", v1.Data[2], want)
	}
	s.ForPlayer(id, 2, true)
	if st := s.Stats(); st.PlayerRecodes != 3 {
		t.Fatalf("all-day switch not recoded: %+v", st)
	}
}

func TestPlainSpriteSharesRenderCache(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{W: 2, H: 2}, solid(2, 2, 0x1111), false)
	r, _ := s.Rendered(id)
	p, _ := s.ForPlayer(id, 3, false)
	if &r.Data[0] != &p.Data[0] {
		t.Fatal("plain sprite did not reuse render cache")
	}
	if st := s.Stats(); st.PlayerRecodes != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestEmptyAfterZoom(t *testing.T) {
	s := newStore(t)
	r := codec.NewRaster(4, 4)
	id, _ := s.RegisterWords(Geometry{W: 4, H: 4}, codec.Encode(r), true)
	s.SetFactor(rezoom.Factor{Num: 1, Den: 2})
	v, err := s.Rendered(id)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Empty() {
		t.Fatalf("transparent sprite zoomed to %+v", v.Geometry)
	}
}

func TestFreeFrom(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 5; i++ {
		s.RegisterWords(Geometry{W: 1, H: 1}, solid(1, 1, uint16(i)), true)
	}
	s.FreeFrom(2)
	if s.Len() != 2 {
		t.Fatalf("len %d", s.Len())
	}
	if _, err := s.Rendered(3); !errors.Is(err, ErrUnknownSprite) {
		t.Fatalf("freed sprite: %v", err)
	}
	id, _ := s.RegisterWords(Geometry{W: 1, H: 1}, solid(1, 1, 9), true)
	if id != 2 {
		t.Fatalf("id after free %d", id)
	}
	s.FreeFrom(10)
	if s.Len() != 3 {
		t.Fatalf("len after no-op free %d", s.Len())
	}
}

func TestPrewarm(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 64; i++ {
		s.RegisterWords(Geometry{X: i % 3, W: 8, H: 6}, solid(8, 6, uint16(i*97)), i%4 != 0)
	}
	s.SetFactor(rezoom.Factor{Num: 3, Den: 8})
	if err := s.Prewarm(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Rezooms != 48 || st.Recodes != 64 {
		t.Fatalf("stats %+v", st)
	}
	for i := 0; i < 64; i++ {
		if f, _ := s.Flags(ID(i)); f&(NeedsRezoom|NeedsRecode) != 0 {
			t.Fatalf("sprite %d still stale: %v", i, f)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.SetFactor(rezoom.Factor{Num: 1, Den: 4})
	if err := s.Prewarm(ctx, 4); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled prewarm: %v", err)
	}
}

func TestPrewarmReportsSuccess(t *testing.T) {
	s := newStore(t)
	id, _ := s.RegisterWords(Geometry{W: 8, H: 6}, solid(8, 6, 0x7C00), true)
	s.SetFactor(rezoom.Factor{Num: 1, Den: 2})
	if err := s.Prewarm(context.Background(), 2); err != nil {
		t.Fatalf("prewarm: %v", err)
	}
	if f, _ := s.Flags(id); f&(NeedsRezoom|NeedsRecode) != 0 {
		t.Fatalf("stale after prewarm: %v", f)
	}
	if st := s.Stats(); st.Rezooms != 1 || st.Recodes != 1 {
		t.Fatalf("stats %+v", st)
	}
}

func TestSetFactorRejectsInvalid(t *testing.T) {
	s := newStore(t)
	if err := s.SetFactor(rezoom.Factor{Num: 5, Den: 1}); !errors.Is(err, rezoom.ErrFactor) {
		t.Fatalf("err %v", err)
	}
	if s.Factor() != rezoom.Identity {
		t.Fatalf("factor changed to %v", s.Factor())
	}
}
