package palette

import "testing"

func TestPackUnpackExtremes(t *testing.T) {
	for _, f := range []Format{RGB565, RGB555} {
		if got := f.Pack(255, 255, 255); f == RGB565 && got != 0xFFFF || f == RGB555 && got != 0x7FFF {
			t.Fatalf("%s: white packed to %#04x", f, got)
		}
		r, g, b := f.Unpack(f.Pack(255, 0, 255))
		if r != 255 || g != 0 || b != 255 {
			t.Fatalf("%s: magenta round trip got %d,%d,%d", f, r, g, b)
		}
	}
}

func TestDayTableIsIdentityColor(t *testing.T) {
	tb := NewTables(RGB565)
	w := Word(248, 0, 0)
	if got, want := tb.dayNight[w], RGB565.Pack(255, 0, 0); got != want {
		t.Fatalf("red at day: got %#04x want %#04x", got, want)
	}
}

func TestNightDarkensButKeepsLights(t *testing.T) {
	tb := NewTables(RGB555)
	w := Word(200, 200, 200)
	day := tb.dayNight[w]
	light := tb.dayNight[LightBase]
	e := tb.Epoch()

	tb.SetNightShift(3)
	if tb.Epoch() == e {
		t.Fatal("night shift did not bump epoch")
	}
	if tb.dayNight[w] >= day {
		t.Fatalf("night color %#04x not darker than day %#04x", tb.dayNight[w], day)
	}
	if tb.allDay[w] != day {
		t.Fatalf("all-day table changed at night: %#04x vs %#04x", tb.allDay[w], day)
	}
	if tb.dayNight[LightBase] != light {
		t.Fatal("light color darkened at night")
	}
	r, _, b := RGB555.Unpack(tb.dayNight[w])
	if b <= r {
		t.Fatalf("expected blue tint at night, r=%d b=%d", r, b)
	}
}

func TestNightShiftClampAndNoopEpoch(t *testing.T) {
	tb := NewTables(RGB565)
	tb.SetNightShift(99)
	if tb.NightShift() != MaxNightShift {
		t.Fatalf("night shift %d not clamped", tb.NightShift())
	}
	e := tb.Epoch()
	tb.SetNightShift(MaxNightShift)
	if tb.Epoch() != e {
		t.Fatal("unchanged night shift bumped epoch")
	}
}

func TestPlayerMapUsesAssignedBands(t *testing.T) {
	tb := NewTables(RGB565)
	if err := tb.SetPlayerColors(2, Assignment{Color1: 1, Color2: 5}); err != nil {
		t.Fatal(err)
	}
	m := tb.Map(2, false)
	if got, want := m.Lookup(PlayerBase+3), tb.SpecialAllDay[1*BandShades+3]; got != want {
		t.Fatalf("slot 3: got %#04x want %#04x", got, want)
	}
	if got, want := m.Lookup(PlayerBase+8), tb.SpecialAllDay[5*BandShades]; got != want {
		t.Fatalf("slot 8: got %#04x want %#04x", got, want)
	}
	lit := Word(0, 248, 0)
	if m.Lookup(lit) != tb.allDay[lit] {
		t.Fatal("literal color not looked up through base table")
	}
	if err := tb.SetPlayerColors(MaxPlayers, Assignment{}); err == nil {
		t.Fatal("expected range error")
	}
}

func TestActivePlayerFillsSharedTable(t *testing.T) {
	tb := NewTables(RGB565)
	tb.SetActivePlayer(4)
	a := tb.PlayerColors(4)
	if got, want := tb.dayNight[PlayerBase], tb.SpecialDayNight[int(a.Color1)*BandShades]; got != want {
		t.Fatalf("shared slot 0: got %#04x want %#04x", got, want)
	}
}
