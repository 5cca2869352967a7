package codec

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/1siamBot/spritecomp/engine/palette"
)

func randomRaster(rng *rand.Rand, w, h int) *Raster {
	r := NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.IntN(3) == 0 {
				continue
			}
			v := uint16(rng.IntN(0x8000))
			if rng.IntN(10) == 0 {
				v = palette.PlayerBase + uint16(rng.IntN(palette.PlayerSlots))
			}
			r.Set(x, y, v)
		}
	}
	return r
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		w, h := 1+rng.IntN(40), 1+rng.IntN(20)
		src := randomRaster(rng, w, h)
		data := Encode(src)
		got, err := Decode(data, w, h)
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if !got.Equal(src) {
			t.Fatalf("case %d: %dx%d raster changed across round trip", i, w, h)
		}
	}
}

func TestEncodeIsCanonical(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 9))
	for i := 0; i < 100; i++ {
		w, h := 1+rng.IntN(32), 1+rng.IntN(16)
		first := Encode(randomRaster(rng, w, h))
		dec, err := Decode(first, w, h)
		if err != nil {
			t.Fatal(err)
		}
		if second := Encode(dec); !slices.Equal(first, second) {
			t.Fatalf("case %d: encode not idempotent\n%v\n%v", i, first, second)
		}
		assertNoEmptyGroups(t, first, h)
	}
}

func assertNoEmptyGroups(t *testing.T, data []uint16, h int) {
	t.Helper()
	pos := 0
	for y := 0; y < h; y++ {
		first := true
		for {
			clear, n := data[pos], data[pos+1]
			pos += 2
			if n == 0 {
				if clear != 0 {
					t.Fatalf("line %d: terminator carries clear run %d", y, clear)
				}
				break
			}
			if clear == 0 && !first {
				t.Fatalf("line %d: zero clear run between colored runs", y)
			}
			first = false
			pos += int(n)
		}
	}
}

func TestEncodeKnownLines(t *testing.T) {
	r := NewRaster(5, 3)
	r.Set(0, 0, 1)
	r.Set(1, 0, 2)
	r.Set(3, 0, 3)
	r.Set(4, 2, 9)
	want := []uint16{
		0, 2, 1, 2, 1, 1, 3, 0, 0,
		0, 0,
		4, 1, 9, 0, 0,
	}
	if got := Encode(r); !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		data []uint16
		w, h int
	}{
		{"missing terminator", []uint16{0, 2, 1, 1}, 4, 1},
		{"truncated run", []uint16{0, 3, 1}, 4, 1},
		{"overflows width", []uint16{2, 3, 1, 1, 1, 0, 0}, 4, 1},
		{"too few lines", []uint16{0, 0}, 4, 2},
		{"trailing words", []uint16{0, 0, 5}, 4, 1},
		{"invalid special", []uint16{0, 1, 0xFFFF, 0, 0}, 4, 1},
		{"zero size", []uint16{}, 0, 0},
		{"wider than a run", []uint16{0, 0}, MaxWidth + 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.data, tc.w, tc.h)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestEncodeWidthLimit(t *testing.T) {
	r := NewRaster(MaxWidth, 1)
	r.Set(MaxWidth-1, 0, 7)
	got, err := Decode(Encode(r), MaxWidth, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := got.At(MaxWidth-1, 0); !ok || v != 7 {
		t.Fatalf("last pixel = %#04x opaque=%v", v, ok)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("encoded a raster wider than a run")
		}
	}()
	Encode(NewRaster(MaxWidth+1, 1))
}

func TestFromBytes(t *testing.T) {
	words, err := FromBytes([]byte{0x01, 0x00, 0x02, 0x80})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(words, []uint16{1, 0x8002}) {
		t.Fatalf("got %v", words)
	}
	if !slices.Equal(ToBytes(words), []byte{0x01, 0x00, 0x02, 0x80}) {
		t.Fatal("ToBytes mismatch")
	}
	if _, err := FromBytes([]byte{1}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("odd length: %v", err)
	}
}

func TestHasPlayerColor(t *testing.T) {
	r := NewRaster(3, 2)
	r.Set(1, 1, 0x1234)
	if HasPlayerColor(Encode(r), 2) {
		t.Fatal("plain sprite reported player color")
	}
	r.Set(2, 0, palette.PlayerBase+4)
	if !HasPlayerColor(Encode(r), 2) {
		t.Fatal("player slot not detected")
	}
}

func TestPixelsEarlyBreakAdvancesLine(t *testing.T) {
	r := NewRaster(4, 2)
	for x := 0; x < 4; x++ {
		r.Set(x, 0, uint16(x+1))
	}
	r.Set(2, 1, 42)
	rd := NewReader(Encode(r))
	for x := range rd.Pixels() {
		if x == 1 {
			break
		}
	}
	var got []int
	for x, v := range rd.Pixels() {
		got = append(got, x, int(v))
	}
	if !slices.Equal(got, []int{2, 42}) {
		t.Fatalf("second line decoded as %v", got)
	}
}
