package palette

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/image/colornames"
)

// Source word layout. Words below PlayerBase are literal RGB555 colors.
const (
	PlayerBase  uint16 = 0x8000 // first player color slot
	PlayerSlots        = 16     // two bands of 8 shades
	LightBase   uint16 = PlayerBase + PlayerSlots
	LightCount         = 15
	TableSize          = 0x8000 + PlayerSlots + LightCount

	BandCount  = 28
	BandShades = 8
	MaxPlayers = 16

	MaxNightShift = 4
	MinLightLevel = -4
	MaxLightLevel = 4
)

// IsPlayerWord reports whether w is substituted by a player color band
func IsPlayerWord(w uint16) bool {
	return w >= PlayerBase && w < LightBase
}

// IsSpecial reports whether w is a player slot or a light color
func IsSpecial(w uint16) bool {
	return w >= PlayerBase
}

// ValidWord reports whether w has an entry in the lookup tables
func ValidWord(w uint16) bool {
	return int(w) < TableSize
}

// Base colors of the 28 player color bands
var bandBase = [BandCount]color.RGBA{
	colornames.Red, colornames.Blue, colornames.Green, colornames.Yellow,
	colornames.Orange, colornames.Purple, colornames.Cyan, colornames.Magenta,
	colornames.Brown, colornames.Gray, colornames.Navy, colornames.Olive,
	colornames.Teal, colornames.Maroon, colornames.Lime, colornames.Pink,
	colornames.Gold, colornames.Salmon, colornames.Turquoise, colornames.Violet,
	colornames.Khaki, colornames.Coral, colornames.Indigo, colornames.Crimson,
	colornames.Chocolate, colornames.Seagreen, colornames.Steelblue, colornames.White,
}

// Lights keep their brightness at night
var lightColors = [LightCount]color.RGBA{
	colornames.Yellow, colornames.Gold, colornames.Orange, colornames.Red,
	colornames.Lime, colornames.Cyan, colornames.White, colornames.Lightyellow,
	colornames.Orangered, colornames.Deepskyblue, colornames.Greenyellow, colornames.Hotpink,
	colornames.Wheat, colornames.Aqua, colornames.Tomato,
}

// Assignment selects the two color bands of a player
type Assignment struct {
	Color1 uint8 // band for slots 0..7
	Color2 uint8 // band for slots 8..15
}

// Tables holds the day/night and all-day lookup tables plus the
// per-player band assignments. Every change bumps Epoch.
type Tables struct {
	format     Format
	nightShift int
	lightLevel int

	bands   [BandCount * BandShades]color.RGBA
	players [MaxPlayers]Assignment
	active  int

	dayNight []uint16
	allDay   []uint16

	SpecialDayNight [256]uint16
	SpecialAllDay   [256]uint16

	epoch uint64
}

// NewTables builds the lookup tables for a display format at full daylight
func NewTables(f Format) *Tables {
	t := &Tables{
		format:   f,
		dayNight: make([]uint16, TableSize),
		allDay:   make([]uint16, TableSize),
	}
	for b, base := range bandBase {
		for s := 0; s < BandShades; s++ {
			k := 0.30 + 0.10*float64(s)
			t.bands[b*BandShades+s] = color.RGBA{
				R: uint8(float64(base.R) * k),
				G: uint8(float64(base.G) * k),
				B: uint8(float64(base.B) * k),
				A: 0xFF,
			}
		}
	}
	for p := range t.players {
		t.players[p] = Assignment{Color1: uint8(p % BandCount), Color2: uint8((p + 3) % BandCount)}
	}
	t.rebuild()
	return t
}

// Format returns the display format the tables produce
func (t *Tables) Format() Format { return t.format }

// Epoch changes whenever any table content changes
func (t *Tables) Epoch() uint64 { return t.epoch }

// NightShift returns the current darkening step (0 = day)
func (t *Tables) NightShift() int { return t.nightShift }

// LightLevel returns the brightness adjustment
func (t *Tables) LightLevel() int { return t.lightLevel }

// ActivePlayer is the player whose bands fill the shared day/night table
func (t *Tables) ActivePlayer() int { return t.active }

// SetNightShift changes the darkening step, clamped to 0..MaxNightShift
func (t *Tables) SetNightShift(n int) {
	n = max(0, min(MaxNightShift, n))
	if n == t.nightShift {
		return
	}
	t.nightShift = n
	t.rebuild()
}

// SetLightLevel changes brightness, clamped to MinLightLevel..MaxLightLevel
func (t *Tables) SetLightLevel(l int) {
	l = max(MinLightLevel, min(MaxLightLevel, l))
	if l == t.lightLevel {
		return
	}
	t.lightLevel = l
	t.rebuild()
}

// SetPlayerColors assigns the two color bands of a player
func (t *Tables) SetPlayerColors(player int, a Assignment) error {
	if player < 0 || player >= MaxPlayers {
		return fmt.Errorf("palette: player %d out of range", player)
	}
	if int(a.Color1) >= BandCount || int(a.Color2) >= BandCount {
		return fmt.Errorf("palette: band (%d,%d) out of range", a.Color1, a.Color2)
	}
	if t.players[player] == a {
		return nil
	}
	t.players[player] = a
	t.rebuild()
	return nil
}

// PlayerColors returns the band assignment of a player
func (t *Tables) PlayerColors(player int) Assignment {
	if player < 0 || player >= MaxPlayers {
		return Assignment{}
	}
	return t.players[player]
}

// SetActivePlayer selects whose bands the shared tables carry
func (t *Tables) SetActivePlayer(player int) {
	if player < 0 || player >= MaxPlayers || player == t.active {
		return
	}
	t.active = player
	t.rebuild()
}

// Map returns the lookup for one player. A negative player uses the
// active player's bands.
func (t *Tables) Map(player int, allDay bool) Map {
	m := Map{base: t.dayNight}
	if allDay {
		m.base = t.allDay
	}
	if player < 0 || player >= MaxPlayers {
		player = t.active
	}
	special := &t.SpecialDayNight
	if allDay {
		special = &t.SpecialAllDay
	}
	a := t.players[player]
	for i := 0; i < BandShades; i++ {
		m.player[i] = special[int(a.Color1)*BandShades+i]
		m.player[BandShades+i] = special[int(a.Color2)*BandShades+i]
	}
	return m
}

// Special returns a display pixel from the 256-entry special table
// (224 band shades followed by the lights).
func (t *Tables) Special(idx uint8, daynight bool) uint16 {
	if daynight {
		return t.SpecialDayNight[idx]
	}
	return t.SpecialAllDay[idx]
}

func (t *Tables) rebuild() {
	var dnR, dnB, adR, adB [32]uint8
	rg, b := t.multipliers(t.nightShift)
	rg0, b0 := t.multipliers(0)
	for v := 0; v < 32; v++ {
		c := float64(expand5(uint16(v)))
		dnR[v] = clamp8(c * rg)
		dnB[v] = clamp8(c * b)
		adR[v] = clamp8(c * rg0)
		adB[v] = clamp8(c * b0)
	}
	for w := 0; w < 0x8000; w++ {
		r, g, bl := SplitWord(uint16(w))
		t.dayNight[w] = t.format.Pack(dnR[r], dnR[g], dnB[bl])
		t.allDay[w] = t.format.Pack(adR[r], adR[g], adB[bl])
	}

	for i, c := range t.bands {
		t.SpecialDayNight[i] = t.format.Pack(clamp8(float64(c.R)*rg), clamp8(float64(c.G)*rg), clamp8(float64(c.B)*b))
		t.SpecialAllDay[i] = t.format.Pack(clamp8(float64(c.R)*rg0), clamp8(float64(c.G)*rg0), clamp8(float64(c.B)*b0))
	}
	for i, c := range lightColors {
		p := t.format.Pack(c.R, c.G, c.B)
		t.SpecialDayNight[len(t.bands)+i] = p
		t.SpecialAllDay[len(t.bands)+i] = p
		t.dayNight[int(LightBase)+i] = p
		t.allDay[int(LightBase)+i] = p
	}

	a := t.players[t.active]
	for i := 0; i < BandShades; i++ {
		t.dayNight[int(PlayerBase)+i] = t.SpecialDayNight[int(a.Color1)*BandShades+i]
		t.dayNight[int(PlayerBase)+BandShades+i] = t.SpecialDayNight[int(a.Color2)*BandShades+i]
		t.allDay[int(PlayerBase)+i] = t.SpecialAllDay[int(a.Color1)*BandShades+i]
		t.allDay[int(PlayerBase)+BandShades+i] = t.SpecialAllDay[int(a.Color2)*BandShades+i]
	}
	t.epoch++
}

// multipliers returns the red/green and blue scale for a night step.
// Blue fades slower so nights tint blue.
func (t *Tables) multipliers(night int) (rg, b float64) {
	light := float64(t.lightLevel+8) / 8
	return math.Pow(0.75, float64(night)) * light, math.Pow(0.83, float64(night)) * light
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Map resolves source words to display pixels for one player
type Map struct {
	base   []uint16
	player [PlayerSlots]uint16
}

// Lookup returns the display pixel for a source word
func (m *Map) Lookup(w uint16) uint16 {
	if IsPlayerWord(w) {
		return m.player[w-PlayerBase]
	}
	if int(w) >= len(m.base) {
		return 0
	}
	return m.base[w]
}
