package sprite

import (
	"strings"

	"github.com/sasha-s/go-deadlock"
)

// Flags describe a sprite's static properties and cache state
type Flags uint8

const (
	Zoomable Flags = 1 << iota
	NeedsRezoom
	NeedsRecode
	HasPlayerColor
	PositionLocked
)

func (f Flags) String() string {
	var parts []string
	for i, name := range []string{"zoomable", "rezoom", "recode", "player", "locked"} {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Sprite is one table entry. The base image never changes after
// registration; the three caches hang off it and are replaced, never
// edited, when stale.
type Sprite struct {
	mu deadlock.Mutex

	id       ID
	base     Geometry
	baseData []uint16
	flags    Flags

	// zoomGen counts zoom slot rebuilds so the recode slots know when
	// their input changed.
	zoomGen uint64
	zoom    zoomSlot
	render  recodeSlot
	player  playerSlot
}

// Info is a snapshot of a sprite's registration data
type Info struct {
	ID    ID
	Base  Geometry
	Flags Flags
	Words int
}

// Info returns the sprite's base geometry and static flags
func (sp *Sprite) Info() Info {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return Info{ID: sp.id, Base: sp.base, Flags: sp.flags, Words: len(sp.baseData)}
}

func (sp *Sprite) zoomView() View {
	if sp.zoom.identity {
		return View{Geometry: sp.base, Data: sp.baseData}
	}
	return View{Geometry: sp.zoom.geom, Data: sp.zoom.data}
}

type zoomSlot struct {
	geom    Geometry
	data    []uint16
	epoch   uint64
	current bool
	// identity means the slot aliases the base image
	identity bool
}

func (z *zoomSlot) validFor(epoch uint64) bool {
	return z.current && z.epoch == epoch
}

type recodeSlot struct {
	data    []uint16
	zoomGen uint64
	palette uint64
	current bool
}

func (r *recodeSlot) validFor(zoomGen, palette uint64) bool {
	return r.current && r.zoomGen == zoomGen && r.palette == palette
}

type playerSlot struct {
	recodeSlot
	tag    int
	allDay bool
}
