package core

import (
	"fmt"

	"github.com/1siamBot/spritecomp/engine/palette"
)

// Player represents a player whose objects are drawn in its colors
type Player struct {
	ID     int
	Name   string
	Color1 uint8 // band for player color slots 0..7
	Color2 uint8 // band for player color slots 8..15
}

// ColorSetter receives player color assignments; the compositor
// implements it
type ColorSetter interface {
	SetPlayerColors(player int, color1, color2 uint8) error
}

// PlayerManager manages all players in a game
type PlayerManager struct {
	Players []*Player
}

func NewPlayerManager() *PlayerManager {
	return &PlayerManager{}
}

// AddPlayer appends p; its id must fit the color tables
func (pm *PlayerManager) AddPlayer(p *Player) error {
	if p.ID < 0 || p.ID >= palette.MaxPlayers {
		return fmt.Errorf("player %d: id out of range", p.ID)
	}
	if pm.GetPlayer(p.ID) != nil {
		return fmt.Errorf("player %d: duplicate id", p.ID)
	}
	pm.Players = append(pm.Players, p)
	return nil
}

func (pm *PlayerManager) GetPlayer(id int) *Player {
	for _, p := range pm.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Apply pushes every player's bands to cs
func (pm *PlayerManager) Apply(cs ColorSetter) error {
	for _, p := range pm.Players {
		if err := cs.SetPlayerColors(p.ID, p.Color1, p.Color2); err != nil {
			return fmt.Errorf("player %d: %w", p.ID, err)
		}
	}
	return nil
}

// CycleColors moves a player to the next free band pair, skipping bands
// other players use.
func (pm *PlayerManager) CycleColors(id int) *Player {
	p := pm.GetPlayer(id)
	if p == nil {
		return nil
	}
	used := make(map[uint8]bool)
	for _, o := range pm.Players {
		if o != p {
			used[o.Color1], used[o.Color2] = true, true
		}
	}
	next := func(b uint8) uint8 {
		for i := 1; i <= palette.BandCount; i++ {
			c := uint8((int(b) + i) % palette.BandCount)
			if !used[c] {
				return c
			}
		}
		return b
	}
	p.Color1 = next(p.Color2)
	p.Color2 = next(p.Color1)
	return p
}
