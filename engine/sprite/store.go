// Package sprite is the sprite table: base images plus their lazily
// rebuilt zoom, day/night and player caches.
package sprite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/rezoom"
)

// ID indexes the sprite table
type ID uint32

// Geometry is a sprite's offset and extent
type Geometry = rezoom.Geometry

var (
	ErrEmptySprite    = errors.New("zero-sized sprite")
	ErrPositionLocked = errors.New("sprite offset already adjusted")
	ErrUnknownSprite  = errors.New("unknown sprite")
)

// Stats counts cache rebuilds
type Stats struct {
	Rezooms       uint64
	Recodes       uint64
	PlayerRecodes uint64
}

// View is drawable sprite data: geometry plus encoded display pixels
type View struct {
	Geometry
	Data []uint16
}

// Store owns every sprite. Registration, freeing, zoom and palette
// changes happen on the render goroutine; cache materialization may run
// on Prewarm workers at the same time as draws.
type Store struct {
	mu      deadlock.RWMutex
	sprites []*Sprite

	tables    *palette.Tables
	factor    rezoom.Factor
	zoomEpoch uint64

	rezooms       atomic.Uint64
	recodes       atomic.Uint64
	playerRecodes atomic.Uint64
}

// NewStore returns an empty table at native zoom recoding through tables
func NewStore(tables *palette.Tables) *Store {
	return &Store{tables: tables, factor: rezoom.Identity, zoomEpoch: 1}
}

// Tables returns the color tables the store recodes through
func (s *Store) Tables() *palette.Tables { return s.tables }

// Len returns the number of registered sprites
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sprites)
}

// Register validates little-endian encoded data and appends a sprite
func (s *Store) Register(g Geometry, data []byte, zoomable bool) (ID, error) {
	words, err := codec.FromBytes(data)
	if err != nil {
		return 0, fmt.Errorf("sprite %d: %w", s.Len(), err)
	}
	return s.RegisterWords(g, words, zoomable)
}

// RegisterWords is Register for data already in words. The store keeps
// the slice; callers must not modify it afterwards.
func (s *Store) RegisterWords(g Geometry, data []uint16, zoomable bool) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ID(len(s.sprites))
	if g.Empty() {
		return 0, fmt.Errorf("sprite %d: %w (%dx%d)", id, ErrEmptySprite, g.W, g.H)
	}
	if err := codec.Validate(data, g.W, g.H); err != nil {
		return 0, fmt.Errorf("sprite %d: %w", id, err)
	}
	sp := &Sprite{id: id, base: g, baseData: data}
	if zoomable {
		sp.flags |= Zoomable
	}
	if codec.HasPlayerColor(data, g.H) {
		sp.flags |= HasPlayerColor
	}
	s.sprites = append(s.sprites, sp)
	return id, nil
}

// Get returns the sprite for id
func (s *Store) Get(id ID) (*Sprite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.sprites) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSprite, id)
	}
	return s.sprites[id], nil
}

// SetBaseOffset shifts a sprite's base offset. It may be called once per
// sprite.
func (s *Store) SetBaseOffset(id ID, dx, dy int) error {
	sp, err := s.Get(id)
	if err != nil {
		return err
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.flags&PositionLocked != 0 {
		return fmt.Errorf("sprite %d: %w", id, ErrPositionLocked)
	}
	sp.base.X += dx
	sp.base.Y += dy
	sp.flags |= PositionLocked
	sp.zoom.current = false
	return nil
}

// FreeFrom drops every sprite with an id >= id
func (s *Store) FreeFrom(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(id) < len(s.sprites) {
		n := len(s.sprites) - int(id)
		clear(s.sprites[id:])
		s.sprites = s.sprites[:id]
		log.Printf("Store: freed %d sprites from %d", n, id)
	}
}

// Factor returns the global zoom factor
func (s *Store) Factor() rezoom.Factor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.factor
}

// SetFactor changes the global zoom factor. Zoom caches go stale and are
// rebuilt on next use.
func (s *Store) SetFactor(f rezoom.Factor) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Num*s.factor.Den != s.factor.Num*f.Den {
		s.zoomEpoch++
	}
	s.factor = f
	return nil
}

// InvalidateZoom forces every zoom cache to be rebuilt
func (s *Store) InvalidateZoom() {
	s.mu.Lock()
	s.zoomEpoch++
	s.mu.Unlock()
}

// Stats returns the cache rebuild counters
func (s *Store) Stats() Stats {
	return Stats{
		Rezooms:       s.rezooms.Load(),
		Recodes:       s.recodes.Load(),
		PlayerRecodes: s.playerRecodes.Load(),
	}
}

func (s *Store) zoomState() (rezoom.Factor, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.factor, s.zoomEpoch
}

// Flags returns the sprite's flags including the derived NeedsRezoom and
// NeedsRecode bits.
func (s *Store) Flags(id ID) (Flags, error) {
	sp, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	_, epoch := s.zoomState()
	sp.mu.Lock()
	defer sp.mu.Unlock()
	f := sp.flags
	if f&Zoomable != 0 && !sp.zoom.validFor(epoch) {
		f |= NeedsRezoom
	}
	if !sp.render.validFor(sp.zoomGen, s.tables.Epoch()) || f&NeedsRezoom != 0 {
		f |= NeedsRecode
	}
	return f, nil
}

// Zoomed returns the sprite's source words at the current zoom factor
func (s *Store) Zoomed(id ID) (View, error) {
	sp, err := s.Get(id)
	if err != nil {
		return View{}, err
	}
	f, epoch := s.zoomState()
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if err := s.rezoom(sp, f, epoch); err != nil {
		return View{}, err
	}
	return sp.zoomView(), nil
}

// Rendered returns display pixels through the day/night table with the
// active player's colors.
func (s *Store) Rendered(id ID) (View, error) {
	sp, err := s.Get(id)
	if err != nil {
		return View{}, err
	}
	f, epoch := s.zoomState()
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if err := s.rezoom(sp, f, epoch); err != nil {
		return View{}, err
	}
	s.recodeRender(sp)
	return View{Geometry: sp.zoomView().Geometry, Data: sp.render.data}, nil
}

// ForPlayer returns display pixels recolored for one player. Sprites
// without player colors drawn through the day/night table share the
// render cache.
func (s *Store) ForPlayer(id ID, player int, allDay bool) (View, error) {
	sp, err := s.Get(id)
	if err != nil {
		return View{}, err
	}
	f, epoch := s.zoomState()
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if err := s.rezoom(sp, f, epoch); err != nil {
		return View{}, err
	}
	geom := sp.zoomView().Geometry
	if sp.flags&HasPlayerColor == 0 {
		if !allDay {
			s.recodeRender(sp)
			return View{Geometry: geom, Data: sp.render.data}, nil
		}
		player = -1
	}
	s.recodePlayer(sp, player, allDay)
	return View{Geometry: geom, Data: sp.player.data}, nil
}

// Prewarm rebuilds the zoom and render caches of every sprite on a
// bounded worker pool. Zoom and palette changes must not run concurrently.
func (s *Store) Prewarm(ctx context.Context, workers int) error {
	n := s.Len()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		id := ID(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := s.Rendered(id)
			if errors.Is(err, ErrUnknownSprite) {
				// freed while we were queued
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// rezoom brings the zoom slot up to date. Caller holds sp.mu.
func (s *Store) rezoom(sp *Sprite, f rezoom.Factor, epoch uint64) error {
	if sp.zoom.validFor(epoch) {
		return nil
	}
	if sp.flags&Zoomable == 0 || f.IsIdentity() {
		if sp.zoom.current && sp.zoom.identity && sp.zoom.geom == sp.base {
			// same base data, the recoded caches stay valid
			sp.zoom.epoch = epoch
			return nil
		}
		sp.zoom = zoomSlot{geom: sp.base, epoch: epoch, current: true, identity: true}
		sp.zoomGen++
		return nil
	}
	g, data, err := rezoom.Resample(sp.base, sp.baseData, f)
	if err != nil {
		return fmt.Errorf("sprite %d: %w", sp.id, err)
	}
	sp.zoom = zoomSlot{geom: g, data: data, epoch: epoch, current: true}
	sp.zoomGen++
	s.rezooms.Add(1)
	return nil
}

func (s *Store) recodeRender(sp *Sprite) {
	pe := s.tables.Epoch()
	if sp.render.validFor(sp.zoomGen, pe) {
		return
	}
	v := sp.zoomView()
	m := s.tables.Map(-1, false)
	sp.render = recodeSlot{data: codec.Recode(v.Data, v.H, &m), zoomGen: sp.zoomGen, palette: pe, current: true}
	s.recodes.Add(1)
}

func (s *Store) recodePlayer(sp *Sprite, player int, allDay bool) {
	pe := s.tables.Epoch()
	if sp.player.validFor(sp.zoomGen, pe) && sp.player.tag == player && sp.player.allDay == allDay {
		return
	}
	v := sp.zoomView()
	m := s.tables.Map(player, allDay)
	sp.player = playerSlot{
		recodeSlot: recodeSlot{data: codec.Recode(v.Data, v.H, &m), zoomGen: sp.zoomGen, palette: pe, current: true},
		tag:        player,
		allDay:     allDay,
	}
	s.playerRecodes.Add(1)
}
