// Package pak reads and writes sprite packs: a small header followed by a
// zstd stream of named sprite records in the compositor's encoding.
package pak

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/klauspost/compress/zstd"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

const (
	Magic   = "SPAK"
	Version = 1

	maxName  = 1 << 10
	maxWords = 1 << 24
)

var ErrFormat = errors.New("pak: bad format")

// Entry is one sprite of a pack
type Entry struct {
	Name     string
	Geometry sprite.Geometry
	Zoomable bool
	Data     []uint16
}

type header struct {
	Magic   [4]byte
	Version uint16
	Count   uint32
}

type record struct {
	X, Y     int16
	W, H     uint16
	Flags    uint8
	NameLen  uint16
	WordsLen uint32
}

const flagZoomable = 1

// Write stores entries to w
func Write(w io.Writer, entries []Entry) error {
	h := header{Version: Version, Count: uint32(len(entries))}
	copy(h.Magic[:], Magic)
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)
	for i, e := range entries {
		if len(e.Name) > maxName || len(e.Data) > maxWords {
			enc.Close()
			return fmt.Errorf("pak: entry %d %q too large", i, e.Name)
		}
		rec := record{
			X: int16(e.Geometry.X), Y: int16(e.Geometry.Y),
			W: uint16(e.Geometry.W), H: uint16(e.Geometry.H),
			NameLen:  uint16(len(e.Name)),
			WordsLen: uint32(len(e.Data)),
		}
		if e.Zoomable {
			rec.Flags |= flagZoomable
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			enc.Close()
			return err
		}
		bw.WriteString(e.Name)
		bw.Write(codec.ToBytes(e.Data))
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("zstd encode: %w", err)
	}
	return enc.Close()
}

// Read parses a pack. Sprite data is not validated here.
func Read(r io.Reader) ([]Entry, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	if string(h.Magic[:]) != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrFormat, h.Magic[:])
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: version %d", ErrFormat, h.Version)
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	entries := make([]Entry, 0, min(h.Count, 1<<16))
	for i := uint32(0); i < h.Count; i++ {
		var rec record
		if err := binary.Read(br, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrFormat, i, err)
		}
		if rec.NameLen > maxName || rec.WordsLen > maxWords {
			return nil, fmt.Errorf("%w: record %d too large", ErrFormat, i)
		}
		name := make([]byte, rec.NameLen)
		raw := make([]byte, 2*int(rec.WordsLen))
		if _, err := io.ReadFull(br, name); err != nil {
			return nil, fmt.Errorf("%w: record %d name: %v", ErrFormat, i, err)
		}
		if _, err := io.ReadFull(br, raw); err != nil {
			return nil, fmt.Errorf("%w: record %d data: %v", ErrFormat, i, err)
		}
		words, _ := codec.FromBytes(raw)
		entries = append(entries, Entry{
			Name:     string(name),
			Geometry: sprite.Geometry{X: int(rec.X), Y: int(rec.Y), W: int(rec.W), H: int(rec.H)},
			Zoomable: rec.Flags&flagZoomable != 0,
			Data:     words,
		})
	}
	return entries, nil
}

// Registrar accepts sprites; the compositor implements it
type Registrar interface {
	RegisterSprite(g sprite.Geometry, data []byte, zoomable bool) (sprite.ID, error)
}

// Load reads a pack and registers every sprite in order. It stops at the
// first sprite that fails validation. The names of the registered sprites
// are returned with the id of the first one.
func Load(r io.Reader, reg Registrar) (first sprite.ID, names []string, err error) {
	entries, err := Read(r)
	if err != nil {
		return 0, nil, err
	}
	names = make([]string, 0, len(entries))
	for i, e := range entries {
		id, err := reg.RegisterSprite(e.Geometry, codec.ToBytes(e.Data), e.Zoomable)
		if err != nil {
			return first, names, fmt.Errorf("pak: sprite %d %q: %w", i, e.Name, err)
		}
		if i == 0 {
			first = id
		}
		names = append(names, e.Name)
	}
	log.Printf("Pak: loaded %d sprites from id %d", len(names), first)
	return first, names, nil
}
