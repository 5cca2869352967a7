// Command pakimport converts a directory of PNG images into a sprite pack.
//
// Each PNG becomes one sprite named after its path relative to the input
// directory, without the extension, so terrain/grass/0/0.png is picked up
// as a ground sprite. Pure magenta shades map to the first player color
// band, pure cyan shades to the second one.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/1siamBot/spritecomp/engine/codec"
	"github.com/1siamBot/spritecomp/engine/pak"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/sprite"
)

// Anchor selects where the sprite origin sits in the source image
type Anchor string

const (
	AnchorTopLeft Anchor = "topleft"
	AnchorCenter  Anchor = "center"
	AnchorBottom  Anchor = "bottom" // bottom center, for objects
	AnchorTile    Anchor = "tile"   // top corner of a ground diamond
)

var interpolators = map[string]xdraw.Interpolator{
	"nearest":    xdraw.NearestNeighbor,
	"approx":     xdraw.ApproxBiLinear,
	"bilinear":   xdraw.BiLinear,
	"catmullrom": xdraw.CatmullRom,
}

type importer struct {
	scale  float64
	filter xdraw.Interpolator
	anchor Anchor
	fixed  []string // name prefixes that are not zoomable
}

// toWord maps one pixel to a source word; ok is false for transparent
// pixels.
func toWord(c color.Color) (w uint16, ok bool) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A < 128 {
		return 0, false
	}
	switch {
	case n.R > 0 && n.R == n.B && n.G == 0:
		return palette.PlayerBase + uint16(7-n.R>>5), true
	case n.G > 0 && n.G == n.B && n.R == 0:
		return palette.PlayerBase + palette.BandShades + uint16(7-n.G>>5), true
	}
	return palette.Word(n.R, n.G, n.B), true
}

// resize scales img by the importer's factor
func (im *importer) resize(img image.Image) image.Image {
	if im.scale == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*im.scale+0.5))
	h := max(1, int(float64(b.Dy())*im.scale+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	im.filter.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// origin returns the anchor point inside a w x h image
func (im *importer) origin(w, h int) (int, int) {
	switch im.anchor {
	case AnchorCenter:
		return w / 2, h / 2
	case AnchorBottom:
		return w / 2, h - 1
	case AnchorTile:
		return w / 2, 0
	}
	return 0, 0
}

// convert turns one image into a pack entry trimmed to its opaque pixels
func (im *importer) convert(name string, img image.Image) (pak.Entry, error) {
	img = im.resize(img)
	b := img.Bounds()
	r := codec.NewRaster(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if w, ok := toWord(img.At(b.Min.X+x, b.Min.Y+y)); ok {
				r.Set(x, y, w)
			}
		}
	}
	x0, y0, w, h := r.Bounds()
	if w == 0 {
		return pak.Entry{}, fmt.Errorf("%s: no opaque pixels", name)
	}
	if w > codec.MaxWidth {
		return pak.Entry{}, fmt.Errorf("%s: %d pixels wide, limit is %d", name, w, codec.MaxWidth)
	}
	ox, oy := im.origin(b.Dx(), b.Dy())
	zoomable := true
	for _, p := range im.fixed {
		if strings.HasPrefix(name, p) {
			zoomable = false
		}
	}
	return pak.Entry{
		Name:     name,
		Geometry: sprite.Geometry{X: x0 - ox, Y: y0 - oy, W: w, H: h},
		Zoomable: zoomable,
		Data:     codec.Encode(r.Crop(x0, y0, w, h)),
	}, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// collect finds every PNG below dir, sorted by name
func collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".png") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func main() {
	in := flag.String("in", "assets", "directory of PNG sprites")
	out := flag.String("out", "sprites.pak", "output pack")
	scale := flag.Float64("scale", 1, "resize factor applied before import")
	filter := flag.String("filter", "nearest", "resize filter: nearest, approx, bilinear, catmullrom")
	anchor := flag.String("anchor", string(AnchorBottom), "sprite origin: topleft, center, bottom, tile")
	fixed := flag.String("fixed", "ui/", "comma separated name prefixes of sprites that keep their size when zoomed")
	flag.Parse()

	im := &importer{scale: *scale, anchor: Anchor(*anchor), fixed: strings.Split(*fixed, ",")}
	var ok bool
	if im.filter, ok = interpolators[*filter]; !ok {
		log.Fatalf("unknown filter %q", *filter)
	}
	if im.scale <= 0 {
		log.Fatalf("scale must be positive")
	}

	files, err := collect(*in)
	if err != nil {
		log.Fatal(err)
	}
	var entries []pak.Entry
	for _, path := range files {
		rel, _ := filepath.Rel(*in, path)
		name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		img, err := loadPNG(path)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", path, err)
			continue
		}
		e, err := im.convert(name, img)
		if err != nil {
			fmt.Printf("  ⚠ %v\n", err)
			continue
		}
		if err := codec.Validate(e.Data, e.Geometry.W, e.Geometry.H); err != nil {
			log.Fatalf("%s: %v", name, err)
		}
		entries = append(entries, e)
		fmt.Printf("  → %s %dx%d\n", name, e.Geometry.W, e.Geometry.H)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := pak.Write(f, entries); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\n✅ Wrote %d sprites to %s\n", len(entries), *out)
}
