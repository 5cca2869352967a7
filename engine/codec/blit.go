package codec

import "github.com/1siamBot/spritecomp/engine/palette"

// Tier is a blend opacity in percent
type Tier uint8

const (
	Tier25  Tier = 25
	Tier50  Tier = 50
	Tier75  Tier = 75
	Tier100 Tier = 100
)

// Valid reports whether t is one of the supported tiers
func (t Tier) Valid() bool {
	return t == Tier25 || t == Tier50 || t == Tier75 || t == Tier100
}

// Op turns a source pixel into the destination value
type Op interface {
	Apply(dst, src uint16) uint16
}

// Copy writes the source pixel as-is
type Copy struct{}

func (Copy) Apply(_, src uint16) uint16 { return src }

// Recolor substitutes every source word through a color map
type Recolor struct {
	Map *palette.Map
}

func (o Recolor) Apply(_, src uint16) uint16 { return o.Map.Lookup(src) }

// Blend mixes source over destination at a fixed tier
type Blend struct {
	tier     Tier
	two, one uint16
}

// NewBlend returns a blend op for a display format
func NewBlend(f palette.Format, tier Tier) Blend {
	two, one := f.Masks()
	return Blend{tier: tier, two: two, one: one}
}

func (o Blend) Apply(dst, src uint16) uint16 {
	return mix(o.tier, dst, src, o.two, o.one)
}

// Outline floods a single color at a fixed tier, ignoring the source
type Outline struct {
	Color    uint16
	tier     Tier
	two, one uint16
}

// NewOutline returns an outline op for a display format
func NewOutline(f palette.Format, tier Tier, color uint16) Outline {
	two, one := f.Masks()
	return Outline{Color: color, tier: tier, two: two, one: one}
}

func (o Outline) Apply(dst, _ uint16) uint16 {
	return mix(o.tier, dst, o.Color, o.two, o.one)
}

func mix(tier Tier, d, s, two, one uint16) uint16 {
	switch tier {
	case Tier25:
		return (s >> 2 & one) + 3*(d>>2&one)
	case Tier50:
		return (s >> 1 & two) + (d >> 1 & two)
	case Tier75:
		return 3*(s>>2&one) + (d >> 2 & one)
	default:
		return s
	}
}

// DrawLine decodes the next scanline from r and writes it into row with
// its left edge at x. Only columns in [xmin, xmax) are touched; the span
// is additionally clamped to the row.
func DrawLine[P Op](row []uint16, r *Reader, x, xmin, xmax int, op P) {
	xmin = max(xmin, 0)
	xmax = min(xmax, len(row))
	if xmin >= xmax {
		r.SkipLine()
		return
	}
	for rx, px := range r.Runs() {
		start := x + rx
		end := start + len(px)
		if end <= xmin {
			continue
		}
		if start >= xmax {
			break
		}
		lo, hi := max(start, xmin), min(end, xmax)
		src := px[lo-start : hi-start]
		dst := row[lo:hi]
		for i, s := range src {
			dst[i] = op.Apply(dst[i], s)
		}
	}
}
