package palette

// Format is the packed layout of a display pixel
type Format uint8

const (
	RGB565 Format = iota // 16-bit, 6 bits of green
	RGB555               // 15-bit, top bit unused
)

// Blend masks. "two" keeps the bits that survive a shift by one,
// "one" the bits that survive a shift by two.
const (
	twoOut16 uint16 = 0x7BEF
	oneOut16 uint16 = 0x39E7
	twoOut15 uint16 = 0x3DEF
	oneOut15 uint16 = 0x1CE7
)

func (f Format) String() string {
	if f == RGB555 {
		return "rgb555"
	}
	return "rgb565"
}

// Masks returns the half and quarter blend masks for the format
func (f Format) Masks() (two, one uint16) {
	if f == RGB555 {
		return twoOut15, oneOut15
	}
	return twoOut16, oneOut16
}

// Pack converts 8-bit channels into a display pixel
func (f Format) Pack(r, g, b uint8) uint16 {
	if f == RGB555 {
		return uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
	}
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// Unpack expands a display pixel into 8-bit channels
func (f Format) Unpack(p uint16) (r, g, b uint8) {
	if f == RGB555 {
		return expand5(p >> 10), expand5(p >> 5), expand5(p)
	}
	return expand5(p >> 11), expand6(p >> 5), expand5(p)
}

func expand5(v uint16) uint8 {
	v &= 0x1F
	return uint8(v<<3 | v>>2)
}

func expand6(v uint16) uint8 {
	v &= 0x3F
	return uint8(v<<2 | v>>4)
}

// Word packs 8-bit channels into a literal source word (RGB555)
func Word(r, g, b uint8) uint16 {
	return uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
}

// SplitWord returns the 5-bit channels of a literal source word
func SplitWord(w uint16) (r, g, b uint16) {
	return (w >> 10) & 0x1F, (w >> 5) & 0x1F, w & 0x1F
}

// JoinWord is the inverse of SplitWord
func JoinWord(r, g, b uint16) uint16 {
	return (r&0x1F)<<10 | (g&0x1F)<<5 | b&0x1F
}
