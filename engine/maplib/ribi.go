package maplib

// Ribi is a set of map directions, one bit each. It doubles as the
// direction mask of slope clip lines.
type Ribi uint8

const (
	North Ribi = 1 << iota
	East
	South
	West

	AllRibi = North | East | South | West
)

// Delta returns the tile step of a single direction
func (r Ribi) Delta() (dx, dy int) {
	switch r {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	}
	return 0, 0
}

// Backward returns the opposite directions
func (r Ribi) Backward() Ribi {
	return (r<<2 | r>>2) & AllRibi
}

// IsSingle reports whether exactly one direction is set
func (r Ribi) IsSingle() bool {
	return r != 0 && r&(r-1) == 0
}

func (r Ribi) String() string {
	if r == 0 {
		return "-"
	}
	s := ""
	for i, c := range "nesw" {
		if r&(1<<i) != 0 {
			s += string(c)
		}
	}
	return s
}

// Slope is the set of raised tile corners
type Slope uint8

const (
	CornerN Slope = 1 << iota
	CornerE
	CornerS
	CornerW

	Flat Slope = 0
)

// SlopeUp returns the slope rising toward direction r: the two corners
// on that side are raised.
func SlopeUp(r Ribi) Slope {
	switch r {
	case North:
		return CornerN | CornerE
	case East:
		return CornerE | CornerS
	case South:
		return CornerS | CornerW
	case West:
		return CornerW | CornerN
	}
	return Flat
}

// Rises returns the direction a simple slope rises toward
func (s Slope) Rises() Ribi {
	for _, r := range []Ribi{North, East, South, West} {
		if SlopeUp(r) == s {
			return r
		}
	}
	return 0
}
