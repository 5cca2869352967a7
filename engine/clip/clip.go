// Package clip narrows sprite scanlines to a clip rectangle and up to six
// half-plane clip lines used for slope occlusion.
package clip

import "log"

// MaxLines is a soft cap: pushing more lines is a no-op
const MaxLines = 6

// Rect is a half-open clip rectangle [Left,Right) x [Top,Bottom)
type Rect struct {
	Left, Top, Right, Bottom int
}

// Empty reports whether the rectangle contains no pixel
func (r Rect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Intersect returns the overlap of two rectangles
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
}

// Line hides the half-plane on one side of the directed line
// (X0,Y0)->(X1,Y1). Going down the screen (Y1 > Y0) pixels at or right of
// the line are hidden; going up, pixels left of it are hidden. A
// horizontal line pointing right hides the rows above it, pointing left
// the rows at and below it.
//
// A non-convex line replaces the line by a vertical ray where the segment
// has no rows: above the segment through the start point when it runs up,
// below the segment through the end point when it runs down.
type Line struct {
	X0, Y0, X1, Y1 int
	Mask           uint8
	NonConvex      bool
}

type lineState struct {
	Line
	dx, dy int
	// row stepping of xx(y) = X0 + floor((y-Y0)*n/d)
	n, d       int
	qStep      int
	rStep      int
	xx, rem    int
	degenerate bool
}

func (l *lineState) setup(line Line) {
	l.Line = line
	l.dx, l.dy = line.X1-line.X0, line.Y1-line.Y0
	l.degenerate = l.dx == 0 && l.dy == 0
	if l.dy == 0 {
		return
	}
	l.n, l.d = l.dx, l.dy
	if l.dy < 0 {
		l.n, l.d = -l.dx, -l.dy
	}
	l.qStep = floorDiv(l.n, l.d)
	l.rStep = l.n - l.qStep*l.d
}

// seek places the boundary at row y directly
func (l *lineState) seek(y int) {
	if l.dy == 0 {
		return
	}
	v := (y - l.Y0) * l.n
	q := floorDiv(v, l.d)
	l.xx = l.X0 + q
	l.rem = v - q*l.d
}

// step moves the boundary down one row without dividing
func (l *lineState) step() {
	if l.dy == 0 {
		return
	}
	l.xx += l.qStep
	l.rem += l.rStep
	if l.rem >= l.d {
		l.xx++
		l.rem -= l.d
	}
}

// narrow applies the line's constraint for row y to [xmin, xmax)
func (l *lineState) narrow(y int, xmin, xmax *int) {
	switch {
	case l.degenerate:
	case l.dy == 0:
		if (l.dx > 0 && y < l.Y0) || (l.dx < 0 && y >= l.Y0) {
			*xmax = *xmin
		}
	case l.NonConvex && l.dy < 0 && y < l.Y1:
		*xmax = min(*xmax, l.X0)
	case l.NonConvex && l.dy > 0 && y >= l.Y1:
		*xmax = min(*xmax, l.X1)
	case l.dy > 0:
		*xmax = min(*xmax, l.xx)
	default:
		*xmin = max(*xmin, l.xx)
	}
}

type saved struct {
	rect  Rect
	lines [MaxLines]lineState
	n     int
}

// Stack is the clip state of a compositor. Begin/Advance walk scanlines
// top to bottom; Push/Pop save and restore the rectangle together with
// the line list.
type Stack struct {
	rect   Rect
	lines  [MaxLines]lineState
	n      int
	active uint8

	live  [MaxLines]int
	nLive int
	row   int

	stack    []saved
	overflow bool
}

// NewStack returns a stack clipping to r with every direction active
func NewStack(r Rect) *Stack {
	return &Stack{rect: r, active: 0xFF}
}

// Rect returns the clip rectangle
func (s *Stack) Rect() Rect { return s.rect }

// SetRect replaces the clip rectangle
func (s *Stack) SetRect(r Rect) { s.rect = r }

// Lines returns the number of pushed lines
func (s *Stack) Lines() int { return s.n }

// ActiveMask returns the direction mask selecting live lines
func (s *Stack) ActiveMask() uint8 { return s.active }

// SetActiveMask selects which lines take part in clipping
func (s *Stack) SetActiveMask(mask uint8) { s.active = mask }

// PushLine adds a clip line. Beyond MaxLines the line is ignored; only the
// first overflow in the stack's lifetime is logged.
func (s *Stack) PushLine(l Line) {
	if s.n >= MaxLines {
		if !s.overflow {
			log.Printf("ClipStack: more than %d clip lines, extra lines ignored", MaxLines)
			s.overflow = true
		}
		return
	}
	s.lines[s.n].setup(l)
	s.n++
}

// ClearLines removes every clip line
func (s *Stack) ClearLines() {
	s.n = 0
	s.nLive = 0
}

// Push saves the rectangle and lines
func (s *Stack) Push() {
	s.stack = append(s.stack, saved{rect: s.rect, lines: s.lines, n: s.n})
}

// Pop restores the last saved state. It reports false on an empty stack.
func (s *Stack) Pop() bool {
	if len(s.stack) == 0 {
		return false
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.rect, s.lines, s.n = top.rect, top.lines, top.n
	s.nLive = 0
	return true
}

// Begin prepares Advance to return row y first. Every live line is
// positioned one row above y.
func (s *Stack) Begin(y int) {
	s.row = y - 1
	s.nLive = 0
	for i := 0; i < s.n; i++ {
		if s.lines[i].Mask&s.active == 0 {
			continue
		}
		s.lines[i].seek(s.row)
		s.live[s.nLive] = i
		s.nLive++
	}
}

// Advance steps to the next row and returns its visible span [xmin, xmax).
// An empty span has xmin >= xmax.
func (s *Stack) Advance() (xmin, xmax int) {
	s.row++
	xmin, xmax = s.rect.Left, s.rect.Right
	inRows := s.row >= s.rect.Top && s.row < s.rect.Bottom
	for _, i := range s.live[:s.nLive] {
		l := &s.lines[i]
		l.step()
		if inRows {
			l.narrow(s.row, &xmin, &xmax)
		}
	}
	if !inRows {
		return xmin, xmin
	}
	return xmin, xmax
}

// Span computes the visible span of row y from scratch
func (s *Stack) Span(y int) (xmin, xmax int) {
	if y < s.rect.Top || y >= s.rect.Bottom {
		return s.rect.Left, s.rect.Left
	}
	xmin, xmax = s.rect.Left, s.rect.Right
	for i := 0; i < s.n; i++ {
		l := s.lines[i]
		if l.Mask&s.active == 0 {
			continue
		}
		l.seek(y)
		l.narrow(y, &xmin, &xmax)
	}
	return xmin, xmax
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
