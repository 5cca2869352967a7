package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Action is a viewer command bound to keys
type Action uint8

const (
	PanUp Action = iota
	PanDown
	PanLeft
	PanRight
	ZoomIn
	ZoomOut
	NightToggle
	Brighter
	Darker
	CyclePlayer
	CycleColors
	GhostToggle
	Prewarm
	Screenshot
	Quit
	actionCount
)

// DefaultBindings maps every action to its keys
func DefaultBindings() map[Action][]ebiten.Key {
	return map[Action][]ebiten.Key{
		PanUp:       {ebiten.KeyW, ebiten.KeyUp},
		PanDown:     {ebiten.KeyS, ebiten.KeyDown},
		PanLeft:     {ebiten.KeyA, ebiten.KeyLeft},
		PanRight:    {ebiten.KeyD, ebiten.KeyRight},
		ZoomIn:      {ebiten.KeyEqual, ebiten.KeyKPAdd},
		ZoomOut:     {ebiten.KeyMinus, ebiten.KeyKPSubtract},
		NightToggle: {ebiten.KeyN},
		Brighter:    {ebiten.KeyPageUp},
		Darker:      {ebiten.KeyPageDown},
		CyclePlayer: {ebiten.KeyP},
		CycleColors: {ebiten.KeyC},
		GhostToggle: {ebiten.KeyG},
		Prewarm:     {ebiten.KeyF5},
		Screenshot:  {ebiten.KeyF12},
		Quit:        {ebiten.KeyEscape},
	}
}

// InputState tracks mouse and keyboard state per frame
type InputState struct {
	// Mouse
	MouseX, MouseY   int
	MouseDX, MouseDY int // delta since last frame
	prevMouseX       int
	prevMouseY       int
	MiddlePressed    bool
	LeftJustPressed  bool
	ScrollY          float64

	Bindings map[Action][]ebiten.Key
	held     [actionCount]bool
}

func NewInputState() *InputState {
	return &InputState{Bindings: DefaultBindings()}
}

// Update should be called every frame
func (s *InputState) Update() {
	s.prevMouseX = s.MouseX
	s.prevMouseY = s.MouseY
	s.MouseX, s.MouseY = ebiten.CursorPosition()
	s.MouseDX = s.MouseX - s.prevMouseX
	s.MouseDY = s.MouseY - s.prevMouseY

	s.MiddlePressed = ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	s.LeftJustPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	_, scrollY := ebiten.Wheel()
	s.ScrollY = scrollY

	for a := Action(0); a < actionCount; a++ {
		s.held[a] = false
		for _, k := range s.Bindings[a] {
			if ebiten.IsKeyPressed(k) {
				s.held[a] = true
				break
			}
		}
	}
}

// Held reports whether any key of a is down
func (s *InputState) Held(a Action) bool {
	return a < actionCount && s.held[a]
}

// Triggered reports whether a key of a was pressed this frame
func (s *InputState) Triggered(a Action) bool {
	for _, k := range s.Bindings[a] {
		if inpututil.IsKeyJustPressed(k) {
			return true
		}
	}
	return false
}
