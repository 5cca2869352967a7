package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/1siamBot/spritecomp/engine/core"
	"github.com/1siamBot/spritecomp/engine/input"
	"github.com/1siamBot/spritecomp/engine/maplib"
	"github.com/1siamBot/spritecomp/engine/pak"
	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/present"
	"github.com/1siamBot/spritecomp/engine/render"
	"github.com/1siamBot/spritecomp/engine/rezoom"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
	nightShift   = 3
)

// Game implements ebiten.Game interface
type Game struct {
	renderer *render.IsoRenderer
	comp     *render.Compositor
	screen   *present.Ebiten
	tileMap  *maplib.TileMap
	objects  []render.Object
	input    *input.InputState
	players  *core.PlayerManager

	// UI state
	redraw     bool
	ghost      bool
	hoverTileX int
	hoverTileY int
	lastFlush  time.Duration
}

type options struct {
	pakPath string
	mapPath string
	dumpPak string
	format  palette.Format
	zoom    rezoom.Factor
	workers int
	shot    string
	prewarm bool
}

func parseFormat(s string) (palette.Format, error) {
	switch s {
	case "565", "rgb565":
		return palette.RGB565, nil
	case "555", "rgb555":
		return palette.RGB555, nil
	}
	return 0, fmt.Errorf("unknown pixel format %q", s)
}

func parseZoom(s string) (rezoom.Factor, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		den = "1"
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return rezoom.Factor{}, fmt.Errorf("zoom %q: %w", s, err)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return rezoom.Factor{}, fmt.Errorf("zoom %q: %w", s, err)
	}
	f := rezoom.Factor{Num: n, Den: d}
	return f, f.Validate()
}

func parseFlags() options {
	var o options
	format := flag.String("format", "565", "display pixel format: 565 or 555")
	zoom := flag.String("zoom", "1/1", "initial zoom factor, e.g. 1/2 or 3/2")
	flag.StringVar(&o.pakPath, "pak", "", "sprite pack to load (default: generated demo pack)")
	flag.StringVar(&o.mapPath, "map", "", "tile map JSON to load (default: generated demo map)")
	flag.StringVar(&o.dumpPak, "dump-pak", "", "write the generated demo pack to this path")
	flag.IntVar(&o.workers, "workers", 0, "prewarm workers (0 = one per CPU)")
	flag.StringVar(&o.shot, "shot", "", "render one frame headless to this PNG and exit")
	flag.BoolVar(&o.prewarm, "prewarm", true, "build every sprite cache before the first frame")
	flag.Parse()

	var err error
	if o.format, err = parseFormat(*format); err != nil {
		log.Fatal(err)
	}
	if o.zoom, err = parseZoom(*zoom); err != nil {
		log.Fatal(err)
	}
	return o
}

func loadMap(path string) *maplib.TileMap {
	if path == "" {
		return generateDemoMap()
	}
	tm, err := maplib.LoadJSON(path)
	if err != nil {
		log.Fatalf("Failed to load map: %v", err)
	}
	return tm
}

func openPak(o options, tm *maplib.TileMap) io.Reader {
	if o.pakPath != "" {
		f, err := os.Open(o.pakPath)
		if err != nil {
			log.Fatalf("Failed to open pack: %v", err)
		}
		return f
	}
	data, err := demoPak(tm)
	if err != nil {
		log.Fatalf("Failed to build demo pack: %v", err)
	}
	if o.dumpPak != "" {
		if err := os.WriteFile(o.dumpPak, data, 0644); err != nil {
			log.Fatalf("Failed to write pack: %v", err)
		}
		log.Printf("Wrote demo pack to %s", o.dumpPak)
	}
	return bytes.NewReader(data)
}

// newScene builds a compositor over the presenter's frame and loads the
// sprites and players into it.
func newScene(o options, tm *maplib.TileMap, f *present.Frame, p render.Presenter) (*render.IsoRenderer, *core.PlayerManager) {
	comp, err := render.NewCompositor(render.Config{Format: o.format, Zoom: o.zoom, Workers: o.workers}, p)
	if err != nil {
		log.Fatal(err)
	}
	if err := comp.BindFramebuffer(f.Pix, f.W, f.H, f.Pitch); err != nil {
		log.Fatal(err)
	}

	r := openPak(o, tm)
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}
	first, names, err := pak.Load(r, comp)
	if err != nil {
		log.Fatalf("Failed to load sprites: %v", err)
	}
	cat := render.NewCatalog()
	cat.AddAll(names, first)

	players := core.NewPlayerManager()
	players.AddPlayer(&core.Player{ID: 0, Name: "Player 1", Color1: 1, Color2: 3})
	players.AddPlayer(&core.Player{ID: 1, Name: "Player 2", Color1: 0, Color2: 6})
	if err := players.Apply(comp); err != nil {
		log.Fatal(err)
	}

	if o.prewarm {
		start := time.Now()
		if err := comp.Prewarm(context.Background()); err != nil {
			log.Fatal(err)
		}
		log.Printf("Prewarmed %d sprites in %v", comp.Store().Len(), time.Since(start))
	}

	ir := render.NewIsoRenderer(comp, cat, f.W, f.H)
	ir.Camera.SetTileSize(tm.TileWidth, tm.TileHeight, tm.HeightStep)
	ir.Camera.CenterOn(float64(tm.Width)/2, float64(tm.Height)/2)
	return ir, players
}

func NewGame(o options) *Game {
	tm := loadMap(o.mapPath)
	screen := present.NewEbiten(present.NewFrame(ScreenWidth, ScreenHeight, o.format))
	ir, players := newScene(o, tm, screen.Frame, screen)
	return &Game{
		renderer: ir,
		comp:     ir.Comp,
		screen:   screen,
		tileMap:  tm,
		objects:  demoObjects(),
		input:    input.NewInputState(),
		players:  players,
		redraw:   true,
	}
}

func (g *Game) Update() error {
	g.input.Update()
	if g.input.Triggered(input.Quit) {
		return ebiten.Termination
	}

	g.handleCamera()
	g.handlePalette()

	if g.input.Triggered(input.GhostToggle) {
		g.ghost = !g.ghost
		g.redraw = true
	}
	if g.input.Triggered(input.Prewarm) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := g.comp.Prewarm(ctx); err != nil {
			log.Printf("Prewarm: %v", err)
		}
		cancel()
	}
	if g.input.Triggered(input.Screenshot) {
		g.screenshot()
	}

	// Track hover tile
	wx, wy := g.renderer.Camera.ScreenToWorld(g.input.MouseX, g.input.MouseY)
	hx, hy := int(math.Floor(wx)), int(math.Floor(wy))
	if hx != g.hoverTileX || hy != g.hoverTileY {
		g.hoverTileX, g.hoverTileY = hx, hy
		g.redraw = true
	}

	// Click select
	if g.input.LeftJustPressed {
		for i := range g.objects {
			if g.objects[i].X == hx && g.objects[i].Y == hy {
				g.objects[i].Selected = !g.objects[i].Selected
				g.redraw = true
			}
		}
	}
	return nil
}

func (g *Game) handleCamera() {
	cam := g.renderer.Camera
	speed := cam.Speed / 60.0 // per frame at 60fps
	moved := false
	pan := func(a input.Action, dx, dy float64) {
		if g.input.Held(a) {
			cam.Pan(dx, dy)
			moved = true
		}
	}
	pan(input.PanUp, 0, -speed)
	pan(input.PanDown, 0, speed)
	pan(input.PanLeft, -speed, 0)
	pan(input.PanRight, speed, 0)

	// Edge scrolling
	if cam.EdgeScroll && ebiten.IsFocused() {
		edge := cam.EdgeSize
		mx, my := g.input.MouseX, g.input.MouseY
		if mx >= 0 && my >= 0 && mx < cam.ScreenW && my < cam.ScreenH {
			if mx < edge {
				cam.Pan(-speed, 0)
				moved = true
			}
			if mx > cam.ScreenW-edge {
				cam.Pan(speed, 0)
				moved = true
			}
			if my < edge {
				cam.Pan(0, -speed)
				moved = true
			}
			if my > cam.ScreenH-edge {
				cam.Pan(0, speed)
				moved = true
			}
		}
	}

	// Middle mouse drag to pan
	if g.input.MiddlePressed && (g.input.MouseDX != 0 || g.input.MouseDY != 0) {
		cam.Pan(float64(-g.input.MouseDX), float64(-g.input.MouseDY))
		moved = true
	}

	// Zoom steps along the ladder
	if g.input.Triggered(input.ZoomIn) || g.input.ScrollY > 0 {
		g.renderer.ZoomIn()
		moved = true
	}
	if g.input.Triggered(input.ZoomOut) || g.input.ScrollY < 0 {
		g.renderer.ZoomOut()
		moved = true
	}
	if moved {
		g.redraw = true
	}
}

func (g *Game) handlePalette() {
	tables := g.comp.Tables()
	switch {
	case g.input.Triggered(input.NightToggle):
		if tables.NightShift() == 0 {
			g.comp.SetNightShift(nightShift)
		} else {
			g.comp.SetNightShift(0)
		}
	case g.input.Triggered(input.Brighter):
		g.comp.SetLightLevel(tables.LightLevel() + 1)
	case g.input.Triggered(input.Darker):
		g.comp.SetLightLevel(tables.LightLevel() - 1)
	case g.input.Triggered(input.CyclePlayer):
		g.comp.SetActivePlayer((tables.ActivePlayer() + 1) % len(g.players.Players))
	case g.input.Triggered(input.CycleColors):
		p := g.players.CycleColors(tables.ActivePlayer())
		if p == nil {
			return
		}
		if err := g.comp.SetPlayerColors(p.ID, p.Color1, p.Color2); err != nil {
			log.Printf("Player colors: %v", err)
			return
		}
	default:
		return
	}
	g.redraw = true
}

func (g *Game) scene() []render.Object {
	objs := g.objects
	if g.tileMap.InBounds(g.hoverTileX, g.hoverTileY) {
		objs = append(objs[:len(objs):len(objs)], render.Object{Sprite: "marker", X: g.hoverTileX, Y: g.hoverTileY, Player: render.NoPlayer})
		if g.ghost {
			objs = append(objs, render.Object{Sprite: "tower", X: g.hoverTileX, Y: g.hoverTileY, Player: render.NoPlayer, Ghost: true})
		}
	}
	return objs
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.redraw {
		g.renderer.DrawMap(g.tileMap, g.scene())
		g.redraw = false
	}
	start := time.Now()
	if err := g.comp.Flush(); err != nil {
		log.Printf("Flush: %v", err)
	}
	g.lastFlush = time.Since(start)

	g.screen.Draw(screen)
	g.drawHUD(screen)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	tile := g.tileMap.At(g.hoverTileX, g.hoverTileY)
	terrainName := "Out of Bounds"
	if tile != nil {
		terrainName = fmt.Sprintf("%s h%d", tile.Terrain, tile.Height)
	}
	tables := g.comp.Tables()
	active := g.players.GetPlayer(tables.ActivePlayer())
	playerName := "-"
	if active != nil {
		playerName = fmt.Sprintf("%s (%d/%d)", active.Name, active.Color1, active.Color2)
	}
	st := g.comp.Stats()

	info := fmt.Sprintf(
		"Sprite Viewer | FPS: %.0f | Flush: %v\n"+
			"Tile: (%d, %d) %s | Sprites: %d\n"+
			"Zoom: %s | Night: %d | Light: %+d | Active: %s\n"+
			"Rezooms: %d Recodes: %d Player recodes: %d\n"+
			"[WASD] Pan [+/-] Zoom [N] Night [PgUp/PgDn] Light [P] Player [C] Colors [G] Ghost [F5] Prewarm [F12] Shot",
		ebiten.ActualFPS(), g.lastFlush.Round(time.Microsecond),
		g.hoverTileX, g.hoverTileY, terrainName, g.comp.Store().Len(),
		g.comp.Zoom(), tables.NightShift(), tables.LightLevel(), playerName,
		st.Rezooms, st.Recodes, st.PlayerRecodes,
	)
	ebitenutil.DebugPrint(screen, info)
}

func (g *Game) screenshot() {
	name := fmt.Sprintf("spriteview-%s.png", time.Now().Format("20060102-150405"))
	f, err := os.Create(name)
	if err != nil {
		log.Printf("Screenshot: %v", err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, g.screen.RGBA()); err != nil {
		log.Printf("Screenshot: %v", err)
		return
	}
	log.Printf("Saved %s", name)
}

// Layout follows the window; the frame buffer is rebound when it changes
// size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return ScreenWidth, ScreenHeight
	}
	if outsideWidth != g.screen.W || outsideHeight != g.screen.H {
		g.screen.Resize(outsideWidth, outsideHeight)
		f := g.screen.Frame
		if err := g.comp.BindFramebuffer(f.Pix, f.W, f.H, f.Pitch); err != nil {
			log.Printf("Resize: %v", err)
		}
		g.renderer.Camera.ScreenW, g.renderer.Camera.ScreenH = f.W, f.H
		g.redraw = true
	}
	return g.screen.W, g.screen.H
}

// renderShot draws one frame without a window and writes it as PNG
func renderShot(o options) {
	tm := loadMap(o.mapPath)
	h := present.NewHeadless(present.NewFrame(ScreenWidth, ScreenHeight, o.format))
	ir, _ := newScene(o, tm, h.Frame, h)
	ir.DrawMap(tm, demoObjects())
	if err := ir.Comp.Flush(); err != nil {
		log.Fatal(err)
	}
	if err := h.SavePNG(o.shot); err != nil {
		log.Fatal(err)
	}
	st := ir.Comp.Stats()
	log.Printf("Wrote %s (%d pixels presented, %d rezooms, %d recodes)", o.shot, h.Pixels, st.Rezooms, st.Recodes)
}

func main() {
	o := parseFlags()
	if o.shot != "" {
		renderShot(o)
		return
	}

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("Sprite Viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)

	game := NewGame(o)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
