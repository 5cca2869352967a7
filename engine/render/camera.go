package render

import (
	"math"

	"github.com/1siamBot/spritecomp/engine/rezoom"
)

// Camera represents the viewport into the isometric world. Positions are
// kept in unzoomed iso pixels; zoom applies on the way to the screen so
// every tile lands on the same grid the rezoomed sprites use.
type Camera struct {
	X, Y       float64       // camera center position (unzoomed iso pixels)
	Zoom       rezoom.Factor // mirrors the compositor zoom
	ScreenW    int           // viewport width in pixels
	ScreenH    int           // viewport height in pixels
	Speed      float64       // pan speed (pixels per second)
	EdgeScroll bool          // enable edge scrolling
	EdgeSize   int           // edge scroll trigger zone in pixels

	TileWidth  int
	TileHeight int
	HeightStep int
}

// NewCamera creates a camera with default settings
func NewCamera(screenW, screenH int) *Camera {
	return &Camera{
		Zoom:       rezoom.Identity,
		ScreenW:    screenW,
		ScreenH:    screenH,
		Speed:      500,
		EdgeScroll: true,
		EdgeSize:   20,
		TileWidth:  64,
		TileHeight: 32,
		HeightStep: 8,
	}
}

// SetTileSize sets the unzoomed tile geometry
func (c *Camera) SetTileSize(tw, th, hs int) {
	c.TileWidth = tw
	c.TileHeight = th
	c.HeightStep = hs
}

// Pan moves the camera by a screen pixel delta
func (c *Camera) Pan(dx, dy float64) {
	z := c.Zoom.Ratio()
	c.X += dx / z
	c.Y += dy / z
}

// CenterOn centers the camera on a world position
func (c *Camera) CenterOn(wx, wy float64) {
	tw := float64(c.TileWidth)
	th := float64(c.TileHeight)
	c.X = (wx - wy) * (tw / 2)
	c.Y = (wx + wy) * (th / 2)
}

// TileOrigin returns the screen position of the top corner of tile
// (x, y) raised to height level h.
func (c *Camera) TileOrigin(x, y, h int) (int, int) {
	isoX := (x - y) * c.TileWidth / 2
	isoY := (x+y)*c.TileHeight/2 - h*c.HeightStep
	sx := c.Zoom.Scale(isoX) - c.Zoom.Scale(int(math.Floor(c.X))) + c.ScreenW/2
	sy := c.Zoom.Scale(isoY) - c.Zoom.Scale(int(math.Floor(c.Y))) + c.ScreenH/2
	return sx, sy
}

// WorldToScreen converts world tile position to screen pixel position
func (c *Camera) WorldToScreen(wx, wy float64) (int, int) {
	tw := float64(c.TileWidth)
	th := float64(c.TileHeight)
	isoX := (wx - wy) * (tw / 2)
	isoY := (wx + wy) * (th / 2)
	z := c.Zoom.Ratio()
	sx := (isoX-c.X)*z + float64(c.ScreenW)/2
	sy := (isoY-c.Y)*z + float64(c.ScreenH)/2
	return int(math.Floor(sx)), int(math.Floor(sy))
}

// ScreenToWorld converts screen pixel to world tile coords
func (c *Camera) ScreenToWorld(sx, sy int) (float64, float64) {
	tw := float64(c.TileWidth)
	th := float64(c.TileHeight)
	z := c.Zoom.Ratio()
	isoX := (float64(sx)-float64(c.ScreenW)/2)/z + c.X
	isoY := (float64(sy)-float64(c.ScreenH)/2)/z + c.Y
	wx := isoX/tw + isoY/th
	wy := isoY/th - isoX/tw
	return wx, wy
}

// VisibleTileRange returns the range of tiles visible on screen
func (c *Camera) VisibleTileRange(mapW, mapH int) (minX, minY, maxX, maxY int) {
	wx0, wy0 := c.ScreenToWorld(0, 0)
	wx1, wy1 := c.ScreenToWorld(c.ScreenW, 0)
	wx2, wy2 := c.ScreenToWorld(0, c.ScreenH)
	wx3, wy3 := c.ScreenToWorld(c.ScreenW, c.ScreenH)

	minXf := math.Min(math.Min(wx0, wx1), math.Min(wx2, wx3))
	minYf := math.Min(math.Min(wy0, wy1), math.Min(wy2, wy3))
	maxXf := math.Max(math.Max(wx0, wx1), math.Max(wx2, wx3))
	maxYf := math.Max(math.Max(wy0, wy1), math.Max(wy2, wy3))

	// raised tiles poke in from below the screen
	pad := 2 + 8*c.HeightStep/max(c.TileHeight, 1)
	minX = max(int(math.Floor(minXf))-pad, 0)
	minY = max(int(math.Floor(minYf))-pad, 0)
	maxX = min(int(math.Ceil(maxXf))+pad, mapW-1)
	maxY = min(int(math.Ceil(maxYf))+pad, mapH-1)
	return
}
