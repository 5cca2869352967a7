package render

import (
	"runtime"

	"github.com/1siamBot/spritecomp/engine/palette"
	"github.com/1siamBot/spritecomp/engine/rezoom"
)

// Config holds compositor startup settings
type Config struct {
	Format     palette.Format // display pixel packing
	Zoom       rezoom.Factor  // initial zoom factor
	Workers    int            // Prewarm pool size
	NightShift int            // 0 = day .. palette.MaxNightShift
	LightLevel int            // brightness offset
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Zoom.Den == 0 {
		c.Zoom = rezoom.Identity
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	c.NightShift = min(max(c.NightShift, 0), palette.MaxNightShift)
	c.LightLevel = min(max(c.LightLevel, palette.MinLightLevel), palette.MaxLightLevel)
}
