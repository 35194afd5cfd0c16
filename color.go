package camtex

import "image/color"

// RGBA is a float-component color with each channel in [0, 1]. It is used
// for the configurable clear color uploaded via glClearColor.
type RGBA struct {
	R, G, B, A float32
}

// DefaultClearColor is the background the surface and offscreen target are
// cleared to before every draw, unless overridden with WithClearColor. The
// olive green comes from the original capture pipeline, where a
// recognizable non-black background makes missing camera frames obvious.
var DefaultClearColor = RGBA{R: 0.643, G: 0.776, B: 0.223, A: 1.0}

// Color converts to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	return RGBA{
		R: float32(r) / 65535,
		G: float32(g) / 65535,
		B: float32(b) / 65535,
		A: float32(a) / 65535,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
