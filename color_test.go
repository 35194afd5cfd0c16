package camtex

import (
	"image/color"
	"testing"
)

func TestRGBA_Color(t *testing.T) {
	tests := []struct {
		name string
		c    RGBA
		want color.NRGBA
	}{
		{"opaque black", RGBA{0, 0, 0, 1}, color.NRGBA{0, 0, 0, 255}},
		{"opaque white", RGBA{1, 1, 1, 1}, color.NRGBA{255, 255, 255, 255}},
		{"clamped high", RGBA{2, 0, 0, 1}, color.NRGBA{255, 0, 0, 255}},
		{"clamped low", RGBA{-1, 0, 0, 1}, color.NRGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Color(); got != tt.want {
				t.Errorf("Color() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromColorRoundtrip(t *testing.T) {
	orig := color.NRGBA{R: 164, G: 198, B: 57, A: 255}
	c := FromColor(orig)
	got := c.Color().(color.NRGBA)
	// Allow one step of quantization error.
	if diff8(got.R, orig.R) > 1 || diff8(got.G, orig.G) > 1 || diff8(got.B, orig.B) > 1 || diff8(got.A, orig.A) > 1 {
		t.Errorf("roundtrip = %v, want %v", got, orig)
	}
}

func TestDefaultClearColor(t *testing.T) {
	c := DefaultClearColor
	if c.A != 1 {
		t.Errorf("default clear alpha = %v, want 1", c.A)
	}
	// The olive green is deliberately not black: a stuck camera must be
	// visible against it.
	if c.R == 0 && c.G == 0 && c.B == 0 {
		t.Error("default clear color is black")
	}
}

func diff8(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
