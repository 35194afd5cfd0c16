package camtex

import (
	"golang.org/x/mobile/gl"
)

// OffscreenTarget is a framebuffer object whose sole color attachment is a
// normal RGBA8 2D texture. It replaces the visible surface as the draw
// destination when the composited frame is captured rather than displayed.
// Lifetime is tied to the GraphicsContext; no depth or stencil attachment is
// needed for a flat composite.
type OffscreenTarget struct {
	fbo    gl.Framebuffer
	tex    gl.Texture
	width  int
	height int
}

// newOffscreenTarget allocates the backing texture and framebuffer and
// verifies completeness. An incomplete framebuffer returns a
// *FramebufferError; callers may fall back to on-surface rendering. Context
// thread only.
func newOffscreenTarget(g GL, gc *GraphicsContext, width, height int) (*OffscreenTarget, error) {
	tex := gc.allocTexture(g)
	g.BindTexture(gl.TEXTURE_2D, tex)
	glErrors(g, "glBindTexture 2d")
	g.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	g.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	g.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	g.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	g.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, width, height, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	glErrors(g, "glTexImage2D offscreen")

	fbo := g.CreateFramebuffer()
	glErrors(g, "glGenFramebuffers")
	g.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	glErrors(g, "glBindFramebuffer")
	g.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	glErrors(g, "glFramebufferTexture2D")

	if status := g.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		g.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		g.DeleteFramebuffer(fbo)
		g.DeleteTexture(tex)
		return nil, &FramebufferError{Status: status}
	}

	Logger().Info("offscreen target attached", "width", width, "height", height)
	return &OffscreenTarget{fbo: fbo, tex: tex, width: width, height: height}, nil
}

// Width returns the target width in texels.
func (o *OffscreenTarget) Width() int { return o.width }

// Height returns the target height in texels.
func (o *OffscreenTarget) Height() int { return o.height }

// release deletes the framebuffer and its backing texture. Context thread
// only.
func (o *OffscreenTarget) release(g GL) {
	g.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
	g.DeleteFramebuffer(o.fbo)
	g.DeleteTexture(o.tex)
	o.fbo = gl.Framebuffer{}
	o.tex = gl.Texture{}
}
