//go:build egl && linux && cgo

package eglx

/*
#cgo LDFLAGS: -lEGL
#include <EGL/egl.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/mobile/gl"

	"github.com/gogpu/camtex"
)

// StreamFactory builds a FrameStream bound to the given capture texture id.
// The embedder provides it because frame delivery into an external-image
// texture is inherently platform-specific (EGLImage, v4l2, gstreamer, ...).
type StreamFactory func(texID uint32) (camtex.FrameStream, error)

// Option configures a Platform.
type Option func(*Platform)

// WithStreamFactory installs the embedder's frame-stream constructor.
func WithStreamFactory(f StreamFactory) Option {
	return func(p *Platform) { p.streams = f }
}

// Platform is the EGL-backed camtex.Platform.
type Platform struct {
	mu      sync.Mutex
	windows map[uintptr]windowSpec
	nextWin uintptr
	streams StreamFactory
}

type windowSpec struct {
	texID         uint32
	width, height int
}

// New creates an EGL platform.
func New(opts ...Option) *Platform {
	p := &Platform{windows: make(map[uintptr]windowSpec)}
	for _, o := range opts {
		o(p)
	}
	return p
}

var _ camtex.Platform = (*Platform)(nil)

func eglErr(op string) error {
	return fmt.Errorf("eglx: %s: egl error 0x%04x", op, uint32(C.eglGetError()))
}

// Display connects to the default EGL display and initializes it.
func (p *Platform) Display() (camtex.Display, error) {
	dpy := C.eglGetDisplay(C.EGLNativeDisplayType(unsafe.Pointer(nil)))
	if dpy == C.EGLDisplay(unsafe.Pointer(nil)) {
		return camtex.Display{}, errors.New("eglx: eglGetDisplay: no default display")
	}
	var major, minor C.EGLint
	if C.eglInitialize(dpy, &major, &minor) == C.EGL_FALSE {
		return camtex.Display{}, eglErr("eglInitialize")
	}
	return camtex.Display{Value: uintptr(unsafe.Pointer(dpy))}, nil
}

// ChooseConfig negotiates an ES2 pbuffer-capable configuration matching the
// spec's bit requirements.
func (p *Platform) ChooseConfig(d camtex.Display, spec camtex.ConfigSpec) (camtex.Config, error) {
	dpy := C.EGLDisplay(unsafe.Pointer(d.Value))
	attribs := []C.EGLint{
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_ES2_BIT,
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RED_SIZE, C.EGLint(spec.RedBits),
		C.EGL_GREEN_SIZE, C.EGLint(spec.GreenBits),
		C.EGL_BLUE_SIZE, C.EGLint(spec.BlueBits),
		C.EGL_ALPHA_SIZE, C.EGLint(spec.AlphaBits),
		C.EGL_DEPTH_SIZE, C.EGLint(spec.DepthBits),
		C.EGL_STENCIL_SIZE, C.EGLint(spec.StencilBits),
		C.EGL_NONE,
	}
	var cfg C.EGLConfig
	var count C.EGLint
	if C.eglChooseConfig(dpy, &attribs[0], &cfg, 1, &count) == C.EGL_FALSE {
		return camtex.Config{}, eglErr("eglChooseConfig")
	}
	if count == 0 {
		return camtex.Config{}, fmt.Errorf("eglx: no config matches %+v", spec)
	}
	return camtex.Config{Value: uintptr(unsafe.Pointer(cfg))}, nil
}

// CreateContext creates a GLES2 context.
func (p *Platform) CreateContext(d camtex.Display, c camtex.Config) (camtex.Context, error) {
	dpy := C.EGLDisplay(unsafe.Pointer(d.Value))
	cfg := C.EGLConfig(unsafe.Pointer(c.Value))
	attribs := []C.EGLint{C.EGL_CONTEXT_CLIENT_VERSION, 2, C.EGL_NONE}
	ctx := C.eglCreateContext(dpy, cfg, C.EGLContext(unsafe.Pointer(nil)), &attribs[0])
	if ctx == C.EGLContext(unsafe.Pointer(nil)) {
		return camtex.Context{}, eglErr("eglCreateContext")
	}
	return camtex.Context{Value: uintptr(unsafe.Pointer(ctx))}, nil
}

// NewTextureWindow records the reservation. EGL on plain Linux has no
// texture-backed window; the surface will be a pbuffer of these dimensions.
func (p *Platform) NewTextureWindow(texID uint32, width, height int) (camtex.NativeWindow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextWin++
	p.windows[p.nextWin] = windowSpec{texID: texID, width: width, height: height}
	return camtex.NativeWindow{Value: p.nextWin}, nil
}

// CreateWindowSurface creates the pbuffer surface for the recorded window.
func (p *Platform) CreateWindowSurface(d camtex.Display, c camtex.Config, w camtex.NativeWindow) (camtex.Surface, error) {
	p.mu.Lock()
	spec, ok := p.windows[w.Value]
	p.mu.Unlock()
	if !ok {
		return camtex.Surface{}, errors.New("eglx: unknown native window")
	}
	dpy := C.EGLDisplay(unsafe.Pointer(d.Value))
	cfg := C.EGLConfig(unsafe.Pointer(c.Value))
	attribs := []C.EGLint{
		C.EGL_WIDTH, C.EGLint(spec.width),
		C.EGL_HEIGHT, C.EGLint(spec.height),
		C.EGL_NONE,
	}
	surf := C.eglCreatePbufferSurface(dpy, cfg, &attribs[0])
	if surf == C.EGLSurface(unsafe.Pointer(nil)) {
		return camtex.Surface{}, eglErr("eglCreatePbufferSurface")
	}
	return camtex.Surface{Value: uintptr(unsafe.Pointer(surf))}, nil
}

// MakeCurrent binds the surface and context to the calling thread.
func (p *Platform) MakeCurrent(d camtex.Display, s camtex.Surface, c camtex.Context) error {
	dpy := C.EGLDisplay(unsafe.Pointer(d.Value))
	surf := C.EGLSurface(unsafe.Pointer(s.Value))
	ctx := C.EGLContext(unsafe.Pointer(c.Value))
	if C.eglMakeCurrent(dpy, surf, surf, ctx) == C.EGL_FALSE {
		return eglErr("eglMakeCurrent")
	}
	return nil
}

// CurrentContext reports the thread's current context.
func (p *Platform) CurrentContext(camtex.Display) camtex.Context {
	return camtex.Context{Value: uintptr(unsafe.Pointer(C.eglGetCurrentContext()))}
}

// CurrentDrawSurface reports the thread's current draw surface.
func (p *Platform) CurrentDrawSurface(camtex.Display) camtex.Surface {
	return camtex.Surface{Value: uintptr(unsafe.Pointer(C.eglGetCurrentSurface(C.EGL_DRAW)))}
}

// NewFrameStream delegates to the embedder's factory.
func (p *Platform) NewFrameStream(tex gl.Texture) (camtex.FrameStream, error) {
	if p.streams == nil {
		return nil, errors.New("eglx: no stream factory configured")
	}
	return p.streams(tex.Value)
}

// DestroySurface releases the surface.
func (p *Platform) DestroySurface(d camtex.Display, s camtex.Surface) error {
	dpy := C.EGLDisplay(unsafe.Pointer(d.Value))
	if C.eglDestroySurface(dpy, C.EGLSurface(unsafe.Pointer(s.Value))) == C.EGL_FALSE {
		return eglErr("eglDestroySurface")
	}
	return nil
}

// DestroyContext releases the context.
func (p *Platform) DestroyContext(d camtex.Display, c camtex.Context) error {
	dpy := C.EGLDisplay(unsafe.Pointer(d.Value))
	if C.eglDestroyContext(dpy, C.EGLContext(unsafe.Pointer(c.Value))) == C.EGL_FALSE {
		return eglErr("eglDestroyContext")
	}
	return nil
}
