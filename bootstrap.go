package camtex

import (
	"golang.org/x/mobile/gl"
)

// sentinelTextureID is the texture identifier reserved out-of-band for the
// bootstrap drawable. Surface creation needs a texture-backed window, but no
// texture can be allocated before a context is current: the reservation
// breaks that cycle. Id 0 is the GL "no texture" value, so 1 is the first
// value safe to reserve; allocTexture guarantees real textures never reuse
// it.
const sentinelTextureID uint32 = 1

// GraphicsContext bundles the display connection, negotiated configuration,
// rendering context, and bound drawable surface. Exactly one is live per
// session. It is created once during bootstrap, owned by the context thread,
// and destroyed once during shutdown; it must never be touched from any
// other thread.
type GraphicsContext struct {
	platform Platform
	display  Display
	config   Config
	context  Context
	surface  Surface
	sentinel uint32

	width, height int
}

// bootstrap is the two-phase builder for a GraphicsContext. Phase one
// reserves the sentinel texture identifier; phase two constructs the context
// against a drawable backed by that reservation. Keeping the reservation an
// explicit step makes the workaround a tested contract instead of a magic
// number buried in surface creation.
type bootstrap struct {
	platform Platform
	spec     ConfigSpec
	reserved uint32
}

func newBootstrap(p Platform, spec ConfigSpec) *bootstrap {
	return &bootstrap{platform: p, spec: spec}
}

// ReserveID reserves the sentinel texture identifier for the bootstrap
// drawable and returns it.
func (b *bootstrap) ReserveID() uint32 {
	b.reserved = sentinelTextureID
	return b.reserved
}

// ContextBackedBy runs the full bootstrap sequence against a drawable backed
// by the reserved identifier: display init, config negotiation, context
// creation, surface creation, make-current, and a cross-check that the
// driver agrees about what is current. Every failure releases the partial
// resources already created and returns a *BootstrapError.
//
// Must be called on the thread that will own the context from then on.
func (b *bootstrap) ContextBackedBy(texID uint32, width, height int) (*GraphicsContext, error) {
	p := b.platform

	d, err := p.Display()
	if err != nil {
		return nil, &BootstrapError{Op: "display init", Err: err}
	}

	cfg, err := p.ChooseConfig(d, b.spec)
	if err != nil {
		return nil, &BootstrapError{Op: "choose config", Err: err}
	}

	ctx, err := p.CreateContext(d, cfg)
	if err != nil {
		return nil, &BootstrapError{Op: "create context", Err: err}
	}

	win, err := p.NewTextureWindow(texID, width, height)
	if err != nil {
		_ = p.DestroyContext(d, ctx)
		return nil, &BootstrapError{Op: "texture window", Err: err}
	}

	surf, err := p.CreateWindowSurface(d, cfg, win)
	if err != nil {
		_ = p.DestroyContext(d, ctx)
		return nil, &BootstrapError{Op: "create surface", Err: err}
	}

	if err := p.MakeCurrent(d, surf, ctx); err != nil {
		_ = p.DestroySurface(d, surf)
		_ = p.DestroyContext(d, ctx)
		return nil, &BootstrapError{Op: "make current", Err: err}
	}

	// Some drivers report success from make-current and silently leave a
	// different context bound. Trust only what they report back.
	if p.CurrentContext(d) != ctx || p.CurrentDrawSurface(d) != surf {
		_ = p.DestroySurface(d, surf)
		_ = p.DestroyContext(d, ctx)
		return nil, &BootstrapError{Op: "verify current"}
	}

	Logger().Info("graphics context created", "width", width, "height", height)

	return &GraphicsContext{
		platform: p,
		display:  d,
		config:   cfg,
		context:  ctx,
		surface:  surf,
		sentinel: texID,
		width:    width,
		height:   height,
	}, nil
}

// allocTexture allocates a GL texture object, skipping the sentinel value so
// real textures can never collide with the bootstrap reservation. Context
// thread only.
func (gc *GraphicsContext) allocTexture(g GL) gl.Texture {
	t := g.CreateTexture()
	if t.Value != gc.sentinel {
		return t
	}
	replacement := g.CreateTexture()
	g.DeleteTexture(t)
	return replacement
}

// destroy releases the surface and context, in that order. Context thread
// only; call exactly once.
func (gc *GraphicsContext) destroy() {
	if err := gc.platform.DestroySurface(gc.display, gc.surface); err != nil {
		Logger().Warn("destroy surface", "err", err)
	}
	if err := gc.platform.DestroyContext(gc.display, gc.context); err != nil {
		Logger().Warn("destroy context", "err", err)
	}
	gc.surface = Surface{}
	gc.context = Context{}
}
