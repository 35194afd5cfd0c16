package camtex

import "fmt"

// Option configures a Session during creation.
//
// Example:
//
//	s := camtex.New(g, platform, camera,
//	    camtex.WithSurfaceSize(1280, 720),
//	    camtex.WithOffscreenTarget(640, 480, sink),
//	    camtex.WithClearColor(camtex.RGBA{A: 1}),
//	)
type Option func(*sessionOptions)

// sessionOptions holds optional configuration for Session creation.
type sessionOptions struct {
	width, height int
	spec          ConfigSpec
	clear         RGBA
	order         ChannelOrder
	orientation   OrientationSource
	offscreenW    int
	offscreenH    int
	sink          PixelSink
	useOffscreen  bool
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		width:       640,
		height:      480,
		spec:        DefaultConfigSpec(),
		clear:       DefaultClearColor,
		order:       ChannelRGBA,
		orientation: FixedOrientation(0),
	}
}

// validate rejects configurations the pipeline cannot honor. Surfaced from
// Run as a bootstrap failure so callers have one place to check.
func (o *sessionOptions) validate() error {
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("camtex: invalid surface size %dx%d", o.width, o.height)
	}
	if !o.order.valid() {
		return fmt.Errorf("camtex: invalid channel order %d", int(o.order))
	}
	if o.useOffscreen {
		if o.offscreenW <= 0 || o.offscreenH <= 0 {
			return fmt.Errorf("camtex: invalid offscreen size %dx%d", o.offscreenW, o.offscreenH)
		}
		if o.sink == nil {
			return fmt.Errorf("camtex: offscreen target requires a sink")
		}
	}
	return nil
}

// WithSurfaceSize sets the bootstrap surface dimensions. Default 640x480.
func WithSurfaceSize(width, height int) Option {
	return func(o *sessionOptions) {
		o.width = width
		o.height = height
	}
}

// WithConfigSpec overrides the pixel-format requirements used during
// context negotiation.
func WithConfigSpec(spec ConfigSpec) Option {
	return func(o *sessionOptions) { o.spec = spec }
}

// WithClearColor overrides the per-frame clear color. The default is the
// pipeline's traditional olive green, kept visible so a stuck camera is
// immediately recognizable.
func WithClearColor(c RGBA) Option {
	return func(o *sessionOptions) { o.clear = c }
}

// WithChannelOrder selects the sampler swizzle. Use ChannelARGB for camera
// formats that deliver the alpha channel first; the value is validated at
// Run.
func WithChannelOrder(order ChannelOrder) Option {
	return func(o *sessionOptions) { o.order = order }
}

// WithOrientation sets the display collaborator polled once per draw for
// the device rotation. Default is a fixed 0 degrees.
func WithOrientation(src OrientationSource) Option {
	return func(o *sessionOptions) {
		if src != nil {
			o.orientation = src
		}
	}
}

// WithOffscreenTarget redirects composited frames into an offscreen
// framebuffer of the given texel dimensions and delivers the read-back
// pixels to sink after every draw. Without this option frames render to the
// bootstrap surface.
func WithOffscreenTarget(width, height int, sink PixelSink) Option {
	return func(o *sessionOptions) {
		o.useOffscreen = true
		o.offscreenW = width
		o.offscreenH = height
		o.sink = sink
	}
}
