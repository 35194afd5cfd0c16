package camtex

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/mobile/gl"
)

// Opaque platform handles, in the style of the GL binding layer's typed
// handles. The zero value of each is "no handle".
type (
	// Display is a connection to the platform's display server.
	Display struct{ Value uintptr }

	// Config is a negotiated pixel-format configuration.
	Config struct{ Value uintptr }

	// Context is a rendering context. Exactly one is live per session; it
	// is owned by the context thread and never shared.
	Context struct{ Value uintptr }

	// Surface is a drawable surface bound to a Context.
	Surface struct{ Value uintptr }

	// NativeWindow is the minimal buffer-backed drawable used to satisfy
	// surface creation during bootstrap.
	NativeWindow struct{ Value uintptr }
)

// ConfigSpec lists the color, depth, and stencil bit requirements for
// pixel-format negotiation. Bootstrap fails fatally when the platform has no
// matching configuration.
type ConfigSpec struct {
	RedBits     int
	GreenBits   int
	BlueBits    int
	AlphaBits   int
	DepthBits   int
	StencilBits int
}

// DefaultConfigSpec returns the pipeline's default requirements: RGB888, no
// alpha, no depth, no stencil. A simple 2D composite needs nothing more.
func DefaultConfigSpec() ConfigSpec {
	return ConfigSpec{RedBits: 8, GreenBits: 8, BlueBits: 8}
}

// Platform abstracts the EGL-style windowing API the bootstrap runs against.
// backend/eglx implements it for Linux; backend/nullgl implements it in
// memory.
//
// All methods except NewFrameStream's returned stream listener are called on
// the context thread.
type Platform interface {
	// Display connects to the default display and initializes it.
	Display() (Display, error)

	// ChooseConfig negotiates a pixel-format configuration matching the
	// spec. It returns an error when no configuration matches.
	ChooseConfig(d Display, spec ConfigSpec) (Config, error)

	// CreateContext creates a GLES2 rendering context.
	CreateContext(d Display, c Config) (Context, error)

	// NewTextureWindow constructs the minimal buffer-backed drawable that
	// surface creation requires, keyed by a reserved texture identifier.
	// The identifier is only a reservation: no GL texture object exists
	// for it yet, since no context is current.
	NewTextureWindow(texID uint32, width, height int) (NativeWindow, error)

	// CreateWindowSurface creates a drawable surface against the window.
	CreateWindowSurface(d Display, c Config, w NativeWindow) (Surface, error)

	// MakeCurrent binds the context and surface to the calling thread.
	MakeCurrent(d Display, s Surface, c Context) error

	// CurrentContext reports the context the driver considers current.
	// Bootstrap cross-checks it against what it created; a mismatch is a
	// silent driver failure and fatal.
	CurrentContext(d Display) Context

	// CurrentDrawSurface reports the draw surface the driver considers
	// current.
	CurrentDrawSurface(d Display) Surface

	// NewFrameStream binds a frame stream to the given external-image
	// texture. The camera collaborator writes decoded frames into it.
	NewFrameStream(tex gl.Texture) (FrameStream, error)

	// DestroySurface releases a surface.
	DestroySurface(d Display, s Surface) error

	// DestroyContext releases a context.
	DestroyContext(d Display, c Context) error
}

// FrameStream is the platform-owned channel through which decoded camera
// images reach the capture texture. It is the handle the session gives to
// the camera collaborator.
type FrameStream interface {
	// SetListener registers the frame-available callback. The platform
	// may invoke it from any thread; the callback must not issue GPU
	// calls. Pass nil to detach.
	SetListener(fn func())

	// UpdateImage latches the newest available camera image into the
	// bound external-image texture. Context thread only.
	UpdateImage() error

	// TransformMatrix returns the texture-space transform of the most
	// recently latched image. It maps the image's raw pixel layout into
	// normalized texture coordinates, with source-side crop and rotation
	// baked in.
	TransformMatrix() mgl32.Mat4

	// Timestamp returns the presentation timestamp, in nanoseconds, of
	// the most recently latched image.
	Timestamp() int64

	// Release frees platform resources held by the stream.
	Release()
}
