package camtex

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Frame is one composited, read-back image delivered to a PixelSink.
type Frame struct {
	// Pixels holds Width*Height*4 bytes in RGBA order, bottom row first
	// (GL readback convention). The buffer is reused between frames; a
	// sink that keeps the data past the call must copy it.
	Pixels []byte

	// Width and Height are the offscreen target dimensions.
	Width  int
	Height int

	// Stride is the number of bytes per row, always Width*4.
	Stride int

	// Format identifies the pixel layout; always RGBA8.
	Format gputypes.TextureFormat

	// Interval is the elapsed time between this frame's and the previous
	// frame's presentation timestamps, for rate diagnostics. Zero for the
	// first frame.
	Interval time.Duration
}

// PixelSink receives the composited pixels after each offscreen draw. Called
// on the context thread, once per completed draw; a slow sink stalls the
// frame loop.
type PixelSink interface {
	HandleFrame(Frame)
}

// SinkFunc adapts a function to the PixelSink interface.
type SinkFunc func(Frame)

// HandleFrame calls f.
func (f SinkFunc) HandleFrame(fr Frame) { f(fr) }

// Camera is the external collaborator that produces decoded frames. The
// session hands it the frame stream during bootstrap; an error configuring
// against the stream is fatal and surfaces as a BootstrapError.
type Camera interface {
	Attach(FrameStream) error
}

// OrientationSource reports the current display orientation in degrees, one
// of 0, 90, 180, or 270. It is polled once per draw; there is no push
// interface.
type OrientationSource interface {
	OrientationDegrees() int
}

// FixedOrientation is an OrientationSource that always reports the same
// orientation. It is the default source, at 0 degrees, when no display
// collaborator is configured.
type FixedOrientation int

// OrientationDegrees returns the fixed orientation.
func (f FixedOrientation) OrientationDegrees() int { return int(f) }
