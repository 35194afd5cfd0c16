package camtex

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/mobile/gl"
)

// CaptureBridge owns the external-image capture texture and its frame
// stream, and carries the single dirty flag that connects the camera's
// signal thread to the context thread.
//
// FrameArrived may be called from any thread and performs no GPU work.
// WaitFrame, Consume, and release are context-thread only. The dirty flag's
// set and clear-and-consume are mutually exclusive, so a signal arriving
// during Consume is never lost and never produces a second consume. There is
// no frame queue: between two draws only the most recent camera image
// survives.
type CaptureBridge struct {
	tex    gl.Texture
	stream FrameStream

	mu     sync.Mutex
	cond   *sync.Cond
	dirty  bool
	closed bool
}

// newCaptureBridge allocates the external-image texture, configures its
// sampling parameters, and binds a platform frame stream to it. Context
// thread only.
func newCaptureBridge(g GL, gc *GraphicsContext, p Platform) (*CaptureBridge, error) {
	tex := gc.allocTexture(g)
	g.BindTexture(TextureExternalOES, tex)
	glErrors(g, "glBindTexture external")
	g.TexParameteri(TextureExternalOES, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	g.TexParameteri(TextureExternalOES, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	g.TexParameteri(TextureExternalOES, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	g.TexParameteri(TextureExternalOES, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	stream, err := p.NewFrameStream(tex)
	if err != nil {
		g.DeleteTexture(tex)
		return nil, &BootstrapError{Op: "frame stream", Err: err}
	}

	b := &CaptureBridge{tex: tex, stream: stream}
	b.cond = sync.NewCond(&b.mu)
	stream.SetListener(b.FrameArrived)
	return b, nil
}

// Stream returns the frame stream handle the camera collaborator writes
// frames to.
func (b *CaptureBridge) Stream() FrameStream { return b.stream }

// Texture returns the capture texture identifier.
func (b *CaptureBridge) Texture() gl.Texture { return b.tex }

// FrameArrived records that a new camera image is available and wakes the
// frame loop. Safe from any thread; it only sets the dirty flag. Signals are
// coalesced: N arrivals between two draws produce one consume of the newest
// image, and the older ones are dropped.
func (b *CaptureBridge) FrameArrived() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
	b.cond.Signal()
}

// WaitFrame blocks until a frame is pending or the bridge is closed. It
// returns true when a frame is pending, false on close. Context thread only.
func (b *CaptureBridge) WaitFrame() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.dirty && !b.closed {
		b.cond.Wait()
	}
	return !b.closed
}

// Consume latches the newest camera image into the capture texture and
// returns its texture-space transform and presentation timestamp. It is
// legal only while the dirty flag is set (ErrNoFrame otherwise) and clears
// the flag atomically with respect to FrameArrived. Context thread only.
func (b *CaptureBridge) Consume() (mgl32.Mat4, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return mgl32.Ident4(), 0, ErrClosed
	}
	if !b.dirty {
		return mgl32.Ident4(), 0, ErrNoFrame
	}
	if err := b.stream.UpdateImage(); err != nil {
		// Leave the flag set: the image is still pending and a later
		// cycle may succeed.
		return mgl32.Ident4(), 0, err
	}
	b.dirty = false
	return b.stream.TransformMatrix(), b.stream.Timestamp(), nil
}

// CloseSignal detaches the frame-available listener and wakes any waiter.
// Safe from any thread; idempotent.
func (b *CaptureBridge) CloseSignal() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.stream.SetListener(nil)
	b.cond.Broadcast()
}

// release frees the stream and capture texture. Context thread only; call
// after CloseSignal and after the frame loop has exited.
func (b *CaptureBridge) release(g GL) {
	b.stream.Release()
	if b.tex.Value != 0 {
		g.DeleteTexture(b.tex)
		b.tex = gl.Texture{}
	}
}
