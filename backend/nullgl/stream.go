package nullgl

import (
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/camtex"
)

// Stream is the in-memory frame stream: the SurfaceTexture analog. A
// producer pushes synthetic images with Push from any goroutine; UpdateImage
// latches the most recent one into the device's capture texture on the
// context thread. Intermediate pushes between updates are dropped, matching
// the at-most-one-pending-frame contract.
type Stream struct {
	dev *Device
	tex uint32

	mu        sync.Mutex
	listener  func()
	pending   []byte
	pw, ph    int
	transform mgl32.Mat4
	latched   mgl32.Mat4
	ts        int64
	latchedTS int64
	released  bool

	// UpdateErr, when set, forces the next UpdateImage to fail.
	UpdateErr error
}

var _ camtex.FrameStream = (*Stream)(nil)

func newStream(dev *Device, tex uint32) *Stream {
	return &Stream{
		dev:       dev,
		tex:       tex,
		transform: mgl32.Ident4(),
		latched:   mgl32.Ident4(),
	}
}

// Push supplies a new synthetic camera image (RGBA, w*h*4 bytes) with its
// texture-space transform and presentation timestamp, then fires the
// frame-available listener. Safe from any goroutine.
func (s *Stream) Push(pix []byte, w, h int, transform mgl32.Mat4, ts int64) {
	s.mu.Lock()
	s.pending = append(s.pending[:0], pix...)
	s.pw, s.ph = w, h
	s.transform = transform
	s.ts = ts
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Stream) SetListener(fn func()) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

func (s *Stream) UpdateImage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return errors.New("nullgl: stream released")
	}
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if s.pending != nil {
		s.dev.mu.Lock()
		if tex := s.dev.textures[s.tex]; tex != nil {
			tex.width, tex.height = s.pw, s.ph
			tex.pix = append(tex.pix[:0], s.pending...)
		}
		s.dev.mu.Unlock()
		s.latched = s.transform
		s.latchedTS = s.ts
	}
	return nil
}

func (s *Stream) TransformMatrix() mgl32.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched
}

func (s *Stream) Timestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latchedTS
}

func (s *Stream) Release() {
	s.mu.Lock()
	s.released = true
	s.listener = nil
	s.mu.Unlock()
}

// Camera is a synthetic camera collaborator. It accepts the frame stream
// from the session during bootstrap and forwards pushed frames into it.
type Camera struct {
	mu     sync.Mutex
	stream *Stream

	// AttachErr, when set, makes Attach fail (bootstrap failure path).
	AttachErr error
}

var _ camtex.Camera = (*Camera)(nil)

// Attach records the stream the session hands over.
func (c *Camera) Attach(s camtex.FrameStream) error {
	if c.AttachErr != nil {
		return c.AttachErr
	}
	ns, ok := s.(*Stream)
	if !ok {
		return errors.New("nullgl: camera requires a nullgl stream")
	}
	c.mu.Lock()
	c.stream = ns
	c.mu.Unlock()
	return nil
}

// Stream returns the attached stream, or nil before Attach.
func (c *Camera) Stream() *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// Push forwards a synthetic frame to the attached stream. It reports false
// when no stream is attached yet.
func (c *Camera) Push(pix []byte, w, h int, transform mgl32.Mat4, ts int64) bool {
	c.mu.Lock()
	s := c.stream
	c.mu.Unlock()
	if s == nil {
		return false
	}
	s.Push(pix, w, h, transform, ts)
	return true
}
