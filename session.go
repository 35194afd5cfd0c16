package camtex

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// State is the lifecycle state of a Session.
type State int32

const (
	// StateUninitialized is the state before Run is called.
	StateUninitialized State = iota

	// StateBootstrapping covers context, shader, and texture setup.
	StateBootstrapping

	// StateReady means the pipeline is live and cycling on frames.
	StateReady

	// StateDestroyed is terminal: all GPU resources are released.
	StateDestroyed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateBootstrapping:
		return "Bootstrapping"
	case StateReady:
		return "Ready"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

var errAlreadyStarted = errors.New("camtex: session already started")

// Session orchestrates the pipeline: bootstrap, texture and program setup,
// the steady-state frame loop, and teardown. Run owns the context thread;
// Close and Stream are safe from any thread.
type Session struct {
	g        GL
	platform Platform
	camera   Camera
	opts     sessionOptions

	mu     sync.Mutex
	state  State
	runErr error
	bridge *CaptureBridge

	ready     chan struct{} // closed on Ready or terminal failure
	readyOnce sync.Once
	quit      chan struct{}
	quitOnce  sync.Once
	done      chan struct{} // closed when Run has fully exited

	resizeMu      sync.Mutex
	resizeW       int
	resizeH       int
	resizePending bool

	// Context-thread only.
	gc   *GraphicsContext
	prog program
	off  *OffscreenTarget
	st   *RenderState
}

// New creates a Session over the given GL binding, platform, and camera
// collaborator. Nothing touches the GPU until Run.
func New(g GL, platform Platform, camera Camera, opts ...Option) *Session {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		g:        g,
		platform: platform,
		camera:   camera,
		opts:     o,
		ready:    make(chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run executes the session to completion: bootstrap, frame loop, teardown.
// It locks the calling goroutine to its OS thread, which becomes the context
// thread; every GPU call happens here. Run returns the bootstrap failure, if
// any, after releasing partial resources; after a clean Close it returns
// nil. Run may be called once.
func (s *Session) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return errAlreadyStarted
	}
	s.state = StateBootstrapping
	s.mu.Unlock()

	if err := s.bootstrapAll(); err != nil {
		s.mu.Lock()
		s.runErr = err
		s.state = StateDestroyed
		s.mu.Unlock()
		s.readyOnce.Do(func() { close(s.ready) })
		close(s.done)
		return err
	}

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
	Logger().Info("pipeline ready")

	s.loop()
	s.teardown()

	s.mu.Lock()
	s.state = StateDestroyed
	s.mu.Unlock()
	close(s.done)
	return nil
}

// Start runs the session on its own goroutine and returns a channel that
// receives Run's result.
func (s *Session) Start() <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- s.Run() }()
	return errc
}

// bootstrapAll runs the full creation sequence. On any failure it releases
// whatever was already created, in reverse order, and returns the error.
func (s *Session) bootstrapAll() error {
	if err := s.opts.validate(); err != nil {
		return &BootstrapError{Op: "validate options", Err: err}
	}

	b := newBootstrap(s.platform, s.opts.spec)
	sentinel := b.ReserveID()
	gc, err := b.ContextBackedBy(sentinel, s.opts.width, s.opts.height)
	if err != nil {
		return err
	}
	s.gc = gc

	prog, err := compileAndLink(s.g, vertexShaderSrc, fragmentShaderFor(s.opts.order))
	if err != nil {
		gc.destroy()
		s.gc = nil
		return err
	}
	s.prog = prog

	bridge, err := newCaptureBridge(s.g, gc, s.platform)
	if err != nil {
		prog.release(s.g)
		gc.destroy()
		s.gc = nil
		return err
	}

	if err := s.camera.Attach(bridge.Stream()); err != nil {
		bridge.CloseSignal()
		bridge.release(s.g)
		prog.release(s.g)
		gc.destroy()
		s.gc = nil
		return &BootstrapError{Op: "camera attach", Err: err}
	}

	s.mu.Lock()
	s.bridge = bridge
	s.mu.Unlock()

	s.st = newRenderState(s.g, prog, bridge.Texture(), s.opts.width, s.opts.height, s.opts.clear)

	if s.opts.useOffscreen {
		off, err := newOffscreenTarget(s.g, gc, s.opts.offscreenW, s.opts.offscreenH)
		var fbErr *FramebufferError
		switch {
		case err == nil:
			s.off = off
			s.st.setOffscreen(off)
		case errors.As(err, &fbErr):
			// Recoverable: keep the session alive on the surface.
			Logger().Warn("offscreen target unavailable, rendering to surface", "err", err)
		default:
			s.releaseAll()
			return err
		}
	}

	// A shutdown requested during bootstrap takes effect before the first
	// frame; the loop observes the closed bridge immediately.
	select {
	case <-s.quit:
		s.bridge.CloseSignal()
	default:
	}
	return nil
}

// loop is the steady-state frame cycle: wait for the frame-available signal,
// consume the newest camera image, draw. A failed draw skips that frame
// only. The loop exits at an iteration boundary once Close has run, never
// mid-draw.
func (s *Session) loop() {
	for {
		s.mu.Lock()
		bridge := s.bridge
		s.mu.Unlock()
		if !bridge.WaitFrame() {
			return
		}
		if err := s.frameCycle(); err != nil {
			if errors.Is(err, ErrClosed) {
				return
			}
			Logger().Warn("frame skipped", "err", err)
		}
	}
}

// frameCycle consumes one pending frame and draws it. ErrNotReady before
// bootstrap has completed; ErrNoFrame when no signal is pending.
func (s *Session) frameCycle() error {
	s.mu.Lock()
	ready := s.state == StateReady
	bridge := s.bridge
	s.mu.Unlock()
	if !ready || bridge == nil {
		return ErrNotReady
	}

	s.applyPendingResize()

	stMat, ts, err := bridge.Consume()
	if err != nil {
		return err
	}
	return s.st.drawFrame(s.g, s.opts.orientation.OrientationDegrees(), stMat, ts, s.opts.sink)
}

// Resize records new surface dimensions; the viewport and projection are
// recomputed on the context thread before the next draw.
func (s *Session) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.resizeMu.Lock()
	s.resizeW, s.resizeH = width, height
	s.resizePending = true
	s.resizeMu.Unlock()
}

func (s *Session) applyPendingResize() {
	s.resizeMu.Lock()
	pending, w, h := s.resizePending, s.resizeW, s.resizeH
	s.resizePending = false
	s.resizeMu.Unlock()
	if pending {
		s.st.resize(s.g, w, h)
		s.opts.width, s.opts.height = w, h
	}
}

// teardown releases everything in reverse creation order: signal detach,
// render state, offscreen target, program, capture texture, then surface and
// context. Runs on the context thread after the loop has exited, so no draw
// is in flight.
func (s *Session) teardown() {
	s.mu.Lock()
	bridge := s.bridge
	s.mu.Unlock()
	if bridge != nil {
		bridge.CloseSignal()
	}
	s.releaseAll()
	Logger().Info("pipeline destroyed")
}

func (s *Session) releaseAll() {
	if s.st != nil {
		s.st.release(s.g)
		s.st = nil
	}
	if s.off != nil {
		s.off.release(s.g)
		s.off = nil
	}
	s.prog.release(s.g)
	s.mu.Lock()
	bridge := s.bridge
	s.bridge = nil
	s.mu.Unlock()
	if bridge != nil {
		bridge.release(s.g)
	}
	if s.gc != nil {
		s.gc.destroy()
		s.gc = nil
	}
}

// Close requests shutdown. Safe from any thread and idempotent; it wakes the
// frame loop, which exits at the next iteration boundary. GPU resources are
// released only after the loop has observably exited; Close never interrupts
// an in-flight draw.
func (s *Session) Close() error {
	s.quitOnce.Do(func() {
		close(s.quit)
		s.mu.Lock()
		bridge := s.bridge
		s.mu.Unlock()
		if bridge != nil {
			bridge.CloseSignal()
		}
		// Unblock Stream callers if the session never reached Ready.
		s.readyOnce.Do(func() { close(s.ready) })
	})
	return nil
}

// Stream blocks until bootstrap completes and returns the frame stream the
// camera writes to. The wait is bounded by ctx. If the session failed to
// bootstrap, the failure is returned instead of a permanent stall.
func (s *Session) Stream(ctx context.Context) (FrameStream, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runErr != nil {
		return nil, s.runErr
	}
	if s.bridge == nil {
		return nil, ErrClosed
	}
	return s.bridge.Stream(), nil
}

// Err reports the fatal error that destroyed the session, or nil. Callers
// must check it after bootstrap before relying on the capture stream.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once Run has fully exited and all resources are released.
func (s *Session) Done() <-chan struct{} { return s.done }
