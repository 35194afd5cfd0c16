package camtex

import (
	"errors"
	"fmt"

	"golang.org/x/mobile/gl"
)

// Sentinel errors for state violations.
var (
	// ErrNotReady is returned when a frame operation runs before the
	// session has finished bootstrapping.
	ErrNotReady = errors.New("camtex: session not ready")

	// ErrClosed is returned when operating on a session that has been
	// shut down.
	ErrClosed = errors.New("camtex: session closed")

	// ErrNoFrame is returned by Consume when no frame-available signal is
	// pending. Consume is only legal while the dirty flag is set.
	ErrNoFrame = errors.New("camtex: no frame pending")
)

// BootstrapError reports a fatal failure while negotiating the graphics
// context, surface, or camera attachment. It aborts the session: the
// orchestrator releases whatever partial resources exist and moves straight
// to Destroyed.
type BootstrapError struct {
	// Op names the bootstrap step that failed, e.g. "eglChooseConfig".
	Op string

	// Err is the underlying cause, if the platform reported one.
	Err error
}

func (e *BootstrapError) Error() string {
	if e.Err == nil {
		return "camtex: bootstrap: " + e.Op + " failed"
	}
	return fmt.Sprintf("camtex: bootstrap: %s: %v", e.Op, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// CompileError reports a shader compile, program link, or handle lookup
// failure. Fatal: the pipeline has no partial or degraded rendering mode.
type CompileError struct {
	// Stage is one of "vertex", "fragment", "link", "lookup".
	Stage string

	// Log is the driver info log, or the missing handle name for lookup
	// failures.
	Log string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("camtex: shader %s failed: %s", e.Stage, e.Log)
}

// FramebufferError reports an incomplete offscreen framebuffer. Recoverable:
// the session logs it and falls back to on-surface rendering.
type FramebufferError struct {
	// Status is the value reported by CheckFramebufferStatus.
	Status gl.Enum
}

func (e *FramebufferError) Error() string {
	return fmt.Sprintf("camtex: framebuffer incomplete: status 0x%04x", uint32(e.Status))
}

// DrawError reports a failed program bind or draw call. It aborts the
// current frame only; the frame loop skips the frame and continues.
type DrawError struct {
	// Op names the failed call.
	Op string

	// Code is the GL error code reported after the call.
	Code gl.Enum
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("camtex: draw: %s: glError 0x%04x", e.Op, uint32(e.Code))
}
