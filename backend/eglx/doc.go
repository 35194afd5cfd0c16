// Package eglx implements the camtex Platform over EGL for Linux.
//
// It requires cgo and the EGL development headers, and is gated behind the
// "egl" build tag:
//
//	go build -tags egl ./...
//
// Plain Linux EGL has no texture-backed native window type, so the bootstrap
// drawable is a pbuffer surface sized like the requested window; the
// reserved texture identifier stays a reservation only, exactly as the
// pipeline's sentinel contract expects. Frame streams are platform-specific
// (they need an external image producer wired to the capture texture), so
// the embedder supplies them through WithStreamFactory.
package eglx
