// Package camtex turns a continuously updating camera image stream into a
// GPU-sampleable texture and composites it through a small shader pass that
// corrects device rotation and aspect ratio.
//
// # Overview
//
// Camera hardware delivers decoded frames into an external-image texture (a
// GLES texture whose contents are written by the platform, not by explicit
// upload, and sampled through samplerExternalOES). camtex owns that texture,
// tracks the frame-available signal, and draws each latched frame as a
// textured quad either to the bootstrap surface or into an offscreen
// framebuffer whose pixels are read back and handed to a caller-supplied
// sink.
//
// # Actors
//
// Two logical actors drive the pipeline:
//
//   - The signal thread, owned by the camera collaborator. It may only set
//     the frame-available flag; no GPU call is legal there.
//   - The context thread, the single OS thread on which the graphics context
//     is current. All GPU work, including pulling the newest camera image
//     into the capture texture, happens here. Session.Run locks this thread
//     and owns it until shutdown.
//
// The two are bridged by a single dirty flag with mutual exclusion between
// setter and consumer. There is no frame queue: if several frames arrive
// between draws, only the most recent one is composited (lossy coalescing).
//
// # Quick start
//
//	dev := nullgl.New() // or a real gl.Context + EGL platform
//	sink := camtex.SinkFunc(func(f camtex.Frame) { /* consume RGBA pixels */ })
//	s := camtex.New(dev, dev, camera,
//	    camtex.WithSurfaceSize(640, 480),
//	    camtex.WithOffscreenTarget(640, 480, sink),
//	)
//	errc := s.Start()
//	stream, err := s.Stream(ctx) // blocks until the pipeline is ready
//	// ... hand stream to the camera, frames now flow to sink ...
//	s.Close()
//	<-errc
//
// # Backends
//
// The pipeline talks to the GPU through the narrow GL interface and to the
// windowing system through Platform. backend/nullgl provides a pure-Go
// in-memory implementation of both for tests and headless use; backend/eglx
// (build tag "egl") provides an EGL/GLESv2 platform for Linux.
package camtex

// Version is the current version of the library.
const Version = "0.1.0"
