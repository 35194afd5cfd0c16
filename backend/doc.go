// Package backend provides a pluggable device registry for camtex.
//
// A backend supplies the two halves a session runs against: a GL binding
// and a Platform. Self-contained backends register themselves via init()
// and are selected at runtime:
//
//	import _ "github.com/gogpu/camtex/backend/nullgl"
//
//	g, p, err := backend.OpenDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess := camtex.New(g, p, camera)
//
// Use Open to request a specific backend by name:
//
//	g, p, err := backend.Open(backend.BackendNull)
//
// # Embedder-driven backends
//
// Backends that depend on resources only the embedding application holds,
// such as a live EGL context, cannot construct themselves from nothing.
// backend/eglx is one: the embedder creates the platform and binds its own
// GL context, then may register the pair for the rest of the program:
//
//	backend.Register("egl", func() (camtex.GL, camtex.Platform, error) {
//		return glctx, eglx.New(eglx.WithStreamFactory(streams)), nil
//	})
//
// # Available backends
//
//   - "null": in-memory device, always available (backend/nullgl)
//   - "egl": EGL platform for Linux, embedder-registered (backend/eglx)
package backend
