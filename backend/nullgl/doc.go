// Package nullgl is a pure-Go, in-memory implementation of the camtex GL
// and Platform interfaces. It simulates texture, buffer, program, and
// framebuffer allocation, shader compile/link, quad draws, and pixel
// readback without a GPU, which makes the whole pipeline runnable headless:
// in tests, in CI, and in the demo command.
//
// The simulation is deliberately shallow: a draw copies the capture
// texture's current image onto the bound target with nearest-neighbor
// scaling, ignoring the transform matrices (which are recorded and can be
// inspected instead). That is enough to verify frame flow, resource
// lifetime, and error propagation end to end.
//
// Device doubles as a fault injector. Exported fields such as
// CompileFailStage, LinkFail, FramebufferStatus, and DrawFailCode force the
// corresponding failure on the next matching call, so every error path of
// the pipeline can be exercised deterministically.
package nullgl
