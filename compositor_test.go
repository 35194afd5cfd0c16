package camtex

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"golang.org/x/mobile/gl"
)

func testProgram() program {
	return program{
		id:    gl.Program{Init: true, Value: 1},
		mvp:   gl.Uniform{Value: fakeUniforms["uMVPMatrix"]},
		st:    gl.Uniform{Value: fakeUniforms["uSTMatrix"]},
		ratio: gl.Uniform{Value: fakeUniforms["uCRatio"]},
		pos:   gl.Attrib{Value: fakeAttribs["aPosition"]},
		uv:    gl.Attrib{Value: fakeAttribs["aTextureCoord"]},
	}
}

func TestNewRenderState(t *testing.T) {
	g := newFakeGL()
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)
	if len(g.liveBuffers) != 1 {
		t.Errorf("quad buffer count = %d, want 1", len(g.liveBuffers))
	}
	if st.width != 640 || st.height != 480 {
		t.Errorf("render state is %dx%d, want 640x480", st.width, st.height)
	}
	st.release(g)
	if len(g.liveBuffers) != 0 {
		t.Error("quad buffer leaked")
	}
}

func TestDrawFrameUploadsTransforms(t *testing.T) {
	g := newFakeGL()
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	stMat := mgl32.Translate3D(0.25, 0, 0)
	if err := st.drawFrame(g, 90, stMat, 1_000_000, nil); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}

	wantMVP := st.transforms.Projection.Mul4(rotationFor(90)).Mul4(st.transforms.View)
	gotMVP := g.uniforms[fakeUniforms["uMVPMatrix"]]
	if len(gotMVP) != 16 {
		t.Fatalf("uMVPMatrix upload has %d elements, want 16", len(gotMVP))
	}
	for i := range wantMVP {
		if gotMVP[i] != wantMVP[i] {
			t.Fatalf("uMVPMatrix[%d] = %v, want %v", i, gotMVP[i], wantMVP[i])
		}
	}

	gotST := g.uniforms[fakeUniforms["uSTMatrix"]]
	for i := range stMat {
		if gotST[i] != stMat[i] {
			t.Fatalf("uSTMatrix[%d] = %v, want %v", i, gotST[i], stMat[i])
		}
	}

	gotRatio := g.uniforms[fakeUniforms["uCRatio"]]
	if len(gotRatio) != 1 || gotRatio[0] != aspect(640, 480) {
		t.Errorf("uCRatio = %v, want [%v]", gotRatio, aspect(640, 480))
	}

	if g.drawCalls != 1 {
		t.Errorf("draw calls = %d, want 1", g.drawCalls)
	}
}

func TestDrawFrameErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*fakeGL)
		wantOp string
	}{
		{
			name:   "program bind",
			setup:  func(g *fakeGL) { g.useProgramErr = gl.INVALID_OPERATION },
			wantOp: "glUseProgram",
		},
		{
			name:   "draw call",
			setup:  func(g *fakeGL) { g.drawErr = gl.INVALID_OPERATION },
			wantOp: "glDrawArrays",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGL()
			st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)
			tt.setup(g)

			err := st.drawFrame(g, 0, mgl32.Ident4(), 0, nil)
			var de *DrawError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want *DrawError", err)
			}
			if de.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", de.Op, tt.wantOp)
			}
			if de.Code != gl.INVALID_OPERATION {
				t.Errorf("Code = 0x%04x, want GL_INVALID_OPERATION", uint32(de.Code))
			}
		})
	}
}

func TestDrawFrameSurvivesTransientErrors(t *testing.T) {
	g := newFakeGL()
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	// An error raised outside the program-bind and draw paths is drained
	// and logged but does not abort the frame.
	g.bindTexErr = gl.INVALID_ENUM
	if err := st.drawFrame(g, 0, mgl32.Ident4(), 0, nil); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}
	if len(g.errq) != 0 {
		t.Error("error queue not drained")
	}
}

func TestDrawFrameOffscreenReadback(t *testing.T) {
	g := newFakeGL()
	gc := &GraphicsContext{sentinel: sentinelTextureID}
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	o, err := newOffscreenTarget(g, gc, 64, 48)
	if err != nil {
		t.Fatalf("newOffscreenTarget: %v", err)
	}
	st.setOffscreen(o)
	if len(st.pixels) != 64*48*4 {
		t.Fatalf("readback buffer is %d bytes, want %d", len(st.pixels), 64*48*4)
	}

	var frames []Frame
	sink := SinkFunc(func(f Frame) { frames = append(frames, f) })

	if err := st.drawFrame(g, 0, mgl32.Ident4(), 10_000_000, sink); err != nil {
		t.Fatalf("first drawFrame: %v", err)
	}
	if err := st.drawFrame(g, 0, mgl32.Ident4(), 43_000_000, sink); err != nil {
		t.Fatalf("second drawFrame: %v", err)
	}

	if len(frames) != 2 {
		t.Fatalf("sink received %d frames, want 2", len(frames))
	}
	f := frames[1]
	if f.Width != 64 || f.Height != 48 || f.Stride != 64*4 {
		t.Errorf("frame geometry %dx%d stride %d, want 64x48 stride 256", f.Width, f.Height, f.Stride)
	}
	if len(f.Pixels) != 64*48*4 {
		t.Errorf("frame payload is %d bytes, want %d", len(f.Pixels), 64*48*4)
	}
	if f.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("frame format = %v, want RGBA8Unorm", f.Format)
	}
	if frames[0].Interval != 0 {
		t.Errorf("first frame interval = %v, want 0", frames[0].Interval)
	}
	if f.Interval != 33*time.Millisecond {
		t.Errorf("second frame interval = %v, want 33ms", f.Interval)
	}
	if g.readbacks != 2 {
		t.Errorf("readbacks = %d, want 2", g.readbacks)
	}
}

func TestDrawFrameViewportTracksTarget(t *testing.T) {
	g := newFakeGL()
	gc := &GraphicsContext{sentinel: sentinelTextureID}
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	o, err := newOffscreenTarget(g, gc, 64, 48)
	if err != nil {
		t.Fatalf("newOffscreenTarget: %v", err)
	}
	st.setOffscreen(o)

	if err := st.drawFrame(g, 0, mgl32.Ident4(), 0, nil); err != nil {
		t.Fatalf("offscreen drawFrame: %v", err)
	}
	if g.viewport != [4]int{0, 0, 64, 48} {
		t.Errorf("offscreen viewport = %v, want [0 0 64 48]", g.viewport)
	}

	st.setOffscreen(nil)
	if err := st.drawFrame(g, 0, mgl32.Ident4(), 0, nil); err != nil {
		t.Fatalf("surface drawFrame: %v", err)
	}
	if g.viewport != [4]int{0, 0, 640, 480} {
		t.Errorf("surface viewport = %v, want [0 0 640 480]", g.viewport)
	}
}

func TestDrawFrameIntervalSpansSkippedFrame(t *testing.T) {
	g := newFakeGL()
	gc := &GraphicsContext{sentinel: sentinelTextureID}
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	o, err := newOffscreenTarget(g, gc, 64, 48)
	if err != nil {
		t.Fatalf("newOffscreenTarget: %v", err)
	}
	st.setOffscreen(o)

	var frames []Frame
	sink := SinkFunc(func(f Frame) { frames = append(frames, f) })

	if err := st.drawFrame(g, 0, mgl32.Ident4(), 10_000_000, sink); err != nil {
		t.Fatalf("first drawFrame: %v", err)
	}

	// A failed draw still advances the presentation baseline.
	g.drawErr = gl.INVALID_OPERATION
	if err := st.drawFrame(g, 0, mgl32.Ident4(), 43_000_000, sink); err == nil {
		t.Fatal("second drawFrame succeeded, want *DrawError")
	}
	g.drawErr = 0

	if err := st.drawFrame(g, 0, mgl32.Ident4(), 76_000_000, sink); err != nil {
		t.Fatalf("third drawFrame: %v", err)
	}

	if len(frames) != 2 {
		t.Fatalf("sink received %d frames, want 2", len(frames))
	}
	if frames[1].Interval != 33*time.Millisecond {
		t.Errorf("interval after skipped frame = %v, want 33ms", frames[1].Interval)
	}
}

func TestDrawFrameSurfaceSkipsReadback(t *testing.T) {
	g := newFakeGL()
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	called := false
	sink := SinkFunc(func(Frame) { called = true })
	if err := st.drawFrame(g, 0, mgl32.Ident4(), 0, sink); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}
	if called {
		t.Error("sink invoked without an offscreen target")
	}
	if g.readbacks != 0 {
		t.Errorf("readbacks = %d, want 0", g.readbacks)
	}
}

func TestRenderStateResize(t *testing.T) {
	g := newFakeGL()
	st := newRenderState(g, testProgram(), gl.Texture{Value: 7}, 640, 480, DefaultClearColor)

	st.resize(g, 1280, 720)
	if st.width != 1280 || st.height != 720 {
		t.Errorf("render state is %dx%d after resize, want 1280x720", st.width, st.height)
	}
	if !matNear(st.transforms.Projection, projectionFor(1280, 720)) {
		t.Error("projection not recomputed for the new aspect ratio")
	}
}

func TestF32Bytes(t *testing.T) {
	b := f32Bytes(1.0)
	// 1.0 is 0x3F800000, little endian.
	want := []byte{0x00, 0x00, 0x80, 0x3F}
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("f32Bytes(1.0) = % x, want % x", b, want)
		}
	}
	if got := len(f32Bytes(quadVertices...)); got != len(quadVertices)*4 {
		t.Errorf("quad encodes to %d bytes, want %d", got, len(quadVertices)*4)
	}
}
