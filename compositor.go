package camtex

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"golang.org/x/mobile/gl"
)

// Unit quad as a 4-vertex triangle strip, interleaved X,Y,Z,U,V.
var quadVertices = []float32{
	-1, -1, 0, 0, 0,
	+1, -1, 0, 1, 0,
	-1, +1, 0, 0, 1,
	+1, +1, 0, 1, 1,
}

const (
	floatBytes    = 4
	quadStride    = 5 * floatBytes // bytes per vertex
	quadUVOffset  = 3 * floatBytes // U,V follow X,Y,Z
	quadVertexCnt = 4
)

// RenderState gathers everything a frame draw touches. It is owned by the
// session and confined to the context thread; nothing in it is package
// global.
type RenderState struct {
	prog       program
	quad       gl.Buffer
	capture    gl.Texture
	transforms TransformSet
	clear      RGBA
	width      int
	height     int

	offscreen *OffscreenTarget
	pixels    []byte // readback buffer, reused across frames
	prevTS    int64  // previous frame's presentation timestamp, ns
}

// newRenderState uploads the quad geometry and establishes the steady GL
// state: alpha blending on, scissor off, clear color set, viewport sized to
// the surface. Context thread only.
func newRenderState(g GL, pr program, capture gl.Texture, width, height int, clear RGBA) *RenderState {
	st := &RenderState{
		prog:       pr,
		capture:    capture,
		transforms: newTransformSet(width, height),
		clear:      clear,
		width:      width,
		height:     height,
	}

	g.Enable(gl.BLEND)
	g.Disable(gl.SCISSOR_TEST)
	g.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	g.ClearColor(clear.R, clear.G, clear.B, clear.A)
	g.Viewport(0, 0, width, height)
	glErrors(g, "steady state setup")

	st.quad = g.CreateBuffer()
	g.BindBuffer(gl.ARRAY_BUFFER, st.quad)
	g.BufferData(gl.ARRAY_BUFFER, f32Bytes(quadVertices...), gl.STATIC_DRAW)
	glErrors(g, "quad upload")

	return st
}

// setOffscreen redirects drawing into the target and sizes the readback
// buffer. Pass nil to draw to the surface.
func (st *RenderState) setOffscreen(o *OffscreenTarget) {
	st.offscreen = o
	if o != nil {
		st.pixels = make([]byte, o.width*o.height*4)
	} else {
		st.pixels = nil
	}
}

// resize recomputes the viewport and projection for new surface dimensions.
// Context thread only.
func (st *RenderState) resize(g GL, width, height int) {
	st.width = width
	st.height = height
	st.transforms.Projection = projectionFor(width, height)
	g.Viewport(0, 0, width, height)
	glErrors(g, "glViewport resize")
}

// drawFrame composites one latched camera image: clear, bind program and
// capture texture, upload transforms, draw the quad, and, when an offscreen
// target is bound, read the pixels back and deliver them to the sink.
//
// Program-bind and draw-call failures abort the frame with a *DrawError;
// every other GL error is logged and rendering continues. Context thread
// only.
func (st *RenderState) drawFrame(g GL, orientationDeg int, stMat mgl32.Mat4, timestamp int64, sink PixelSink) error {
	// The viewport must match the bound target; the offscreen texture and
	// the surface can have different dimensions.
	if st.offscreen != nil {
		g.BindFramebuffer(gl.FRAMEBUFFER, st.offscreen.fbo)
		g.Viewport(0, 0, st.offscreen.width, st.offscreen.height)
	} else {
		g.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		g.Viewport(0, 0, st.width, st.height)
	}
	g.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	// A skipped frame still advances the interval baseline, so the next
	// delivered interval spans consecutive presentation timestamps.
	interval := time.Duration(0)
	if st.prevTS != 0 && timestamp > st.prevTS {
		interval = time.Duration(timestamp - st.prevTS)
	}
	st.prevTS = timestamp

	g.UseProgram(st.prog.id)
	if code := glErrors(g, "glUseProgram"); code != gl.NO_ERROR {
		return &DrawError{Op: "glUseProgram", Code: code}
	}

	g.ActiveTexture(gl.TEXTURE0)
	g.BindTexture(TextureExternalOES, st.capture)
	glErrors(g, "glBindTexture capture")

	g.BindBuffer(gl.ARRAY_BUFFER, st.quad)
	g.VertexAttribPointer(st.prog.pos, 3, gl.FLOAT, false, quadStride, 0)
	glErrors(g, "glVertexAttribPointer aPosition")
	g.EnableVertexAttribArray(st.prog.pos)
	glErrors(g, "glEnableVertexAttribArray aPosition")
	g.VertexAttribPointer(st.prog.uv, 2, gl.FLOAT, false, quadStride, quadUVOffset)
	glErrors(g, "glVertexAttribPointer aTextureCoord")
	g.EnableVertexAttribArray(st.prog.uv)
	glErrors(g, "glEnableVertexAttribArray aTextureCoord")

	st.transforms.Rotation = rotationFor(orientationDeg)
	st.transforms.TexTransform = stMat
	mvp := st.transforms.mvp()

	g.UniformMatrix4fv(st.prog.mvp, mvp[:])
	g.UniformMatrix4fv(st.prog.st, stMat[:])
	g.Uniform1f(st.prog.ratio, aspect(st.width, st.height))
	glErrors(g, "uniform upload")

	g.DrawArrays(gl.TRIANGLE_STRIP, 0, quadVertexCnt)
	if code := glErrors(g, "glDrawArrays"); code != gl.NO_ERROR {
		return &DrawError{Op: "glDrawArrays", Code: code}
	}

	if interval > 0 {
		Logger().Debug("frame composited", "fps", int64(time.Second/interval))
	}

	if st.offscreen != nil && sink != nil {
		o := st.offscreen
		start := time.Now()
		g.ReadPixels(st.pixels, 0, 0, o.width, o.height, gl.RGBA, gl.UNSIGNED_BYTE)
		glErrors(g, "glReadPixels")
		Logger().Debug("readback", "elapsed", time.Since(start), "bytes", len(st.pixels))

		sink.HandleFrame(Frame{
			Pixels:   st.pixels,
			Width:    o.width,
			Height:   o.height,
			Stride:   o.width * 4,
			Format:   gputypes.TextureFormatRGBA8Unorm,
			Interval: interval,
		})
	}
	return nil
}

// release frees the quad buffer. The program, textures, and framebuffer are
// released by their owners. Context thread only.
func (st *RenderState) release(g GL) {
	if st.quad.Value != 0 {
		g.DeleteBuffer(st.quad)
		st.quad = gl.Buffer{}
	}
}

// f32Bytes encodes float32 values as little-endian bytes for BufferData.
func f32Bytes(values ...float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}
