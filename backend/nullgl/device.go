package nullgl

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/mobile/gl"

	"github.com/gogpu/camtex"
)

// Device is an in-memory GL and Platform implementation. The zero value is
// not usable; create one with New.
//
// All GL methods are safe for single-threaded use from the context thread,
// plus concurrent inspection from test goroutines (an internal mutex guards
// the object tables). Fault-injection fields must be set before the call
// they affect.
type Device struct {
	mu sync.Mutex

	// Object tables.
	textures     map[uint32]*texture
	buffers      map[uint32][]byte
	shaders      map[uint32]*shaderObj
	programs     map[uint32]*programObj
	framebuffers map[uint32]*framebufferObj
	surfaces     map[uintptr]*surfaceBuf
	windows      map[uintptr]windowSpec

	nextTexture     uint32
	nextBuffer      uint32
	nextShader      uint32
	nextProgram     uint32
	nextFramebuffer uint32
	nextHandle      uintptr

	// Bindings.
	boundTex    map[gl.Enum]uint32
	boundArray  uint32
	boundFBO    uint32
	usedProgram uint32
	clearColor  [4]float32
	viewport    [4]int

	// Platform current state, as the "driver" reports it.
	currentCtx  camtex.Context
	currentSurf camtex.Surface
	liveCtx     map[uintptr]bool
	liveSurf    map[uintptr]bool

	// Recorded uniforms of the used program, by name.
	uniformVals map[string][]float32

	errq []gl.Enum

	// Counters for lifetime assertions.
	drawCalls  int
	clearCalls int
	readbacks  int

	// Fault injection.
	CompileFailStage  string   // "vertex" or "fragment": fail that stage's compile
	LinkFail          bool     // fail the next program link
	MissingUniforms   []string // names LinkProgram pretends the shader lacks
	FramebufferStatus gl.Enum  // non-zero: CheckFramebufferStatus reports this
	DrawFailCode      gl.Enum  // non-zero: DrawArrays queues this GL error
	UseProgramFail    gl.Enum  // non-zero: UseProgram queues this GL error
	NextTextureID     uint32   // non-zero: id of the next created texture

	DisplayErr     error // Display fails
	ConfigErr      error // ChooseConfig fails unconditionally
	ContextErr     error // CreateContext fails
	SurfaceErr     error // CreateWindowSurface fails
	MakeCurrentErr error // MakeCurrent fails
	MismatchPhase  bool  // driver reports a different current context
	StreamErr      error // NewFrameStream fails
}

type texture struct {
	width, height int
	pix           []byte
	params        map[gl.Enum]int
}

type shaderObj struct {
	ty       gl.Enum
	src      string
	compiled bool
	log      string
}

type programObj struct {
	shaders  []uint32
	linked   bool
	log      string
	attribs  map[string]uint32
	uniforms map[string]int32
}

type framebufferObj struct {
	attachment uint32 // texture id, 0 = none
}

type surfaceBuf struct {
	width, height int
	pix           []byte
}

type windowSpec struct {
	texID         uint32
	width, height int
}

// New creates an empty device.
func New() *Device {
	return &Device{
		textures:     make(map[uint32]*texture),
		buffers:      make(map[uint32][]byte),
		shaders:      make(map[uint32]*shaderObj),
		programs:     make(map[uint32]*programObj),
		framebuffers: make(map[uint32]*framebufferObj),
		surfaces:     make(map[uintptr]*surfaceBuf),
		windows:      make(map[uintptr]windowSpec),
		boundTex:     make(map[gl.Enum]uint32),
		liveCtx:      make(map[uintptr]bool),
		liveSurf:     make(map[uintptr]bool),
		uniformVals:  make(map[string][]float32),
	}
}

// Compile-time interface checks.
var (
	_ camtex.GL       = (*Device)(nil)
	_ camtex.Platform = (*Device)(nil)
)

// --- Shaders and programs ---

func (d *Device) CreateProgram() gl.Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextProgram++
	d.programs[d.nextProgram] = &programObj{
		attribs:  make(map[string]uint32),
		uniforms: make(map[string]int32),
	}
	return gl.Program{Init: true, Value: d.nextProgram}
}

func (d *Device) CreateShader(ty gl.Enum) gl.Shader {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextShader++
	d.shaders[d.nextShader] = &shaderObj{ty: ty}
	return gl.Shader{Value: d.nextShader}
}

func (d *Device) ShaderSource(s gl.Shader, src string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sh := d.shaders[s.Value]; sh != nil {
		sh.src = src
	}
}

func (d *Device) CompileShader(s gl.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sh := d.shaders[s.Value]
	if sh == nil {
		return
	}
	stage := "fragment"
	if sh.ty == gl.VERTEX_SHADER {
		stage = "vertex"
	}
	if d.CompileFailStage == stage {
		sh.compiled = false
		sh.log = "forced " + stage + " compile failure"
		return
	}
	sh.compiled = true
}

func (d *Device) GetShaderi(s gl.Shader, pname gl.Enum) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	sh := d.shaders[s.Value]
	if pname == gl.COMPILE_STATUS && sh != nil && sh.compiled {
		return 1
	}
	return 0
}

func (d *Device) GetShaderInfoLog(s gl.Shader) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sh := d.shaders[s.Value]; sh != nil {
		return sh.log
	}
	return ""
}

func (d *Device) DeleteShader(s gl.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, s.Value)
}

func (d *Device) AttachShader(p gl.Program, s gl.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pr := d.programs[p.Value]; pr != nil {
		pr.shaders = append(pr.shaders, s.Value)
		// Keep the source past shader deletion, like a driver does.
		if sh := d.shaders[s.Value]; sh != nil {
			shCopy := *sh
			d.shaders[s.Value] = &shCopy
		}
	}
}

// LinkProgram "links" by scanning the attached shader sources for attribute
// and uniform declarations and assigning locations in order of appearance.
func (d *Device) LinkProgram(p gl.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pr := d.programs[p.Value]
	if pr == nil {
		return
	}
	if d.LinkFail {
		pr.linked = false
		pr.log = "forced link failure"
		return
	}
	var attribIdx uint32
	var uniformIdx int32
	for _, sid := range pr.shaders {
		sh := d.shaders[sid]
		if sh == nil {
			continue
		}
		for _, line := range strings.Split(sh.src, "\n") {
			fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ";"))
			if len(fields) < 2 {
				continue
			}
			name := strings.TrimSuffix(fields[len(fields)-1], ";")
			switch fields[0] {
			case "attribute":
				if _, ok := pr.attribs[name]; !ok {
					pr.attribs[name] = attribIdx
					attribIdx++
				}
			case "uniform":
				if d.hidden(name) {
					continue
				}
				if _, ok := pr.uniforms[name]; !ok {
					pr.uniforms[name] = uniformIdx
					uniformIdx++
				}
			}
		}
	}
	pr.linked = true
}

func (d *Device) hidden(name string) bool {
	for _, h := range d.MissingUniforms {
		if h == name {
			return true
		}
	}
	return false
}

func (d *Device) GetProgrami(p gl.Program, pname gl.Enum) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	pr := d.programs[p.Value]
	if pname == gl.LINK_STATUS && pr != nil && pr.linked {
		return 1
	}
	return 0
}

func (d *Device) GetProgramInfoLog(p gl.Program) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pr := d.programs[p.Value]; pr != nil {
		return pr.log
	}
	return ""
}

func (d *Device) DeleteProgram(p gl.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, p.Value)
}

func (d *Device) UseProgram(p gl.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.usedProgram = p.Value
	if d.UseProgramFail != 0 {
		d.errq = append(d.errq, d.UseProgramFail)
	}
}

func (d *Device) GetAttribLocation(p gl.Program, name string) gl.Attrib {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pr := d.programs[p.Value]; pr != nil {
		if idx, ok := pr.attribs[name]; ok {
			return gl.Attrib{Value: uint(idx)}
		}
	}
	return gl.Attrib{Value: uint(0xFFFFFFFF)}
}

func (d *Device) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pr := d.programs[p.Value]; pr != nil {
		if idx, ok := pr.uniforms[name]; ok {
			return gl.Uniform{Value: idx}
		}
	}
	return gl.Uniform{Value: -1}
}

// --- Textures ---

func (d *Device) CreateTexture() gl.Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	var id uint32
	if d.NextTextureID != 0 {
		id = d.NextTextureID
		d.NextTextureID = 0
		if id > d.nextTexture {
			d.nextTexture = id
		}
	} else {
		d.nextTexture++
		id = d.nextTexture
	}
	d.textures[id] = &texture{params: make(map[gl.Enum]int)}
	return gl.Texture{Value: id}
}

func (d *Device) DeleteTexture(v gl.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, v.Value)
}

func (d *Device) BindTexture(target gl.Enum, t gl.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundTex[target] = t.Value
}

func (d *Device) ActiveTexture(gl.Enum) {}

func (d *Device) TexParameteri(target, pname gl.Enum, param int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tex := d.textures[d.boundTex[target]]; tex != nil {
		tex.params[pname] = param
	}
}

func (d *Device) TexImage2D(target gl.Enum, level int, internalFormat int, width, height int, format gl.Enum, ty gl.Enum, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex := d.textures[d.boundTex[target]]
	if tex == nil {
		return
	}
	tex.width, tex.height = width, height
	tex.pix = make([]byte, width*height*4)
	copy(tex.pix, data)
}

// --- Framebuffers ---

func (d *Device) CreateFramebuffer() gl.Framebuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextFramebuffer++
	d.framebuffers[d.nextFramebuffer] = &framebufferObj{}
	return gl.Framebuffer{Value: d.nextFramebuffer}
}

func (d *Device) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundFBO = fb.Value
}

func (d *Device) FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if fb := d.framebuffers[d.boundFBO]; fb != nil {
		fb.attachment = t.Value
	}
}

func (d *Device) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FramebufferStatus != 0 {
		return d.FramebufferStatus
	}
	return gl.FRAMEBUFFER_COMPLETE
}

func (d *Device) DeleteFramebuffer(v gl.Framebuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.framebuffers, v.Value)
}

// --- Buffers and vertex state ---

func (d *Device) CreateBuffer() gl.Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuffer++
	d.buffers[d.nextBuffer] = nil
	return gl.Buffer{Value: d.nextBuffer}
}

func (d *Device) BindBuffer(target gl.Enum, b gl.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundArray = b.Value
}

func (d *Device) BufferData(target gl.Enum, src []byte, usage gl.Enum) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[d.boundArray]; ok {
		d.buffers[d.boundArray] = append([]byte(nil), src...)
	}
}

func (d *Device) DeleteBuffer(v gl.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, v.Value)
}

func (d *Device) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
}
func (d *Device) EnableVertexAttribArray(a gl.Attrib)  {}
func (d *Device) DisableVertexAttribArray(a gl.Attrib) {}

// --- Uniforms ---

func (d *Device) UniformMatrix4fv(dst gl.Uniform, src []float32) {
	d.recordUniform(dst, append([]float32(nil), src...))
}

func (d *Device) Uniform1f(dst gl.Uniform, v float32) {
	d.recordUniform(dst, []float32{v})
}

func (d *Device) Uniform1i(dst gl.Uniform, v int) {
	d.recordUniform(dst, []float32{float32(v)})
}

func (d *Device) recordUniform(dst gl.Uniform, vals []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pr := d.programs[d.usedProgram]
	if pr == nil {
		return
	}
	for name, loc := range pr.uniforms {
		if loc == dst.Value {
			d.uniformVals[name] = vals
			return
		}
	}
}

// Uniform returns the most recently uploaded value of the named uniform of
// the program in use, or nil.
func (d *Device) Uniform(name string) []float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uniformVals[name]
}

// --- State and drawing ---

func (d *Device) Enable(cap gl.Enum)                 {}
func (d *Device) Disable(cap gl.Enum)                {}
func (d *Device) BlendFunc(sfactor, dfactor gl.Enum) {}

func (d *Device) ClearColor(red, green, blue, alpha float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearColor = [4]float32{red, green, blue, alpha}
}

func (d *Device) Clear(mask gl.Enum) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearCalls++
	w, h, pix := d.targetLocked()
	if pix == nil {
		return
	}
	c := [4]byte{
		byte(d.clearColor[0] * 255),
		byte(d.clearColor[1] * 255),
		byte(d.clearColor[2] * 255),
		byte(d.clearColor[3] * 255),
	}
	for i := 0; i < w*h; i++ {
		copy(pix[i*4:], c[:])
	}
}

func (d *Device) Viewport(x, y, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = [4]int{x, y, width, height}
}

// DrawArrays simulates the composite by sampling the external-image capture
// texture onto the bound target with nearest-neighbor scaling. Transform
// matrices are not applied; inspect them via Uniform instead.
func (d *Device) DrawArrays(mode gl.Enum, first, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawCalls++
	if d.DrawFailCode != 0 {
		d.errq = append(d.errq, d.DrawFailCode)
		return
	}
	src := d.textures[d.boundTex[camtex.TextureExternalOES]]
	dw, dh, dst := d.targetLocked()
	if src == nil || src.pix == nil || dst == nil || dw == 0 || dh == 0 {
		return
	}
	for y := 0; y < dh; y++ {
		sy := y * src.height / dh
		for x := 0; x < dw; x++ {
			sx := x * src.width / dw
			copy(dst[(y*dw+x)*4:], src.pix[(sy*src.width+sx)*4:(sy*src.width+sx)*4+4])
		}
	}
}

func (d *Device) ReadPixels(dst []byte, x, y, width, height int, format, ty gl.Enum) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readbacks++
	tw, th, pix := d.targetLocked()
	if pix == nil {
		return
	}
	for row := 0; row < height; row++ {
		sy := y + row
		if sy < 0 || sy >= th {
			continue
		}
		for col := 0; col < width; col++ {
			sx := x + col
			if sx < 0 || sx >= tw {
				continue
			}
			copy(dst[(row*width+col)*4:(row*width+col)*4+4], pix[(sy*tw+sx)*4:])
		}
	}
}

func (d *Device) GetError() gl.Enum {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errq) == 0 {
		return gl.NO_ERROR
	}
	code := d.errq[0]
	d.errq = d.errq[1:]
	return code
}

// InjectError queues a GL error code for the next GetError drain.
func (d *Device) InjectError(code gl.Enum) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errq = append(d.errq, code)
}

// targetLocked resolves the current draw target's pixel store: the bound
// framebuffer's color attachment, or the current surface. d.mu held.
func (d *Device) targetLocked() (w, h int, pix []byte) {
	if d.boundFBO != 0 {
		fb := d.framebuffers[d.boundFBO]
		if fb == nil {
			return 0, 0, nil
		}
		tex := d.textures[fb.attachment]
		if tex == nil {
			return 0, 0, nil
		}
		return tex.width, tex.height, tex.pix
	}
	surf := d.surfaces[d.currentSurf.Value]
	if surf == nil {
		return 0, 0, nil
	}
	return surf.width, surf.height, surf.pix
}

// --- Inspection helpers for tests ---

// Live reports the number of live GL objects, for leak assertions.
func (d *Device) Live() (textures, buffers, framebuffers, programs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures), len(d.buffers), len(d.framebuffers), len(d.programs)
}

// LastViewport reports the most recent glViewport rectangle.
func (d *Device) LastViewport() (x, y, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport[0], d.viewport[1], d.viewport[2], d.viewport[3]
}

// DrawCalls reports how many DrawArrays calls have executed.
func (d *Device) DrawCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drawCalls
}

// LiveContexts reports the number of undestroyed contexts and surfaces.
func (d *Device) LiveContexts() (contexts, surfaces int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, live := range d.liveCtx {
		if live {
			contexts++
		}
	}
	for _, live := range d.liveSurf {
		if live {
			surfaces++
		}
	}
	return contexts, surfaces
}

// TexturePixels returns a copy of the named texture's pixel store, for
// asserting on composited output.
func (d *Device) TexturePixels(id uint32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex := d.textures[id]
	if tex == nil {
		return nil
	}
	return append([]byte(nil), tex.pix...)
}

// --- Platform ---

func (d *Device) Display() (camtex.Display, error) {
	if d.DisplayErr != nil {
		return camtex.Display{}, d.DisplayErr
	}
	return camtex.Display{Value: 1}, nil
}

// ChooseConfig supports up to RGBA8888 with 24-bit depth and 8-bit stencil.
// Requirements beyond that have no matching configuration, like a real
// driver with a finite config table.
func (d *Device) ChooseConfig(disp camtex.Display, spec camtex.ConfigSpec) (camtex.Config, error) {
	if d.ConfigErr != nil {
		return camtex.Config{}, d.ConfigErr
	}
	if spec.RedBits > 8 || spec.GreenBits > 8 || spec.BlueBits > 8 || spec.AlphaBits > 8 ||
		spec.DepthBits > 24 || spec.StencilBits > 8 {
		return camtex.Config{}, fmt.Errorf("nullgl: no config matches %+v", spec)
	}
	return camtex.Config{Value: 1}, nil
}

func (d *Device) CreateContext(disp camtex.Display, cfg camtex.Config) (camtex.Context, error) {
	if d.ContextErr != nil {
		return camtex.Context{}, d.ContextErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextHandle++
	ctx := camtex.Context{Value: d.nextHandle}
	d.liveCtx[ctx.Value] = true
	return ctx, nil
}

func (d *Device) NewTextureWindow(texID uint32, width, height int) (camtex.NativeWindow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextHandle++
	win := camtex.NativeWindow{Value: d.nextHandle}
	d.windows[win.Value] = windowSpec{texID: texID, width: width, height: height}
	return win, nil
}

func (d *Device) CreateWindowSurface(disp camtex.Display, cfg camtex.Config, w camtex.NativeWindow) (camtex.Surface, error) {
	if d.SurfaceErr != nil {
		return camtex.Surface{}, d.SurfaceErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	spec, ok := d.windows[w.Value]
	if !ok {
		return camtex.Surface{}, errors.New("nullgl: unknown native window")
	}
	d.nextHandle++
	surf := camtex.Surface{Value: d.nextHandle}
	d.surfaces[surf.Value] = &surfaceBuf{
		width:  spec.width,
		height: spec.height,
		pix:    make([]byte, spec.width*spec.height*4),
	}
	d.liveSurf[surf.Value] = true
	return surf, nil
}

func (d *Device) MakeCurrent(disp camtex.Display, s camtex.Surface, c camtex.Context) error {
	if d.MakeCurrentErr != nil {
		return d.MakeCurrentErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.MismatchPhase {
		// Pretend success but silently leave a different context bound.
		d.currentCtx = camtex.Context{Value: c.Value + 1000}
		d.currentSurf = s
		return nil
	}
	d.currentCtx = c
	d.currentSurf = s
	return nil
}

func (d *Device) CurrentContext(disp camtex.Display) camtex.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentCtx
}

func (d *Device) CurrentDrawSurface(disp camtex.Display) camtex.Surface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentSurf
}

func (d *Device) NewFrameStream(tex gl.Texture) (camtex.FrameStream, error) {
	if d.StreamErr != nil {
		return nil, d.StreamErr
	}
	return newStream(d, tex.Value), nil
}

func (d *Device) DestroySurface(disp camtex.Display, s camtex.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.liveSurf[s.Value] {
		return errors.New("nullgl: destroy of unknown surface")
	}
	d.liveSurf[s.Value] = false
	delete(d.surfaces, s.Value)
	return nil
}

func (d *Device) DestroyContext(disp camtex.Display, c camtex.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.liveCtx[c.Value] {
		return errors.New("nullgl: destroy of unknown context")
	}
	d.liveCtx[c.Value] = false
	return nil
}
