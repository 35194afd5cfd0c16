package camtex

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/mobile/gl"
)

// fakeGL is a minimal in-package GL double for unit tests. It tracks object
// lifetimes and records uniform uploads; rendering itself is not simulated.
// The full pipeline runs against backend/nullgl in that package's tests.
type fakeGL struct {
	nextID       uint32
	forcedTexIDs []uint32

	liveTextures     map[uint32]bool
	liveBuffers      map[uint32]bool
	liveFramebuffers map[uint32]bool
	livePrograms     map[uint32]bool
	liveShaders      map[uint32]*fakeShader
	linked           map[uint32]bool

	compileFail map[gl.Enum]bool
	linkFail    bool
	hidden      map[string]bool

	fbStatus      gl.Enum // zero means complete
	useProgramErr gl.Enum
	drawErr       gl.Enum
	bindTexErr    gl.Enum
	errq          []gl.Enum

	uniforms  map[int32][]float32
	boundFBO  uint32
	viewport  [4]int
	drawCalls int
	readbacks int
	usedProg  uint32
}

type fakeShader struct {
	ty       gl.Enum
	compiled bool
}

func newFakeGL() *fakeGL {
	return &fakeGL{
		liveTextures:     make(map[uint32]bool),
		liveBuffers:      make(map[uint32]bool),
		liveFramebuffers: make(map[uint32]bool),
		livePrograms:     make(map[uint32]bool),
		liveShaders:      make(map[uint32]*fakeShader),
		linked:           make(map[uint32]bool),
		compileFail:      make(map[gl.Enum]bool),
		hidden:           make(map[string]bool),
		uniforms:         make(map[int32][]float32),
	}
}

var _ GL = (*fakeGL)(nil)

// Fixed handle table matching the pipeline's shader interface.
var (
	fakeAttribs  = map[string]uint{"aPosition": 0, "aTextureCoord": 1}
	fakeUniforms = map[string]int32{"uMVPMatrix": 0, "uSTMatrix": 1, "uCRatio": 2}
)

func (f *fakeGL) id() uint32 {
	f.nextID++
	return f.nextID
}

func (f *fakeGL) CreateProgram() gl.Program {
	id := f.id()
	f.livePrograms[id] = true
	return gl.Program{Init: true, Value: id}
}

func (f *fakeGL) CreateShader(ty gl.Enum) gl.Shader {
	id := f.id()
	f.liveShaders[id] = &fakeShader{ty: ty}
	return gl.Shader{Value: id}
}

func (f *fakeGL) ShaderSource(s gl.Shader, src string) {}

func (f *fakeGL) CompileShader(s gl.Shader) {
	if sh := f.liveShaders[s.Value]; sh != nil && !f.compileFail[sh.ty] {
		sh.compiled = true
	}
}

func (f *fakeGL) GetShaderi(s gl.Shader, pname gl.Enum) int {
	if sh := f.liveShaders[s.Value]; pname == gl.COMPILE_STATUS && sh != nil && sh.compiled {
		return 1
	}
	return 0
}

func (f *fakeGL) GetShaderInfoLog(s gl.Shader) string { return "stub shader log" }

func (f *fakeGL) DeleteShader(s gl.Shader) { delete(f.liveShaders, s.Value) }

func (f *fakeGL) AttachShader(p gl.Program, s gl.Shader) {}

func (f *fakeGL) LinkProgram(p gl.Program) {
	if !f.linkFail {
		f.linked[p.Value] = true
	}
}

func (f *fakeGL) GetProgrami(p gl.Program, pname gl.Enum) int {
	if pname == gl.LINK_STATUS && f.linked[p.Value] {
		return 1
	}
	return 0
}

func (f *fakeGL) GetProgramInfoLog(p gl.Program) string { return "stub link log" }

func (f *fakeGL) DeleteProgram(p gl.Program) { delete(f.livePrograms, p.Value) }

func (f *fakeGL) UseProgram(p gl.Program) {
	f.usedProg = p.Value
	if f.useProgramErr != 0 {
		f.errq = append(f.errq, f.useProgramErr)
	}
}

func (f *fakeGL) GetAttribLocation(p gl.Program, name string) gl.Attrib {
	if v, ok := fakeAttribs[name]; ok && !f.hidden[name] {
		return gl.Attrib{Value: v}
	}
	return gl.Attrib{Value: uint(0xFFFFFFFF)}
}

func (f *fakeGL) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	if v, ok := fakeUniforms[name]; ok && !f.hidden[name] {
		return gl.Uniform{Value: v}
	}
	return gl.Uniform{Value: -1}
}

func (f *fakeGL) CreateTexture() gl.Texture {
	var id uint32
	if len(f.forcedTexIDs) > 0 {
		id = f.forcedTexIDs[0]
		f.forcedTexIDs = f.forcedTexIDs[1:]
	} else {
		id = f.id()
	}
	f.liveTextures[id] = true
	return gl.Texture{Value: id}
}

func (f *fakeGL) DeleteTexture(v gl.Texture) { delete(f.liveTextures, v.Value) }

func (f *fakeGL) BindTexture(target gl.Enum, t gl.Texture) {
	if f.bindTexErr != 0 {
		f.errq = append(f.errq, f.bindTexErr)
	}
}

func (f *fakeGL) ActiveTexture(texture gl.Enum)                  {}
func (f *fakeGL) TexParameteri(target, pname gl.Enum, param int) {}
func (f *fakeGL) TexImage2D(target gl.Enum, level int, internalFormat int, width, height int, format gl.Enum, ty gl.Enum, data []byte) {
}

func (f *fakeGL) CreateFramebuffer() gl.Framebuffer {
	id := f.id()
	f.liveFramebuffers[id] = true
	return gl.Framebuffer{Value: id}
}

func (f *fakeGL) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) { f.boundFBO = fb.Value }

func (f *fakeGL) FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int) {
}

func (f *fakeGL) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	if f.fbStatus != 0 {
		return f.fbStatus
	}
	return gl.FRAMEBUFFER_COMPLETE
}

func (f *fakeGL) DeleteFramebuffer(v gl.Framebuffer) { delete(f.liveFramebuffers, v.Value) }

func (f *fakeGL) CreateBuffer() gl.Buffer {
	id := f.id()
	f.liveBuffers[id] = true
	return gl.Buffer{Value: id}
}

func (f *fakeGL) BindBuffer(target gl.Enum, b gl.Buffer)               {}
func (f *fakeGL) BufferData(target gl.Enum, src []byte, usage gl.Enum) {}
func (f *fakeGL) DeleteBuffer(v gl.Buffer)                             { delete(f.liveBuffers, v.Value) }

func (f *fakeGL) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
}
func (f *fakeGL) EnableVertexAttribArray(a gl.Attrib)  {}
func (f *fakeGL) DisableVertexAttribArray(a gl.Attrib) {}

func (f *fakeGL) UniformMatrix4fv(dst gl.Uniform, src []float32) {
	f.uniforms[dst.Value] = append([]float32(nil), src...)
}

func (f *fakeGL) Uniform1f(dst gl.Uniform, v float32) { f.uniforms[dst.Value] = []float32{v} }
func (f *fakeGL) Uniform1i(dst gl.Uniform, v int)     { f.uniforms[dst.Value] = []float32{float32(v)} }

func (f *fakeGL) Enable(cap gl.Enum)                         {}
func (f *fakeGL) Disable(cap gl.Enum)                        {}
func (f *fakeGL) BlendFunc(sfactor, dfactor gl.Enum)         {}
func (f *fakeGL) ClearColor(red, green, blue, alpha float32) {}
func (f *fakeGL) Clear(mask gl.Enum)                         {}

func (f *fakeGL) Viewport(x, y, width, height int) {
	f.viewport = [4]int{x, y, width, height}
}

func (f *fakeGL) DrawArrays(mode gl.Enum, first, count int) {
	f.drawCalls++
	if f.drawErr != 0 {
		f.errq = append(f.errq, f.drawErr)
	}
}

func (f *fakeGL) ReadPixels(dst []byte, x, y, width, height int, format, ty gl.Enum) {
	f.readbacks++
}

func (f *fakeGL) GetError() gl.Enum {
	if len(f.errq) == 0 {
		return gl.NO_ERROR
	}
	code := f.errq[0]
	f.errq = f.errq[1:]
	return code
}

// fakePlatform is an in-package Platform double with per-step failure knobs
// and destroy accounting.
type fakePlatform struct {
	displayErr     error
	configErr      error
	contextErr     error
	windowErr      error
	surfaceErr     error
	makeCurrentErr error
	streamErr      error
	mismatch       bool

	stream *fakeStream

	nextHandle        uintptr
	windowTexIDs      []uint32
	createdContexts   int
	createdSurfaces   int
	destroyedContexts int
	destroyedSurfaces int

	currentCtx  Context
	currentSurf Surface
}

var _ Platform = (*fakePlatform)(nil)

func (p *fakePlatform) handle() uintptr {
	p.nextHandle++
	return p.nextHandle
}

func (p *fakePlatform) Display() (Display, error) {
	if p.displayErr != nil {
		return Display{}, p.displayErr
	}
	return Display{Value: 1}, nil
}

func (p *fakePlatform) ChooseConfig(d Display, spec ConfigSpec) (Config, error) {
	if p.configErr != nil {
		return Config{}, p.configErr
	}
	return Config{Value: 1}, nil
}

func (p *fakePlatform) CreateContext(d Display, c Config) (Context, error) {
	if p.contextErr != nil {
		return Context{}, p.contextErr
	}
	p.createdContexts++
	return Context{Value: p.handle()}, nil
}

func (p *fakePlatform) NewTextureWindow(texID uint32, width, height int) (NativeWindow, error) {
	if p.windowErr != nil {
		return NativeWindow{}, p.windowErr
	}
	p.windowTexIDs = append(p.windowTexIDs, texID)
	return NativeWindow{Value: p.handle()}, nil
}

func (p *fakePlatform) CreateWindowSurface(d Display, c Config, w NativeWindow) (Surface, error) {
	if p.surfaceErr != nil {
		return Surface{}, p.surfaceErr
	}
	p.createdSurfaces++
	return Surface{Value: p.handle()}, nil
}

func (p *fakePlatform) MakeCurrent(d Display, s Surface, c Context) error {
	if p.makeCurrentErr != nil {
		return p.makeCurrentErr
	}
	if p.mismatch {
		p.currentCtx = Context{Value: c.Value + 1000}
	} else {
		p.currentCtx = c
	}
	p.currentSurf = s
	return nil
}

func (p *fakePlatform) CurrentContext(d Display) Context { return p.currentCtx }

func (p *fakePlatform) CurrentDrawSurface(d Display) Surface { return p.currentSurf }

func (p *fakePlatform) NewFrameStream(tex gl.Texture) (FrameStream, error) {
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	if p.stream == nil {
		p.stream = newFakeStream()
	}
	return p.stream, nil
}

func (p *fakePlatform) DestroySurface(d Display, s Surface) error {
	p.destroyedSurfaces++
	return nil
}

func (p *fakePlatform) DestroyContext(d Display, c Context) error {
	p.destroyedContexts++
	return nil
}

// fakeStream is an in-package FrameStream double.
type fakeStream struct {
	mu        sync.Mutex
	listener  func()
	updateErr error
	transform mgl32.Mat4
	ts        int64
	updates   int
	released  bool
}

var _ FrameStream = (*fakeStream)(nil)

func newFakeStream() *fakeStream {
	return &fakeStream{transform: mgl32.Ident4()}
}

func (s *fakeStream) SetListener(fn func()) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

func (s *fakeStream) fire() {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *fakeStream) UpdateImage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	return nil
}

func (s *fakeStream) TransformMatrix() mgl32.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

func (s *fakeStream) Timestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ts
}

func (s *fakeStream) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}
