package camtex

import (
	"golang.org/x/mobile/gl"
)

// TextureExternalOES is the GLES texture target for external-image textures
// (GL_TEXTURE_EXTERNAL_OES). Camera frames arrive through this target; it is
// sampled in shaders via samplerExternalOES and is not exported by the
// binding layer.
const TextureExternalOES gl.Enum = 0x8D65

// GL is the subset of GLES 2.0 the pipeline uses. Method signatures match
// golang.org/x/mobile/gl.Context exactly, so any gl.Context satisfies GL
// without adaptation. backend/nullgl implements it in pure Go.
//
// Every method must be called on the context thread only.
type GL interface {
	// Shaders and programs.
	CreateProgram() gl.Program
	CreateShader(ty gl.Enum) gl.Shader
	ShaderSource(s gl.Shader, src string)
	CompileShader(s gl.Shader)
	GetShaderi(s gl.Shader, pname gl.Enum) int
	GetShaderInfoLog(s gl.Shader) string
	DeleteShader(s gl.Shader)
	AttachShader(p gl.Program, s gl.Shader)
	LinkProgram(p gl.Program)
	GetProgrami(p gl.Program, pname gl.Enum) int
	GetProgramInfoLog(p gl.Program) string
	DeleteProgram(p gl.Program)
	UseProgram(p gl.Program)
	GetAttribLocation(p gl.Program, name string) gl.Attrib
	GetUniformLocation(p gl.Program, name string) gl.Uniform

	// Textures.
	CreateTexture() gl.Texture
	DeleteTexture(v gl.Texture)
	BindTexture(target gl.Enum, t gl.Texture)
	ActiveTexture(texture gl.Enum)
	TexParameteri(target, pname gl.Enum, param int)
	TexImage2D(target gl.Enum, level int, internalFormat int, width, height int, format gl.Enum, ty gl.Enum, data []byte)

	// Framebuffers.
	CreateFramebuffer() gl.Framebuffer
	BindFramebuffer(target gl.Enum, fb gl.Framebuffer)
	FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int)
	CheckFramebufferStatus(target gl.Enum) gl.Enum
	DeleteFramebuffer(v gl.Framebuffer)

	// Vertex data.
	CreateBuffer() gl.Buffer
	BindBuffer(target gl.Enum, b gl.Buffer)
	BufferData(target gl.Enum, src []byte, usage gl.Enum)
	DeleteBuffer(v gl.Buffer)
	VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int)
	EnableVertexAttribArray(a gl.Attrib)
	DisableVertexAttribArray(a gl.Attrib)

	// Uniforms.
	UniformMatrix4fv(dst gl.Uniform, src []float32)
	Uniform1f(dst gl.Uniform, v float32)
	Uniform1i(dst gl.Uniform, v int)

	// State and drawing.
	Enable(cap gl.Enum)
	Disable(cap gl.Enum)
	BlendFunc(sfactor, dfactor gl.Enum)
	ClearColor(red, green, blue, alpha float32)
	Clear(mask gl.Enum)
	Viewport(x, y, width, height int)
	DrawArrays(mode gl.Enum, first, count int)
	ReadPixels(dst []byte, x, y, width, height int, format, ty gl.Enum)
	GetError() gl.Enum
}

// glErrors drains the GL error queue after an operation, logging every code
// with the operation tag. It returns the first code seen so callers on the
// program-bind and draw-call paths can abort the frame; all other call sites
// ignore the return value and continue.
func glErrors(g GL, op string) gl.Enum {
	first := gl.Enum(gl.NO_ERROR)
	for {
		code := g.GetError()
		if code == gl.NO_ERROR {
			return first
		}
		if first == gl.NO_ERROR {
			first = code
		}
		Logger().Error("gl error", "op", op, "code", uint32(code))
	}
}

// attribMissing reports whether a resolved attribute location is the GL
// "not found" value. The binding layer stores glGetAttribLocation's int32
// result in a uint, so -1 survives as an all-ones low word.
func attribMissing(a gl.Attrib) bool {
	return int32(uint32(a.Value)) == -1
}

// uniformMissing reports whether a resolved uniform location is "not found".
func uniformMissing(u gl.Uniform) bool {
	return u.Value == -1
}
