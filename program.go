package camtex

import (
	"golang.org/x/mobile/gl"
)

// ChannelOrder selects the fragment shader's channel swizzle. Some camera
// pixel formats arrive with the alpha channel leading; the swizzle is the
// cheapest place to correct that. Validate the choice against the actual
// camera format before relying on it.
type ChannelOrder int

const (
	// ChannelRGBA samples the external image as-is.
	ChannelRGBA ChannelOrder = iota

	// ChannelARGB swizzles the sampled color to .argb.
	ChannelARGB
)

// String returns a human-readable name for the channel order.
func (c ChannelOrder) String() string {
	switch c {
	case ChannelRGBA:
		return "RGBA"
	case ChannelARGB:
		return "ARGB"
	default:
		return "Unknown"
	}
}

func (c ChannelOrder) valid() bool {
	return c == ChannelRGBA || c == ChannelARGB
}

// vertexShaderSrc scales the quad horizontally by the surface aspect ratio,
// applies the model-view-projection matrix, and routes texture coordinates
// through the frame stream's texture-space transform.
const vertexShaderSrc = `uniform mat4 uMVPMatrix;
uniform mat4 uSTMatrix;
uniform float uCRatio;
attribute vec4 aPosition;
attribute vec4 aTextureCoord;
varying vec2 vTextureCoord;
void main() {
  vec4 scaledPos = aPosition;
  scaledPos.x = scaledPos.x * uCRatio;
  gl_Position = uMVPMatrix * scaledPos;
  vTextureCoord = (uSTMatrix * aTextureCoord).xy;
}
`

// fragmentShaderSrc samples the external-image texture directly.
const fragmentShaderSrc = `#extension GL_OES_EGL_image_external : require
precision mediump float;
varying vec2 vTextureCoord;
uniform samplerExternalOES sTexture;
void main() {
  gl_FragColor = texture2D(sTexture, vTextureCoord);
}
`

// fragmentShaderSrcARGB is the .argb swizzle variant.
const fragmentShaderSrcARGB = `#extension GL_OES_EGL_image_external : require
precision mediump float;
varying vec2 vTextureCoord;
uniform samplerExternalOES sTexture;
void main() {
  gl_FragColor = texture2D(sTexture, vTextureCoord).argb;
}
`

// fragmentShaderFor returns the fragment source for the channel order.
func fragmentShaderFor(order ChannelOrder) string {
	if order == ChannelARGB {
		return fragmentShaderSrcARGB
	}
	return fragmentShaderSrc
}

// program bundles the one GPU program object of a session with its resolved
// attribute and uniform handles.
type program struct {
	id gl.Program

	mvp   gl.Uniform // uMVPMatrix
	st    gl.Uniform // uSTMatrix
	ratio gl.Uniform // uCRatio
	pos   gl.Attrib  // aPosition
	uv    gl.Attrib  // aTextureCoord
}

// compileAndLink compiles the vertex and fragment shaders, links them, and
// resolves all attribute and uniform handles. Any failure, including a
// handle resolving to "not found", returns a *CompileError and leaves no
// program object behind. Context thread only.
func compileAndLink(g GL, vsrc, fsrc string) (program, error) {
	p := g.CreateProgram()
	if p.Value == 0 {
		return program{}, &CompileError{Stage: "link", Log: "no program object available"}
	}

	vs, err := compileShader(g, gl.VERTEX_SHADER, "vertex", vsrc)
	if err != nil {
		g.DeleteProgram(p)
		return program{}, err
	}
	fs, err := compileShader(g, gl.FRAGMENT_SHADER, "fragment", fsrc)
	if err != nil {
		g.DeleteShader(vs)
		g.DeleteProgram(p)
		return program{}, err
	}

	g.AttachShader(p, vs)
	glErrors(g, "glAttachShader vertex")
	g.AttachShader(p, fs)
	glErrors(g, "glAttachShader fragment")
	g.LinkProgram(p)

	// Shaders are flagged for deletion; they die with the program.
	g.DeleteShader(vs)
	g.DeleteShader(fs)

	if g.GetProgrami(p, gl.LINK_STATUS) == 0 {
		log := g.GetProgramInfoLog(p)
		g.DeleteProgram(p)
		return program{}, &CompileError{Stage: "link", Log: log}
	}

	pr := program{id: p}
	pr.pos = g.GetAttribLocation(p, "aPosition")
	glErrors(g, "glGetAttribLocation aPosition")
	pr.uv = g.GetAttribLocation(p, "aTextureCoord")
	glErrors(g, "glGetAttribLocation aTextureCoord")
	pr.mvp = g.GetUniformLocation(p, "uMVPMatrix")
	glErrors(g, "glGetUniformLocation uMVPMatrix")
	pr.st = g.GetUniformLocation(p, "uSTMatrix")
	glErrors(g, "glGetUniformLocation uSTMatrix")
	pr.ratio = g.GetUniformLocation(p, "uCRatio")
	glErrors(g, "glGetUniformLocation uCRatio")

	for _, h := range []struct {
		name    string
		missing bool
	}{
		{"aPosition", attribMissing(pr.pos)},
		{"aTextureCoord", attribMissing(pr.uv)},
		{"uMVPMatrix", uniformMissing(pr.mvp)},
		{"uSTMatrix", uniformMissing(pr.st)},
		{"uCRatio", uniformMissing(pr.ratio)},
	} {
		if h.missing {
			g.DeleteProgram(p)
			return program{}, &CompileError{Stage: "lookup", Log: h.name + " not found"}
		}
	}

	return pr, nil
}

// compileShader compiles one shader stage, returning a *CompileError with
// the driver's info log on failure.
func compileShader(g GL, ty gl.Enum, stage, src string) (gl.Shader, error) {
	s := g.CreateShader(ty)
	if s.Value == 0 {
		return gl.Shader{}, &CompileError{Stage: stage, Log: "no shader object available"}
	}
	g.ShaderSource(s, src)
	g.CompileShader(s)
	if g.GetShaderi(s, gl.COMPILE_STATUS) == 0 {
		log := g.GetShaderInfoLog(s)
		g.DeleteShader(s)
		return gl.Shader{}, &CompileError{Stage: stage, Log: log}
	}
	return s, nil
}

// release deletes the program object. Context thread only.
func (pr *program) release(g GL) {
	if pr.id.Value != 0 {
		g.DeleteProgram(pr.id)
		pr.id = gl.Program{}
	}
}
