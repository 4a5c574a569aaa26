// This file is part of Framepipe.
//
// Framepipe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Framepipe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Framepipe.  If not, see <https://www.gnu.org/licenses/>.

package video

import (
	"fmt"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/jetsetilly/framepipe/logger"
	"github.com/jetsetilly/framepipe/video/framebuffer"
	"github.com/jetsetilly/framepipe/video/shaders"
)

// the shader-capable backend variant. the frame texture is fed through the
// attached shader passes, each rendering into an offscreen framebuffer, and
// the result is drawn onto a letterboxed quad with the passthrough program.
type gl32 struct {
	swap SwapRequester
	cfg  Config

	texture       uint32
	createTexture bool

	srcWidth  int
	srcHeight int

	viewWidth  int
	viewHeight int

	// pixels posted since the last draw. written by PostFrame() and uploaded
	// by DrawFrame(), both of which run on the render thread
	staging []byte
	dirty   bool

	vao     uint32
	vaoFlip uint32
	vbo     uint32
	vboFlip uint32

	passthrough glProgram

	// the attached shader pipeline. empty when no shader set is attached
	passes []glPass
}

// a single stage of the attached pipeline
type glPass struct {
	prog glProgram
	fb   *framebuffer.Single
}

func newGL32(swap SwapRequester) *gl32 {
	return &gl32{
		swap: swap,
	}
}

// quad geometry as a triangle strip of interleaved position and texture
// coordinate pairs. the flipped variant maps the first row of the frame to
// the top of the surface and is used for the presentation draw; the identity
// variant is used for pass-to-pass processing so that intermediate textures
// keep the orientation of the source.
var quadIdentity = []float32{
	-1.0, -1.0, 0.0, 0.0,
	1.0, -1.0, 1.0, 0.0,
	-1.0, 1.0, 0.0, 1.0,
	1.0, 1.0, 1.0, 1.0,
}

var quadFlipped = []float32{
	-1.0, -1.0, 0.0, 1.0,
	1.0, -1.0, 1.0, 1.0,
	-1.0, 1.0, 0.0, 0.0,
	1.0, 1.0, 1.0, 0.0,
}

func (b *gl32) Init() error {
	err := gl.Init()
	if err != nil {
		return fmt.Errorf("gl32: %w", err)
	}

	// log GPU vendor information
	logger.Logf(logger.Allow, "gl32", "vendor: %s", gl.GoStr(gl.GetString(gl.VENDOR)))
	logger.Logf(logger.Allow, "gl32", "renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))
	logger.Logf(logger.Allow, "gl32", "driver: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.GenTextures(1, &b.texture)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	b.vao, b.vbo = createQuad(quadIdentity)
	b.vaoFlip, b.vboFlip = createQuad(quadFlipped)

	b.passthrough, err = newGLProgram(
		string(shaders.PassthroughVertexShader),
		string(shaders.PassthroughFragmentShader))
	if err != nil {
		return fmt.Errorf("gl32: %w", err)
	}

	return nil
}

func createQuad(vertices []float32) (vao uint32, vbo uint32) {
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	// attribute locations are bound before program linking, see newGLProgram()
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribPointerWithOffset(attribPosition, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(attribTexCoord)
	gl.VertexAttribPointerWithOffset(attribTexCoord, 2, gl.FLOAT, false, 4*4, 2*4)

	gl.BindVertexArray(0)

	return vao, vbo
}

func (b *gl32) Deinit() {
	b.DetachShaders()
	b.passthrough.destroy()

	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.vboFlip != 0 {
		gl.DeleteBuffers(1, &b.vboFlip)
		b.vboFlip = 0
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.vaoFlip != 0 {
		gl.DeleteVertexArrays(1, &b.vaoFlip)
		b.vaoFlip = 0
	}
	if b.texture != 0 {
		gl.DeleteTextures(1, &b.texture)
		b.texture = 0
	}
}

func (b *gl32) SetDimensions(width int, height int) {
	if width == b.srcWidth && height == b.srcHeight {
		return
	}
	b.srcWidth = width
	b.srcHeight = height
	b.staging = make([]byte, width*height*4)
	b.createTexture = true
	b.dirty = false
}

func (b *gl32) Resized(width int, height int) {
	b.viewWidth = width
	b.viewHeight = height
}

func (b *gl32) PostFrame(pixels []byte) {
	copy(b.staging, pixels)
	b.dirty = true
}

func (b *gl32) DrawFrame() {
	if b.srcWidth == 0 || b.srcHeight == 0 {
		return
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)

	if b.createTexture {
		b.createTexture = false
		b.dirty = false
		gl.TexImage2D(gl.TEXTURE_2D, 0,
			gl.RGBA, int32(b.srcWidth), int32(b.srcHeight), 0,
			gl.RGBA, gl.UNSIGNED_BYTE,
			gl.Ptr(b.staging))
	} else if b.dirty {
		b.dirty = false
		gl.TexSubImage2D(gl.TEXTURE_2D, 0,
			0, 0, int32(b.srcWidth), int32(b.srcHeight),
			gl.RGBA, gl.UNSIGNED_BYTE,
			gl.Ptr(b.staging))
	}

	// run the frame through the attached pipeline. each pass renders into
	// its own framebuffer at the source resolution
	src := b.texture
	for _, pass := range b.passes {
		pass.fb.Setup(int32(b.srcWidth), int32(b.srcHeight))
		prog := pass.prog
		from := src
		src = pass.fb.Process(func() {
			b.drawQuad(prog, from, b.vao)
		})
	}

	b.Clear()

	r := FitRect(b.cfg, b.srcWidth, b.srcHeight, b.viewWidth, b.viewHeight)
	gl.Viewport(r.X, r.Y, r.W, r.H)

	// the filter option applies to the presentation draw only. passes always
	// sample their input linearly
	filter := int32(gl.NEAREST)
	if b.cfg.Filter {
		filter = gl.LINEAR
	}
	gl.BindTexture(gl.TEXTURE_2D, src)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)

	b.drawQuad(b.passthrough, src, b.vaoFlip)
}

func (b *gl32) drawQuad(prog glProgram, texture uint32, vao uint32) {
	gl.UseProgram(prog.handle)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.Uniform1i(prog.texture, 0)
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
}

func (b *gl32) Clear() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(b.viewWidth), int32(b.viewHeight))
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (b *gl32) Swap() {
	b.swap.RequestSwap()
}

func (b *gl32) SetConfig(cfg Config) {
	b.cfg = cfg
}

func (b *gl32) TextureID() uint32 {
	return b.texture
}

func (b *gl32) SupportsShaders() bool {
	return true
}

// AttachShaders implements the ShaderBackend interface. The new pipeline is
// compiled in full before the previous pipeline is detached: a compilation
// failure leaves the previous pipeline attached.
func (b *gl32) AttachShaders(set *ShaderSet) error {
	var passes []glPass

	for _, p := range set.Passes {
		prog, err := newGLProgram(p.Vertex, p.Fragment)
		if err != nil {
			for _, q := range passes {
				q.prog.destroy()
				q.fb.Destroy()
			}
			return fmt.Errorf("gl32: pass %s: %w", p.Name, err)
		}
		passes = append(passes, glPass{
			prog: prog,
			fb:   framebuffer.NewSingle(),
		})
	}

	b.DetachShaders()
	b.passes = passes

	return nil
}

// DetachShaders implements the ShaderBackend interface.
func (b *gl32) DetachShaders() {
	for _, p := range b.passes {
		p.prog.destroy()
		p.fb.Destroy()
	}
	b.passes = nil
}
