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

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/jetsetilly/framepipe/logger"
)

// the fixed-function backend variant. a direct blit of the frame texture onto
// a letterboxed quad. no shader pipeline.
type gl21 struct {
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
}

func newGL21(swap SwapRequester) *gl21 {
	return &gl21{
		swap: swap,
	}
}

func (b *gl21) Init() error {
	err := gl.Init()
	if err != nil {
		return fmt.Errorf("gl21: %w", err)
	}

	// log GPU vendor information
	logger.Logf(logger.Allow, "gl21", "vendor: %s", gl.GoStr(gl.GetString(gl.VENDOR)))
	logger.Logf(logger.Allow, "gl21", "renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))
	logger.Logf(logger.Allow, "gl21", "driver: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.GenTextures(1, &b.texture)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	return nil
}

func (b *gl21) Deinit() {
	if b.texture != 0 {
		gl.DeleteTextures(1, &b.texture)
		b.texture = 0
	}
}

func (b *gl21) SetDimensions(width int, height int) {
	if width == b.srcWidth && height == b.srcHeight {
		return
	}
	b.srcWidth = width
	b.srcHeight = height
	b.staging = make([]byte, width*height*4)
	b.createTexture = true
	b.dirty = false
}

func (b *gl21) Resized(width int, height int) {
	b.viewWidth = width
	b.viewHeight = height
}

func (b *gl21) PostFrame(pixels []byte) {
	copy(b.staging, pixels)
	b.dirty = true
}

func (b *gl21) DrawFrame() {
	if b.srcWidth == 0 || b.srcHeight == 0 {
		return
	}

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

	filter := int32(gl.NEAREST)
	if b.cfg.Filter {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)

	b.Clear()

	r := FitRect(b.cfg, b.srcWidth, b.srcHeight, b.viewWidth, b.viewHeight)
	gl.Viewport(r.X, r.Y, r.W, r.H)

	// orthographic projection with the vertical axis flipped, meaning the
	// first row of the frame appears at the top of the surface
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, 1, 1, 0, -1, 1)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()

	gl.Enable(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(0, 0)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(1, 0)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(1, 1)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(0, 1)
	gl.End()
	gl.Disable(gl.TEXTURE_2D)
}

func (b *gl21) Clear() {
	gl.Viewport(0, 0, int32(b.viewWidth), int32(b.viewHeight))
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (b *gl21) Swap() {
	b.swap.RequestSwap()
}

func (b *gl21) SetConfig(cfg Config) {
	b.cfg = cfg
}

func (b *gl21) TextureID() uint32 {
	return b.texture
}

func (b *gl21) SupportsShaders() bool {
	return false
}
