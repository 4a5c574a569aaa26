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

// Package framebuffer provides the offscreen render targets used between the
// passes of a shader pipeline. All functions must be called from the thread
// that owns the graphics context.
package framebuffer

import (
	"github.com/go-gl/gl/v3.2-core/gl"
)

// Single provides a single offscreen framebuffer backed by a texture.
type Single struct {
	texture uint32
	fbo     uint32

	width  int32
	height int32

	// empty pixels used to clear the texture on reallocation
	emptyPixels []uint8
}

// NewSingle is the preferred method of initialisation for the Single type.
func NewSingle() *Single {
	fb := &Single{}
	gl.GenFramebuffers(1, &fb.fbo)
	return fb
}

// Destroy should be called when the Single is no longer required.
func (fb *Single) Destroy() {
	if fb.texture != 0 {
		gl.DeleteTextures(1, &fb.texture)
		fb.texture = 0
	}
	gl.DeleteFramebuffers(1, &fb.fbo)
}

// Texture returns the handle of the texture the framebuffer renders into.
func (fb *Single) Texture() uint32 {
	return fb.texture
}

// Setup the framebuffer for the specified dimensions.
//
// Returns true if any previous texture data has been lost. This happens when
// the dimensions have changed. By definition, the first call to Setup() will
// always return true.
//
// If the supplied width or height are less than or equal to zero the function
// does nothing and returns false.
func (fb *Single) Setup(width int32, height int32) bool {
	if width <= 0 || height <= 0 {
		return false
	}

	if fb.width == width && fb.height == height {
		return false
	}

	fb.width = width
	fb.height = height
	fb.emptyPixels = make([]uint8, width*height*4)

	if fb.texture == 0 {
		gl.GenTextures(1, &fb.texture)
	}
	gl.BindTexture(gl.TEXTURE_2D, fb.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0,
		gl.RGBA, fb.width, fb.height, 0,
		gl.RGBA, gl.UNSIGNED_BYTE,
		gl.Ptr(fb.emptyPixels))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.texture, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return true
}

// Clear the framebuffer texture.
func (fb *Single) Clear() {
	if len(fb.emptyPixels) == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, fb.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0,
		gl.RGBA, fb.width, fb.height, 0,
		gl.RGBA, gl.UNSIGNED_BYTE,
		gl.Ptr(fb.emptyPixels))
}

// Process binds the framebuffer, executes the draw function and returns the
// handle of the texture the draw rendered into.
func (fb *Single) Process(draw func()) uint32 {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
	draw()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return fb.texture
}
