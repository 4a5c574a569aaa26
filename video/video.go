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
)

// Config collects the presentation options forwarded to the backend. Plain
// value, last write wins.
type Config struct {
	// linear filtering of the final image. when false the image is sampled
	// with nearest-neighbour
	Filter bool

	// letterbox the image to preserve the source aspect ratio
	LockAspectRatio bool

	// restrict scaling to whole-number multiples of the source resolution
	LockIntegerScaling bool
}

// Capabilities describes the graphics context the backend will be running
// against. Probed once by the surface layer at context creation.
type Capabilities struct {
	Major      int
	Minor      int
	Extensions []string
}

// HasExtension returns true if the named extension is in the probed
// extension list.
func (c Capabilities) HasExtension(name string) bool {
	for _, e := range c.Extensions {
		if e == name {
			return true
		}
	}
	return false
}

// the shader-capable backend needs framebuffer objects. they are core from
// OpenGL 3.0 but also available to 2.x contexts through this extension
const framebufferObjectExtension = "GL_ARB_framebuffer_object"

// SupportsShaderPipeline returns true if the capabilities are sufficient for
// the shader-capable backend variant.
func (c Capabilities) SupportsShaderPipeline() bool {
	return (c.Major == 2 && c.HasExtension(framebufferObjectExtension)) || c.Major > 2
}

// SwapRequester is how a backend signals that a drawn frame is ready for
// presentation. The implementation is expected to rate-limit the actual
// present rather than performing it immediately.
type SwapRequester interface {
	RequestSwap()
}

// Backend is the polymorphic renderer at the end of the frame pipeline.
type Backend interface {
	// Init and Deinit acquire and release context-bound resources. They must
	// run on the thread that currently owns the graphics context
	Init() error
	Deinit()

	// SetDimensions declares the logical source resolution. Internal texture
	// and geometry reallocation happens lazily on the next DrawFrame()
	SetDimensions(width int, height int)

	// Resized declares the destination viewport size in device pixels
	Resized(width int, height int)

	// PostFrame copies the pixel data out immediately. The caller may reuse
	// the slice as soon as PostFrame returns. No graphics context calls are
	// made; the upload happens on the next DrawFrame()
	PostFrame(pixels []byte)

	// DrawFrame uploads any posted pixels and issues the draw call
	DrawFrame()

	// Clear draws a blank frame
	Clear()

	// Swap signals that a drawn frame is ready to present, via the
	// SwapRequester injected at construction
	Swap()

	// SetConfig forwards presentation options. Takes effect on the next draw
	SetConfig(Config)

	// TextureID returns the handle of the texture holding the most recently
	// uploaded frame
	TextureID() uint32

	// SupportsShaders returns true for the shader-capable variant. The
	// Backend can then be asserted to a ShaderBackend
	SupportsShaders() bool
}

// ShaderBackend is implemented by the shader-capable backend variant.
type ShaderBackend interface {
	Backend

	// AttachShaders replaces the multi-pass pipeline. The previous pipeline
	// is only detached once the new one has compiled, meaning a failed
	// attach leaves the previous pipeline in place
	AttachShaders(set *ShaderSet) error

	// DetachShaders removes the pipeline. Rendering continues through the
	// default passthrough program
	DetachShaders()
}

// NewBackend selects and creates the backend variant appropriate to the
// probed capabilities. The shader-capable variant is preferred. If no variant
// can work with the capabilities the returned error is fatal: there is no
// degraded mode below fixed-function.
func NewBackend(caps Capabilities, swap SwapRequester) (Backend, error) {
	if caps.SupportsShaderPipeline() {
		return newGL32(swap), nil
	}
	if caps.Major >= 1 {
		return newGL21(swap), nil
	}
	return nil, fmt.Errorf("video: no usable backend for OpenGL %d.%d", caps.Major, caps.Minor)
}
