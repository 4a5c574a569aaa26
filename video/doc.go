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

// Package video implements the rendering backends of the pipeline. A backend
// owns all graphics-context state: the source texture, any shader programs
// and the draw call that puts pixels on the surface.
//
// There are two backend variants. The fixed-function variant renders through
// the OpenGL 2.1 fixed pipeline and supports no shader effects. The
// shader-capable variant requires OpenGL 3.2 (or OpenGL 2.x with the
// framebuffer object extension) and supports a hot-swappable multi-pass
// shader pipeline. NewBackend() selects the variant once, at construction,
// based on the probed context capabilities.
//
// With the exception of PostFrame(), SetDimensions() and SetConfig(), which
// only touch process memory, every Backend function must be called from the
// thread on which the graphics context is current.
package video
