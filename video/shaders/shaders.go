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

// Package shaders contains the GLSL sources built in to the shader-capable
// backend. User supplied shader passes are expected to use the same attribute
// and uniform names.
package shaders

// PassthroughVertexShader maps the quad geometry straight through to clip
// space. Also used for user passes that don't supply their own vertex shader.
var PassthroughVertexShader = []byte(`
#version 150

in vec2 Position;
in vec2 TexCoord;

out vec2 Frag_UV;

void main()
{
	Frag_UV = TexCoord;
	gl_Position = vec4(Position, 0.0, 1.0);
}
`)

// PassthroughFragmentShader samples the source texture with no processing.
// This is the entire pipeline when no shader set is attached.
var PassthroughFragmentShader = []byte(`
#version 150

uniform sampler2D Texture;

in vec2 Frag_UV;

out vec4 Out_Color;

void main()
{
	Out_Color = texture(Texture, Frag_UV);
}
`)
