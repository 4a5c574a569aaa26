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
	"strings"

	"github.com/go-gl/gl/v3.2-core/gl"
)

// attribute locations shared by every program in the pipeline. bound before
// linking so that one VAO layout serves all programs
const (
	attribPosition = 0
	attribTexCoord = 1
)

type glProgram struct {
	handle uint32

	// the source texture uniform
	texture int32
}

// compile and link a shader program. user supplied shader sources can fail to
// compile so the error return carries the compiler log.
func newGLProgram(vertSource string, fragSource string) (glProgram, error) {
	prog := glProgram{}

	vertHandle := gl.CreateShader(gl.VERTEX_SHADER)
	fragHandle := gl.CreateShader(gl.FRAGMENT_SHADER)
	defer gl.DeleteShader(vertHandle)
	defer gl.DeleteShader(fragHandle)

	glShaderSource := func(handle uint32, source string) {
		csource, free := gl.Strs(source + "\x00")
		defer free()
		gl.ShaderSource(handle, 1, csource, nil)
	}

	glShaderSource(vertHandle, vertSource)
	glShaderSource(fragHandle, fragSource)

	gl.CompileShader(vertHandle)
	if log := shaderCompileError(vertHandle); log != "" {
		return glProgram{}, fmt.Errorf("vertex shader: %s", log)
	}

	gl.CompileShader(fragHandle)
	if log := shaderCompileError(fragHandle); log != "" {
		return glProgram{}, fmt.Errorf("fragment shader: %s", log)
	}

	prog.handle = gl.CreateProgram()
	gl.AttachShader(prog.handle, vertHandle)
	gl.AttachShader(prog.handle, fragHandle)

	gl.BindAttribLocation(prog.handle, attribPosition, gl.Str("Position\x00"))
	gl.BindAttribLocation(prog.handle, attribTexCoord, gl.Str("TexCoord\x00"))

	gl.LinkProgram(prog.handle)

	var isLinked int32
	gl.GetProgramiv(prog.handle, gl.LINK_STATUS, &isLinked)
	if isLinked == 0 {
		var logLength int32
		gl.GetProgramiv(prog.handle, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		if logLength > 0 {
			gl.GetProgramInfoLog(prog.handle, logLength, &logLength, gl.Str(log))
		}
		gl.DeleteProgram(prog.handle)
		return glProgram{}, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00"))
	}

	prog.texture = gl.GetUniformLocation(prog.handle, gl.Str("Texture\x00"))

	return prog, nil
}

func (prog *glProgram) destroy() {
	if prog.handle != 0 {
		gl.DeleteProgram(prog.handle)
		prog.handle = 0
	}
}

// shaderCompileError returns the most recent error generated by the shader
// compiler, or the empty string if compilation succeeded.
func shaderCompileError(shader uint32) string {
	var isCompiled int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &isCompiled)
	if isCompiled == 0 {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		if logLength > 0 {
			// the log length includes the NULL character
			log := strings.Repeat("\x00", int(logLength+1))
			gl.GetShaderInfoLog(shader, logLength, &logLength, gl.Str(log))
			return strings.TrimRight(log, "\x00")
		}
		return "unknown compilation error"
	}
	return ""
}
