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
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jetsetilly/framepipe/video/shaders"
)

// ErrNoShaders is returned by LoadShaderSet when the directory contains no
// fragment shaders. Callers should treat this as non-fatal: the backend keeps
// running without a pipeline.
var ErrNoShaders = errors.New("no shaders found")

// Pass is a single stage of a shader pipeline. Sources only; compilation
// happens on the render thread when the set is attached to the backend.
type Pass struct {
	Name     string
	Vertex   string
	Fragment string
}

// ShaderSet is an ordered sequence of shader passes. Loaded from a directory
// and attached to a shader-capable backend as a unit.
type ShaderSet struct {
	Passes []Pass
}

// LoadShaderSet reads an ordered sequence of shader passes from a
// directory-like handle. Every file with a .frag extension defines a pass,
// in lexical filename order. A pass may supply its own vertex shader in a
// .vert file of the same name; otherwise the default passthrough vertex
// shader is used.
func LoadShaderSet(fsys fs.FS) (*ShaderSet, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("shaders: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".frag") {
			names = append(names, e.Name())
		}
	}

	if len(names) == 0 {
		return nil, ErrNoShaders
	}

	// pass order is the lexical order of the fragment shader filenames
	sort.Strings(names)

	set := &ShaderSet{}
	for _, n := range names {
		frag, err := fs.ReadFile(fsys, n)
		if err != nil {
			return nil, fmt.Errorf("shaders: %w", err)
		}

		p := Pass{
			Name:     strings.TrimSuffix(n, ".frag"),
			Vertex:   string(shaders.PassthroughVertexShader),
			Fragment: string(frag),
		}

		vert, err := fs.ReadFile(fsys, p.Name+".vert")
		if err == nil {
			p.Vertex = string(vert)
		}

		set.Passes = append(set.Passes, p)
	}

	return set, nil
}
