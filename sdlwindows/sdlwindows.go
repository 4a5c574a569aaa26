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

// Package sdlwindows provides an SDL2 window with an OpenGL context,
// implementing the display.Surface interface.
//
// A 3.2 core context is preferred. If the driver refuses, context creation
// falls back to 2.1 and availability of the shader pipeline is decided by
// the probed extension list.
package sdlwindows

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/jetsetilly/framepipe/logger"
	"github.com/jetsetilly/framepipe/video"
)

// Window is an SDL2 window and its OpenGL context.
type Window struct {
	window    *sdl.Window
	glContext sdl.GLContext
	caps      video.Capabilities
}

// NewWindow creates the window and its OpenGL context. The context is left
// current on the calling goroutine, which is locked to its OS thread for the
// lifetime of the process.
func NewWindow(title string, width int32, height int32) (*Window, error) {
	// the SDL package calls LockOSThread() but we call it here too. it can't
	// hurt and we never unlock it in any case
	runtime.LockOSThread()

	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}

	var sdlVersion sdl.Version
	sdl.VERSION(&sdlVersion)
	logger.Logf(logger.Allow, "sdl", "version %d.%d.%d", sdlVersion.Major, sdlVersion.Minor, sdlVersion.Patch)

	if mode, err := sdl.GetCurrentDisplayMode(0); err == nil {
		logger.Logf(logger.Allow, "sdl", "refresh rate: %dHz", mode.RefreshRate)
	}

	setContextAttributes(3, 2)

	win := &Window{}
	win.window, err = sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		width, height,
		sdl.WINDOW_OPENGL|sdl.WINDOW_ALLOW_HIGHDPI|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	win.glContext, err = win.window.GLCreateContext()
	if err != nil {
		// some drivers refuse a core profile. try the legacy context before
		// giving up
		setContextAttributes(2, 1)
		win.glContext, err = win.window.GLCreateContext()
	}
	if err != nil {
		_ = win.Destroy()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	err = win.window.GLMakeCurrent(win.glContext)
	if err != nil {
		_ = win.Destroy()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	err = win.probeCapabilities()
	if err != nil {
		_ = win.Destroy()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	_ = sdl.GLSetSwapInterval(1)

	return win, nil
}

func setContextAttributes(major int, minor int) {
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, major)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, minor)
	if major >= 3 {
		_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG)
		_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	}
	_ = sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	_ = sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	_ = sdl.GLSetAttribute(sdl.GL_STENCIL_SIZE, 8)
}

// probeCapabilities must be called with the context current.
func (win *Window) probeCapabilities() error {
	major, err := sdl.GLGetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION)
	if err != nil {
		return err
	}
	minor, err := sdl.GLGetAttribute(sdl.GL_CONTEXT_MINOR_VERSION)
	if err != nil {
		return err
	}

	win.caps = video.Capabilities{Major: major, Minor: minor}

	// the extension list only matters to a 2.x context, where framebuffer
	// object support is an extension rather than core
	if major == 2 {
		if err := gl.Init(); err != nil {
			return err
		}
		if s := gl.GetString(gl.EXTENSIONS); s != nil {
			win.caps.Extensions = strings.Fields(gl.GoStr(s))
		}
	}

	profile, err := sdl.GLGetAttribute(sdl.GL_CONTEXT_PROFILE_MASK)
	if err != nil {
		return err
	}
	var profile_s string
	switch profile {
	case sdl.GL_CONTEXT_PROFILE_CORE:
		profile_s = " core"
	case sdl.GL_CONTEXT_PROFILE_COMPATIBILITY:
		profile_s = " compatibility"
	case sdl.GL_CONTEXT_PROFILE_ES:
		profile_s = " ES"
	}
	logger.Logf(logger.Allow, "sdl", "using GL version %d.%d%s", major, minor, profile_s)

	return nil
}

// Destroy cleans up the window resources.
func (win *Window) Destroy() error {
	if win.glContext != nil {
		sdl.GLDeleteContext(win.glContext)
		win.glContext = nil
	}
	if win.window != nil {
		err := win.window.Destroy()
		win.window = nil
		if err != nil {
			return err
		}
	}
	sdl.Quit()
	return nil
}

// Size returns the window dimensions in window coordinates.
func (win *Window) Size() (int, int) {
	w, h := win.window.GetSize()
	return int(w), int(h)
}

// MakeCurrent implements the display.Surface interface.
func (win *Window) MakeCurrent() error {
	return win.window.GLMakeCurrent(win.glContext)
}

// ReleaseCurrent implements the display.Surface interface.
func (win *Window) ReleaseCurrent() {
	_ = win.window.GLMakeCurrent(nil)
}

// Present implements the display.Surface interface.
func (win *Window) Present() error {
	win.window.GLSwap()
	return nil
}

// Valid implements the display.Surface interface.
func (win *Window) Valid() bool {
	return win.window != nil && win.glContext != nil
}

// DevicePixelRatio implements the display.Surface interface.
func (win *Window) DevicePixelRatio() float32 {
	dw, _ := win.window.GLGetDrawableSize()
	w, _ := win.window.GetSize()
	if w == 0 {
		return 1.0
	}
	return float32(dw) / float32(w)
}

// Capabilities implements the display.Surface interface.
func (win *Window) Capabilities() video.Capabilities {
	return win.caps
}

// ServiceEvents handles all pending window events. The resized function is
// called with the new window size, in window coordinates, for every resize
// event. Returns true when the window has been asked to close.
func (win *Window) ServiceEvents(resized func(width int, height int)) bool {
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED && resized != nil {
				resized(int(ev.Data1), int(ev.Data2))
			}
		}
	}
	return quit
}
