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

package video_test

import (
	"testing"

	"github.com/jetsetilly/framepipe/test"
	"github.com/jetsetilly/framepipe/video"
)

func TestFitRectUnlocked(t *testing.T) {
	// no locks means the image fills the surface
	r := video.FitRect(video.Config{}, 240, 160, 960, 720)
	test.ExpectEquality(t, r, video.Rect{X: 0, Y: 0, W: 960, H: 720})
}

func TestFitRectAspectLock(t *testing.T) {
	cfg := video.Config{LockAspectRatio: true}

	// 240x160 is 3:2. on a 4:3 surface the width is the limit on the height
	r := video.FitRect(cfg, 240, 160, 960, 720)
	test.ExpectEquality(t, r, video.Rect{X: 0, Y: (720 - 640) / 2, W: 960, H: 640})

	// pillarboxing on a wide surface
	r = video.FitRect(cfg, 240, 160, 1920, 720)
	test.ExpectEquality(t, r, video.Rect{X: (1920 - 1080) / 2, Y: 0, W: 1080, H: 720})
}

func TestFitRectIntegerLock(t *testing.T) {
	cfg := video.Config{LockAspectRatio: true, LockIntegerScaling: true}

	// aspect lock gives 4.1667x. integer lock floors to 4x
	r := video.FitRect(cfg, 240, 160, 1000, 750)
	test.ExpectEquality(t, r, video.Rect{X: 20, Y: 55, W: 960, H: 640})

	// below natural size the lock falls back to fractional scaling
	r = video.FitRect(cfg, 240, 160, 120, 80)
	test.ExpectEquality(t, r, video.Rect{X: 0, Y: 0, W: 120, H: 80})
}

func TestFitRectDegenerate(t *testing.T) {
	// zero dimensions produce an empty rectangle rather than a panic
	r := video.FitRect(video.Config{}, 0, 160, 960, 720)
	test.ExpectEquality(t, r, video.Rect{})

	r = video.FitRect(video.Config{}, 240, 160, 0, 0)
	test.ExpectEquality(t, r, video.Rect{})
}

func TestCapabilities(t *testing.T) {
	caps := video.Capabilities{Major: 2, Minor: 1}
	test.ExpectFailure(t, caps.SupportsShaderPipeline())

	caps.Extensions = []string{"GL_EXT_texture_filter_anisotropic", "GL_ARB_framebuffer_object"}
	test.ExpectSuccess(t, caps.SupportsShaderPipeline())

	caps = video.Capabilities{Major: 3, Minor: 2}
	test.ExpectSuccess(t, caps.SupportsShaderPipeline())

	caps = video.Capabilities{Major: 1, Minor: 4}
	test.ExpectFailure(t, caps.SupportsShaderPipeline())
}
