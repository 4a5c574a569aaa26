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
	"math"
)

// Rect is a viewport rectangle in device pixels, origin at the bottom-left of
// the surface.
type Rect struct {
	X int32
	Y int32
	W int32
	H int32
}

// FitRect returns the viewport rectangle for an image of srcW by srcH pixels
// presented on a surface of dstW by dstH pixels. The image is centred, with
// letterboxing according to the aspect and integer-scaling locks in the
// config.
func FitRect(cfg Config, srcW int, srcH int, dstW int, dstH int) Rect {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Rect{}
	}

	sx := float64(dstW) / float64(srcW)
	sy := float64(dstH) / float64(srcH)

	if cfg.LockAspectRatio {
		if sx < sy {
			sy = sx
		} else {
			sx = sy
		}
	}

	// integer scaling only makes sense once the image fits at natural size.
	// below 1x we fall back to fractional scaling rather than clipping
	if cfg.LockIntegerScaling {
		if sx >= 1 {
			sx = math.Floor(sx)
		}
		if sy >= 1 {
			sy = math.Floor(sy)
		}
	}

	w := int32(math.Round(float64(srcW) * sx))
	h := int32(math.Round(float64(srcH) * sy))

	return Rect{
		X: (int32(dstW) - w) / 2,
		Y: (int32(dstH) - h) / 2,
		W: w,
		H: h,
	}
}
