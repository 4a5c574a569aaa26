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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/jetsetilly/framepipe/display"
	"github.com/jetsetilly/framepipe/logger"
	"github.com/jetsetilly/framepipe/sdlwindows"
	"github.com/jetsetilly/framepipe/statsview"
	"github.com/jetsetilly/framepipe/version"
)

// frame sizes the queue must be able to accommodate. the demo producer never
// goes beyond its command line resolution but the pool is allocated up front
const (
	maxFrameWidth  = 1920
	maxFrameHeight = 1080
)

func main() {
	app := cli.NewApp()

	app.Name = version.ApplicationName
	app.Description = "Cross-thread frame presentation pipeline demo"
	ver, _, _ := version.Version()
	app.Version = ver

	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "width", Value: 960, Usage: "window width"},
		cli.IntFlag{Name: "height", Value: 640, Usage: "window height"},
		cli.IntFlag{Name: "pattern-width", Value: 240, Usage: "test pattern width"},
		cli.IntFlag{Name: "pattern-height", Value: 160, Usage: "test pattern height"},
		cli.Float64Flag{Name: "fps", Value: 60.0, Usage: "test pattern frame rate"},
		cli.BoolFlag{Name: "filter", Usage: "linear filtering of the presented image"},
		cli.BoolFlag{Name: "aspect", Usage: "preserve the pattern's aspect ratio"},
		cli.BoolFlag{Name: "integer", Usage: "integer scaling (implies -aspect)"},
		cli.BoolFlag{Name: "sync", Usage: "release producer gate on presentation rather than on dequeue"},
		cli.StringFlag{Name: "shaders", Usage: "directory of GLSL shader passes"},
		cli.BoolFlag{Name: "statsview", Usage: "run stats server"},
		cli.BoolFlag{Name: "log", Usage: "echo log entries to stderr"},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("log") {
		logger.SetEcho(os.Stderr)
	}

	if c.Bool("statsview") {
		statsview.Launch(os.Stdout)
	}

	win, err := sdlwindows.NewWindow(version.ApplicationName,
		int32(c.Int("width")), int32(c.Int("height")))
	if err != nil {
		return err
	}
	defer win.Destroy()

	d, err := display.NewDisplay(win, nil, maxFrameWidth, maxFrameHeight)
	if err != nil {
		return err
	}
	defer d.Destroy()

	d.SetFilter(c.Bool("filter"))
	d.SetAspectRatioLock(c.Bool("aspect") || c.Bool("integer"))
	d.SetIntegerScalingLock(c.Bool("integer"))
	d.SetSyncPresentation(c.Bool("sync"))
	d.Resized(win.Size())

	if dir := c.String("shaders"); dir != "" {
		if !d.SupportsShaderPipeline() {
			return fmt.Errorf("shaders: not supported by this OpenGL context")
		}
		if err := d.SetShaders(os.DirFS(dir)); err != nil {
			return err
		}
	}

	prod := newPattern(c.Int("pattern-width"), c.Int("pattern-height"), c.Float64("fps"))

	// the display owns the context from here until StopDrawing()
	win.ReleaseCurrent()

	if err := d.StartDrawing(prod); err != nil {
		return err
	}

	go prod.run(d)

	// event servicing stays on the main thread
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	for {
		if win.ServiceEvents(d.Resized) {
			break
		}

		select {
		case <-report.C:
			dropped, _ := d.QueueStats()
			logger.Logf(logger.Allow, "framepipe", "%.1f fps, %d frames dropped", d.ActualFPS(), dropped)
		default:
		}

		time.Sleep(10 * time.Millisecond)
	}

	prod.stop()
	d.StopDrawing()

	return nil
}
