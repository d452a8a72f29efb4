// Command oxy-demo opens a window and renders a lit, shadowed grid of cubes with the frame renderer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/config"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/pkg/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "oxy.toml", "settings file; missing files use defaults")
	logLevel := flag.String("log-level", "", "overrides [log] level")
	cpuProfile := flag.Bool("cpuprofile", false, "write a CPU profile to the working directory")
	memProfile := flag.Bool("memprofile", false, "write a heap profile to the working directory")
	software := flag.Bool("software", false, "force the software adapter")
	cubes := flag.Int("cubes", 400, "number of cubes in the grid")
	frames := flag.Int("frames", 0, "exit after this many frames; 0 runs until the window closes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: true}))
	slog.SetDefault(logger)
	gpu.ApplyLogLevelFromEnv()

	switch {
	case *cpuProfile:
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case *memProfile:
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	win := window.NewWindow(
		window.WithTitle("oxy-render demo"),
		window.WithSize(1600, 900),
		window.WithMinSize(320, 240),
		window.WithLogger(logger),
	)
	defer win.Close()

	backend := gpu.NewWGPUBackend(win.SurfaceDescriptor(),
		gpu.WithPresentMode(cfg.PresentMode()),
		gpu.WithForceSoftwareRenderer(*software),
	)
	defer backend.Release()
	width, height := win.FramebufferSize()
	backend.Configure(width, height)

	meshes := mesh.NewRegistry(backend)
	defer meshes.Release()
	textures := texture.NewRegistry()

	scene, err := newDemoScene(meshes, textures, *cubes)
	if err != nil {
		return err
	}

	r := renderer.NewRenderer(backend, backend, meshes,
		append(cfg.RendererOptions(logger), renderer.WithTextureRegistry(textures))...,
	)
	defer r.Release()

	pool := worker.NewDynamicWorkerPool(cfg.Renderer.GatherWorkers, 256, 1*time.Second)
	defer pool.Stop()

	orbit := camera.NewOrbitController(
		camera.WithRadius(40),
		camera.WithElevation(0.5),
		camera.WithRadiusBounds(4, 150),
	)
	cam := camera.New(camera.WithClipPlanes(0.1, 400)).Resized(width, height)
	prof := profiler.NewProfiler(profiler.WithLogger(logger))
	profiling := true

	win.SetDragCallback(func(dx, dy float32) {
		orbit.Orbit(-dx, dy)
	})
	win.SetScrollCallback(func(delta float32) {
		orbit.Zoom(delta)
	})
	win.SetResizeCallback(func(w, h uint32) {
		cam = cam.Resized(w, h)
		if err := r.Resize(w, h); err != nil {
			logger.Error("resize failed", slog.Any("error", err))
		}
	})
	win.SetKeyCallback(func(key int, down bool) {
		if !down {
			return
		}
		switch key {
		case common.KeySpace:
			scene.TogglePause()
		case common.KeyP:
			profiling = !profiling
		case common.KeyB:
			stats := r.Stats()
			logger.Info("texture binding",
				slog.String("mode", r.Pipelines().Textures().Mode.String()),
				slog.Int("opaque_batches", stats.OpaqueBatches),
				slog.Int("draw_calls", stats.DrawCalls()),
			)
		}
	})

	var runErr error
	count := 0
	last := time.Now()
	win.Run(func() bool {
		now := time.Now()
		scene.Update(float32(now.Sub(last).Seconds()))
		last = now

		cam = orbit.Apply(cam)
		objects := renderer.CollectRenderObjects(pool, scene.entities, scene.Resolver(cam.Frustum()))
		if err := r.Render(objects, scene.Lights(), cam); err != nil {
			var surfaceErr *gpu.SurfaceError
			if errors.As(err, &surfaceErr) && surfaceErr.NeedsReconfigure() {
				w, h := win.FramebufferSize()
				logger.Debug("reconfiguring surface", slog.Any("error", err))
				if err := r.Resize(w, h); err != nil {
					runErr = err
					return false
				}
				return true
			}
			if errors.As(err, &surfaceErr) && !errors.Is(err, gpu.ErrOutOfMemory) {
				logger.Warn("frame skipped", slog.Any("error", err))
				return true
			}
			runErr = err
			return false
		}
		if profiling {
			prof.Tick(r.Stats())
		}

		count++
		return *frames == 0 || count < *frames
	})
	if runErr != nil {
		logger.Error("render loop stopped", slog.Any("error", runErr))
	}
	return runErr
}
