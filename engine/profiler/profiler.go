// Package profiler logs frame rate, renderer workload and memory statistics at a fixed interval.
package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// Report is one interval's worth of statistics.
type Report struct {
	FPS float64

	// Frame is the renderer snapshot of the last frame in the interval.
	Frame renderer.FrameStats

	HeapMB      float64
	SysMB       float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Time
	readMem        func(*runtime.MemStats)
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		now:            time.Now,
		readMem:        runtime.ReadMemStats,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "profiler"))
	p.lastTime = p.now()
	return p
}

// Tick should be called once per rendered frame with the renderer's statistics for that frame.
// Logs a report when the update interval has elapsed.
//
// Parameters:
//   - frame: the statistics of the frame just rendered
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(frame renderer.FrameStats) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	p.readMem(&p.memStats)
	r := Report{
		FPS:    float64(p.frameCount) / elapsed.Seconds(),
		Frame:  frame,
		HeapMB: float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:  float64(p.memStats.Sys) / 1024 / 1024,
		// TotalAlloc only grows, so its delta is the allocation churn of the interval
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("frame stats",
		slog.Float64("fps", r.FPS),
		slog.Int("draw_calls", frame.DrawCalls()),
		slog.Int("shadow_passes", frame.ShadowPasses),
		slog.Int("batches", frame.Batches()),
		slog.Int("instances", frame.Instances),
		slog.Int("materials", frame.Materials),
		slog.Int("skipped_batches", frame.SkippedBatches),
		slog.Int("buffer_growths", frame.BufferGrowths),
		slog.Float64("heap_mb", r.HeapMB),
		slog.Float64("alloc_rate_mb", r.AllocRateMB),
		slog.Uint64("gc", uint64(r.GCCount)),
		slog.Uint64("gc_last_pause_us", r.LastPauseUs),
		slog.Uint64("gc_max_pause_us", r.MaxPauseUs),
		slog.Float64("sys_mb", r.SysMB))

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = r
	return true
}

// Last returns the most recently logged report.
//
// Returns:
//   - Report: the last report, zero before the first interval elapsed
func (p *Profiler) Last() Report {
	return p.last
}
