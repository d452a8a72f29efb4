package profiler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var out bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewJSONHandler(&out, nil))),
	)
	frame := renderer.FrameStats{Frame: 30, OpaqueDraws: 3, ShadowDraws: 2, OpaqueBatches: 3, Instances: 12}

	for range 29 {
		clock.t = clock.t.Add(30 * time.Millisecond)
		assert.False(t, p.Tick(frame))
	}
	assert.Zero(t, out.Len())

	clock.t = time.Unix(2, 0)
	require.True(t, p.Tick(frame))
	assert.InDelta(t, 15.0, p.Last().FPS, 1e-9)
	assert.Equal(t, frame, p.Last().Frame)

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "frame stats", record["msg"])
	assert.Equal(t, "profiler", record["component"])
	assert.Equal(t, float64(5), record["draw_calls"])
	assert.Equal(t, float64(12), record["instances"])

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick(frame))
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
