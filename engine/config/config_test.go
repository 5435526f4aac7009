package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, Default(), c)
}

func TestLoadInvalidJSONReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	c := Load(path)
	assert.Equal(t, Default(), c)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "engine.json")

	want := Default()
	want.WindowTitle = "Lens"
	want.WindowWidth = 1920
	want.WindowHeight = 1080
	want.VSync = false
	want.MSAASamples = 8
	want.FrameLimit = 144
	want.Profiling = true

	require.NoError(t, Save(want, path))
	got := Load(path)
	assert.Equal(t, want, got)
}

func TestLoadNormalizesOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")
	raw := `{
		"window_width": -100,
		"window_height": 0,
		"msaa_samples": 3,
		"tick_rate": -5,
		"frame_limit": -1,
		"clear_color": [2.0, -0.5, 0.5, 1.0]
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	c := Load(path)
	assert.Equal(t, 1280, c.WindowWidth)
	assert.Equal(t, 720, c.WindowHeight)
	assert.Equal(t, 4, c.MSAASamples)
	assert.Equal(t, 60.0, c.TickRate)
	assert.Equal(t, 0.0, c.FrameLimit)
	assert.Equal(t, [4]float64{1, 0, 0.5, 1}, c.ClearColor)
}

func TestLoadPartialFileKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"window_title": "Partial"}`), 0644))

	c := Load(path)
	assert.Equal(t, "Partial", c.WindowTitle)
	assert.Equal(t, 1280, c.WindowWidth)
	assert.True(t, c.VSync)
	assert.Equal(t, 4, c.MSAASamples)
}
