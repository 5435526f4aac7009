package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensengine/lens/engine/asset"
)

const srcA = "@vertex fn vs_main() {}"
const srcB = "@vertex  fn vs_main() {}" // differs by one byte of whitespace

func noopCompile(Pipeline) error { return nil }

func TestKeyForSharedAndDistinct(t *testing.T) {
	layout := asset.DefaultLayout()

	assert.Equal(t, KeyFor(srcA, layout), KeyFor(srcA, asset.DefaultLayout()),
		"identical source and structurally equal layouts share a key")

	assert.NotEqual(t, KeyFor(srcA, layout), KeyFor(srcB, layout),
		"byte-different source splits the key even when semantically equivalent")

	other := asset.DefaultLayout()
	other.ArrayStride = 48
	assert.NotEqual(t, KeyFor(srcA, layout), KeyFor(srcA, other),
		"different stride splits the key")
}

func TestCacheSharesPipeline(t *testing.T) {
	c := NewCache()
	compiles := 0
	compile := func(Pipeline) error {
		compiles++
		return nil
	}

	layout := asset.DefaultLayout()
	p1, err := c.GetOrCreate(srcA, layout, compile)
	require.NoError(t, err)
	p2, err := c.GetOrCreate(srcA, layout, compile)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, compiles, "second request must hit the cache")
	assert.Equal(t, 1, c.Len())
}

func TestCacheDistinctEntries(t *testing.T) {
	c := NewCache()
	layout := asset.DefaultLayout()

	p1, err := c.GetOrCreate(srcA, layout, noopCompile)
	require.NoError(t, err)
	p2, err := c.GetOrCreate(srcB, layout, noopCompile)
	require.NoError(t, err)

	assert.NotSame(t, p1, p2)
	assert.Equal(t, 2, c.Len())
}

func TestCacheCompileFailureNotCached(t *testing.T) {
	c := NewCache()
	layout := asset.DefaultLayout()
	boom := errors.New("naga: parse error")

	_, err := c.GetOrCreate(srcA, layout, func(Pipeline) error { return boom })
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KeyFor(srcA, layout), ce.PipelineKey)
	assert.Zero(t, c.Len(), "failed compiles must not be cached")

	// A later identical request retries and may succeed.
	p, err := c.GetOrCreate(srcA, layout, noopCompile)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, 1, c.Len())
}

func TestCacheGetMissing(t *testing.T) {
	c := NewCache()
	assert.Nil(t, c.Get("no-such-key"))
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline(srcA, asset.DefaultLayout())
	assert.Equal(t, KeyFor(srcA, asset.DefaultLayout()), p.PipelineKey())
	assert.Equal(t, srcA, p.ShaderSource())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Nil(t, p.RenderPipeline())
}
