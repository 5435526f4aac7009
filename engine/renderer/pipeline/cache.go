package pipeline

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/lensengine/lens/engine/asset"
)

// CompileError reports a shader module or pipeline creation failure. The error
// is fatal to the object that requested the pipeline, never to the frame or
// the scene; the failed key is not cached, so a later identical request
// compiles again.
type CompileError struct {
	PipelineKey string
	Err         error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling render pipeline %q: %v", e.PipelineKey, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// KeyFor derives the content key for a shader source and vertex layout pair.
// Keys are byte-sensitive on the source (formatting changes produce a new key)
// and structural on the layout (equal signatures share a key).
//
// Parameters:
//   - shaderSource: the WGSL module source
//   - layout: the vertex buffer layout
//
// Returns:
//   - string: the content key
func KeyFor(shaderSource string, layout asset.VertexLayout) string {
	h := fnv.New64a()
	h.Write([]byte(shaderSource))
	h.Write([]byte{0})
	h.Write([]byte(layout.Signature()))
	return fmt.Sprintf("%016x", h.Sum64())
}

// CompileFunc compiles a pipeline's GPU state. The renderer backend supplies
// the real implementation; tests inject fakes.
type CompileFunc func(Pipeline) error

// Cache is the append-only pipeline cache. Entries are keyed by content
// (shader source + vertex layout) and live until Release; nothing is evicted
// while a scene is running, so pipeline handles held by draw calls stay valid.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Pipeline
}

// NewCache creates an empty pipeline cache.
//
// Returns:
//   - *Cache: the cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Pipeline)}
}

// Get returns the cached pipeline for a key, or nil when absent.
//
// Parameters:
//   - key: the content key
//
// Returns:
//   - Pipeline: the cached pipeline or nil
func (c *Cache) Get(key string) Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

// GetOrCreate returns the pipeline for the given shader source and vertex
// layout, compiling and caching it on first request. Identical source and
// structurally equal layouts share one compiled pipeline. A compile failure is
// returned as a *CompileError and nothing is cached for the key.
//
// Parameters:
//   - shaderSource: the WGSL module source
//   - layout: the vertex buffer layout
//   - compile: the backend compile function
//   - opts: pipeline configuration applied when a new entry is created
//
// Returns:
//   - Pipeline: the cached or newly compiled pipeline
//   - error: non-nil when compilation fails
func (c *Cache) GetOrCreate(shaderSource string, layout asset.VertexLayout, compile CompileFunc, opts ...PipelineBuilderOption) (Pipeline, error) {
	key := KeyFor(shaderSource, layout)

	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p := NewPipeline(shaderSource, layout, opts...)
	if err := compile(p); err != nil {
		return nil, &CompileError{PipelineKey: key, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent caller may have won the compile race; keep the existing
	// entry so every holder of this key sees one pipeline.
	if existing, ok := c.entries[key]; ok {
		p.Release()
		return existing, nil
	}
	c.entries[key] = p
	return p, nil
}

// Len returns the number of cached pipelines.
//
// Returns:
//   - int: the entry count
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Release frees every cached pipeline and empties the cache. Called at scene
// teardown after the device has gone idle.
func (c *Cache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, p := range c.entries {
		p.Release()
		delete(c.entries, key)
	}
}
