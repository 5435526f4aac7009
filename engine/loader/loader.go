package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lensengine/lens/engine/asset"
)

// LoaderBackendType identifies the mesh file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeOBJ selects the Wavefront OBJ loader backend.
	BackendTypeOBJ LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string]asset.Object

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching mesh assets.
// It abstracts the file format (currently Wavefront OBJ) behind a generic backend
// and manages a cache of previously loaded meshes keyed by file path.
type Loader interface {
	// Load imports a mesh file and caches the result.
	// If the mesh is already cached (by file path), the cached version is returned.
	// The backend is selected based on the file extension (.obj → OBJ backend).
	//
	// Parameters:
	//   - path: the file path to the mesh file
	//
	// Returns:
	//   - asset.Object: the loaded and cached mesh
	//   - error: a *asset.LoadError if reading or parsing fails
	Load(path string) (asset.Object, error)

	// LoadReader imports a mesh from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded mesh
	//   - r: the reader providing mesh data
	//
	// Returns:
	//   - asset.Object: the loaded mesh
	//   - error: a *asset.LoadError if parsing fails
	LoadReader(name string, r io.Reader) (asset.Object, error)

	// Get retrieves a cached mesh by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - asset.Object: the cached mesh or nil
	Get(name string) asset.Object

	// Objects returns a copy of the full mesh cache.
	//
	// Returns:
	//   - map[string]asset.Object: all cached meshes keyed by name
	Objects() map[string]asset.Object
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeOBJ)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:        sync.RWMutex{},
		meshCache: make(map[string]asset.Object),
	}

	switch backendType {
	case BackendTypeOBJ:
		l.backend = newOBJLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (asset.Object, error) {
	l.mu.RLock()
	if cached, ok := l.meshCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, &asset.LoadError{Source: path, Err: err}
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, &asset.LoadError{Source: path, Err: err}
	}

	obj, err := l.importedToObject(imported)
	if err != nil {
		return nil, &asset.LoadError{Source: path, Err: err}
	}

	l.mu.Lock()
	l.meshCache[path] = obj
	l.mu.Unlock()

	return obj, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (asset.Object, error) {
	l.mu.RLock()
	if cached, ok := l.meshCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	imported, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, &asset.LoadError{Source: name, Err: err}
	}

	obj, err := l.importedToObject(imported)
	if err != nil {
		return nil, &asset.LoadError{Source: name, Err: err}
	}

	l.mu.Lock()
	l.meshCache[name] = obj
	l.mu.Unlock()

	return obj, nil
}

func (l *loader) Get(name string) asset.Object {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Objects() map[string]asset.Object {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]asset.Object, len(l.meshCache))
	for k, v := range l.meshCache {
		result[k] = v
	}
	return result
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only Wavefront OBJ is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obj":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// importedToObject converts an importedMesh (CPU parse result) into an immutable asset.Object.
// Index validation against the vertex count happens inside asset.NewObject.
func (l *loader) importedToObject(imported *importedMesh) (asset.Object, error) {
	obj, err := asset.NewObject(
		asset.WithName(imported.Name),
		asset.WithVertices(imported.Vertices),
		asset.WithIndices(imported.Indices),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build mesh %q: %w", imported.Name, err)
	}
	return obj, nil
}
