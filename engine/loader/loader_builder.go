package loader

import (
	"github.com/lensengine/lens/engine/asset"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithObject is an option builder that pre-populates the mesh cache with an object.
//
// Parameters:
//   - key: the cache key for the mesh
//   - obj: the mesh to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the object option to a loader
func WithObject(key string, obj asset.Object) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[key] = obj
	}
}
