package loader

import (
	"io"

	"github.com/lensengine/lens/engine/asset"
)

// importedMesh is the CPU-side parse result produced by a loader backend,
// before conversion into an immutable asset.Object.
type importedMesh struct {
	Name     string
	Vertices []asset.Vertex
	Indices  []uint32
}

// loaderBackend defines the generic interface for loading meshes from files or streams.
// Concrete implementations (e.g., objLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full mesh import from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *importedMesh: the imported mesh data
	//   - error: error if reading or parsing fails
	Load(path string) (*importedMesh, error)

	// LoadReader imports a mesh from a reader stream.
	//
	// Parameters:
	//   - name: the name assigned to the imported mesh
	//   - r: the reader providing mesh data
	//
	// Returns:
	//   - *importedMesh: the imported mesh data
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader) (*importedMesh, error)
}
