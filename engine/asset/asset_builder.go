package asset

// ObjectBuilderOption defines a function type for configuring an object during construction.
type ObjectBuilderOption func(*object)

// WithName sets the mesh identifier.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - ObjectBuilderOption: a function that applies the name to the object
func WithName(name string) ObjectBuilderOption {
	return func(o *object) {
		o.name = name
	}
}

// WithVertices sets the vertex data. The slice is copied so later mutation of
// the caller's slice cannot break the Object's immutability.
//
// Parameters:
//   - vertices: the mesh vertices
//
// Returns:
//   - ObjectBuilderOption: a function that applies the vertices to the object
func WithVertices(vertices []Vertex) ObjectBuilderOption {
	return func(o *object) {
		o.vertices = make([]Vertex, len(vertices))
		copy(o.vertices, vertices)
	}
}

// WithIndices sets the index data. The slice is copied; every index is
// validated against the vertex count when NewObject runs.
//
// Parameters:
//   - indices: the mesh indices (three per triangle)
//
// Returns:
//   - ObjectBuilderOption: a function that applies the indices to the object
func WithIndices(indices []uint32) ObjectBuilderOption {
	return func(o *object) {
		o.indices = make([]uint32, len(indices))
		copy(o.indices, indices)
	}
}

// WithLayout overrides the vertex buffer layout. Defaults to DefaultLayout.
//
// Parameters:
//   - layout: the layout describing the vertex data
//
// Returns:
//   - ObjectBuilderOption: a function that applies the layout to the object
func WithLayout(layout VertexLayout) ObjectBuilderOption {
	return func(o *object) {
		o.layout = layout
	}
}
