package scene

// SceneBuilderOption is a functional option used to configure a Scene during construction.
type SceneBuilderOption func(*scene)

// WithComputeWorkers overrides the number of goroutines used for the parallel
// instance serialization phase of RenderFrame. The default is NumCPU-1 with a
// floor of 1; values below 1 are clamped to 1.
//
// Parameters:
//   - workers: the worker count to use
//
// Returns:
//   - SceneBuilderOption: a function that sets the compute worker count
func WithComputeWorkers(workers int) SceneBuilderOption {
	return func(s *scene) {
		s.computeWorkers = max(workers, 1)
	}
}

// WithObjects adds the described objects to the scene in order during
// construction, equivalent to calling AddObject for each descriptor.
//
// Parameters:
//   - descs: the object descriptors to add
//
// Returns:
//   - SceneBuilderOption: a function that populates the scene's draw order
func WithObjects(descs ...ObjectDescriptor) SceneBuilderOption {
	return func(s *scene) {
		for _, desc := range descs {
			s.addObjectLocked(desc)
		}
	}
}
