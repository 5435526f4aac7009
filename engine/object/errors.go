package object

import "fmt"

// EmptyMeshError reports an object whose mesh has zero vertices or zero
// indices at render preparation time. The object is skipped; the frame
// proceeds for every other object.
type EmptyMeshError struct {
	ID   uint64
	Name string
}

func (e *EmptyMeshError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("object %d (%q): mesh has no drawable geometry", e.ID, e.Name)
	}
	return fmt.Sprintf("object %d: mesh has no drawable geometry", e.ID)
}
