package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensengine/lens/engine/asset"
)

const triangleOBJ = `
# simple triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

const quadOBJ = `
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3 4
`

func TestLoadReaderTriangle(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)

	obj, err := l.LoadReader("triangle", strings.NewReader(triangleOBJ))
	require.NoError(t, err)

	assert.Equal(t, "triangle", obj.Name())
	assert.Equal(t, 3, obj.VertexCount())
	assert.Equal(t, 3, obj.IndexCount())
	assert.False(t, obj.Empty())
}

func TestLoadReaderQuadFanTriangulation(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)

	obj, err := l.LoadReader("quad", strings.NewReader(quadOBJ))
	require.NoError(t, err)

	// A quad becomes two triangles sharing the first corner.
	assert.Equal(t, 4, obj.VertexCount())
	assert.Equal(t, 6, obj.IndexCount())
}

func TestLoadReaderDeduplicatesCorners(t *testing.T) {
	// Two triangles sharing an edge, referencing the same v/vt/vn triples.
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 2 4 3
`
	l := NewLoader(BackendTypeOBJ)

	obj, err := l.LoadReader("shared", strings.NewReader(src))
	require.NoError(t, err)

	// Shared corners collapse to one vertex each.
	assert.Equal(t, 4, obj.VertexCount())
	assert.Equal(t, 6, obj.IndexCount())
}

func TestLoadReaderNegativeIndices(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	l := NewLoader(BackendTypeOBJ)

	obj, err := l.LoadReader("negative", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, obj.VertexCount())
	assert.Equal(t, 3, obj.IndexCount())
}

func TestLoadReaderObjectNameStatement(t *testing.T) {
	src := `
o Cube
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	l := NewLoader(BackendTypeOBJ)

	obj, err := l.LoadReader("fallback", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "Cube", obj.Name())
}

func TestLoadReaderOutOfRangeFaceIndex(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
f 1 2 9
`
	l := NewLoader(BackendTypeOBJ)

	_, err := l.LoadReader("broken", strings.NewReader(src))
	require.Error(t, err)

	var loadErr *asset.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "broken", loadErr.Source)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadReaderMalformedPosition(t *testing.T) {
	src := `
v 0 0 banana
`
	l := NewLoader(BackendTypeOBJ)

	_, err := l.LoadReader("malformed", strings.NewReader(src))
	require.Error(t, err)

	var loadErr *asset.LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)

	_, err := l.Load(filepath.Join(t.TempDir(), "nope.obj"))
	require.Error(t, err)

	var loadErr *asset.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadUnsupportedExtension(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)

	_, err := l.Load("model.fbx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mesh format")
}

func TestLoadCachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte(triangleOBJ), 0o644))

	l := NewLoader(BackendTypeOBJ)

	first, err := l.Load(path)
	require.NoError(t, err)

	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Same(t, first, l.Get(path))
	assert.Len(t, l.Objects(), 1)
}

func TestLoaderWithObjectPrepopulates(t *testing.T) {
	obj, err := asset.NewObject(asset.WithName("seed"))
	require.NoError(t, err)

	l := NewLoader(BackendTypeOBJ, WithObject("seed", obj))
	assert.Same(t, obj, l.Get("seed"))
}
