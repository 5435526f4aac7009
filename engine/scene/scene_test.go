package scene

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lensengine/lens/engine/asset"
	"github.com/lensengine/lens/engine/camera"
	"github.com/lensengine/lens/engine/object"
	"github.com/lensengine/lens/engine/renderer"
	"github.com/lensengine/lens/engine/renderer/bind_group_provider"
	"github.com/lensengine/lens/engine/renderer/pipeline"
)

type fakeDraw struct {
	pipelineKey   string
	instanceCount uint32
	indexCount    int
}

// fakeRenderer satisfies renderer.Renderer without a GPU. Pipelines come from
// a real cache with an injected compile function, so content keying and
// compile-failure behavior match the production path.
type fakeRenderer struct {
	cache             *pipeline.Cache
	failSources       map[string]error
	failBindGroupInit error

	compileCount       int
	meshInitCount      int
	bindGroupInitSizes []uint64
	writeBatches       [][]bind_group_provider.BufferWrite
	draws              []fakeDraw
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		cache:       pipeline.NewCache(),
		failSources: make(map[string]error),
	}
}

func (f *fakeRenderer) EnsurePipeline(shaderSource string, layout asset.VertexLayout, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	return f.cache.GetOrCreate(shaderSource, layout, func(p pipeline.Pipeline) error {
		f.compileCount++
		if err := f.failSources[p.ShaderSource()]; err != nil {
			return err
		}
		return nil
	}, opts...)
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline {
	return f.cache.Get(key)
}

func (f *fakeRenderer) Resize(width, height int)                 {}
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}

func (f *fakeRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	f.meshInitCount++
	provider.SetIndexCount(indexCount)
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	if f.failBindGroupInit != nil {
		err := f.failBindGroupInit
		f.failBindGroupInit = nil
		return err
	}
	f.bindGroupInitSizes = append(f.bindGroupInitSizes, bufferSizeOverrides[0])
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	// The scene reuses its write slice across frames, so record a copy.
	batch := make([]bind_group_provider.BufferWrite, len(writes))
	copy(batch, writes)
	f.writeBatches = append(f.writeBatches, batch)
}

func (f *fakeRenderer) BeginFrame() error { return nil }

func (f *fakeRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	if f.cache.Get(pipelineKey) == nil {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}
	f.draws = append(f.draws, fakeDraw{
		pipelineKey:   pipelineKey,
		instanceCount: instanceCount,
		indexCount:    meshProvider.IndexCount(),
	})
	return nil
}

func (f *fakeRenderer) EndFrame()     {}
func (f *fakeRenderer) Present()      {}
func (f *fakeRenderer) DiscardFrame() {}
func (f *fakeRenderer) WaitIdle()     {}
func (f *fakeRenderer) Release()      {}

func (f *fakeRenderer) lastWrites() []bind_group_provider.BufferWrite {
	if len(f.writeBatches) == 0 {
		return nil
	}
	return f.writeBatches[len(f.writeBatches)-1]
}

func triangleMesh(t *testing.T, name string) asset.Object {
	t.Helper()
	mesh, err := asset.NewObject(
		asset.WithName(name),
		asset.WithVertices([]asset.Vertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 1, 0}},
		}),
		asset.WithIndices([]uint32{0, 1, 2}),
	)
	require.NoError(t, err)
	return mesh
}

func emptyMesh(t *testing.T) asset.Object {
	t.Helper()
	mesh, err := asset.NewObject(asset.WithName("empty"))
	require.NoError(t, err)
	return mesh
}

func newTestScene(t *testing.T) (Scene, *fakeRenderer) {
	t.Helper()
	r := newFakeRenderer()
	s := NewScene("test", camera.NewCamera(), r, WithComputeWorkers(2))
	return s, r
}

func TestNewScenePanicsOnNilCamera(t *testing.T) {
	assert.Panics(t, func() {
		NewScene("test", nil, newFakeRenderer())
	})
}

func TestNewScenePanicsOnNilRenderer(t *testing.T) {
	assert.Panics(t, func() {
		NewScene("test", camera.NewCamera(), nil)
	})
}

func TestAddObjectAssignsIDsInInsertionOrder(t *testing.T) {
	s, _ := newTestScene(t)

	a := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "a")})
	b := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "b")})

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, s.Count())
	assert.Same(t, a, s.Object(a.ID()))

	objs := s.Objects()
	require.Len(t, objs, 2)
	assert.Same(t, a, objs[0])
	assert.Same(t, b, objs[1])
}

func TestAddObjectDoesNoGPUWork(t *testing.T) {
	s, r := newTestScene(t)

	o := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	assert.Nil(t, o.MeshProvider())
	assert.Nil(t, o.InstanceProvider())
	assert.Zero(t, r.meshInitCount)
	assert.Zero(t, r.compileCount)
}

func TestRenderFrameInitializesResourcesLazily(t *testing.T) {
	s, r := newTestScene(t)
	o := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	errs := s.RenderFrame()

	assert.Empty(t, errs)
	assert.NotNil(t, o.MeshProvider())
	assert.NotNil(t, o.InstanceProvider())
	assert.NotEmpty(t, o.PipelineKey())
	assert.Equal(t, 1, r.meshInitCount)

	require.Len(t, r.draws, 1)
	assert.Equal(t, o.PipelineKey(), r.draws[0].pipelineKey)
	assert.Equal(t, uint32(1), r.draws[0].instanceCount)
	assert.Equal(t, 3, r.draws[0].indexCount)
}

func TestRenderFrameUploadsCameraUniformAndInstanceData(t *testing.T) {
	s, r := newTestScene(t)
	s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	s.RenderFrame()

	writes := r.lastWrites()
	require.Len(t, writes, 2)
	assert.Len(t, writes[0].Data, 80, "camera uniform is 80 bytes")
	assert.Len(t, writes[1].Data, 64, "single instance is one 64-byte matrix")
}

func TestRenderFrameSkipsUploadForCleanObjects(t *testing.T) {
	s, r := newTestScene(t)
	o := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	s.RenderFrame()
	s.RenderFrame()

	// The second frame writes only the camera uniform.
	writes := r.lastWrites()
	require.Len(t, writes, 1)
	assert.Len(t, writes[0].Data, 80)
	assert.False(t, o.Dirty())
	assert.Len(t, r.draws, 2, "clean objects still draw every frame")
}

func TestRenderFrameReuploadsDirtyObjects(t *testing.T) {
	s, r := newTestScene(t)
	o := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	s.RenderFrame()
	o.SetPosition(3, 0, 0)
	s.RenderFrame()

	writes := r.lastWrites()
	require.Len(t, writes, 2)
	assert.Len(t, writes[1].Data, 64)
	assert.False(t, o.Dirty())
}

func TestRenderFrameDrawsInInsertionOrder(t *testing.T) {
	s, r := newTestScene(t)

	shaderA := DefaultShaderSource + "\n// variant a\n"
	shaderB := DefaultShaderSource + "\n// variant b\n"
	a := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "a"), ShaderSource: shaderA})
	b := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "b"), ShaderSource: shaderB})
	c := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "c"), ShaderSource: shaderA})

	errs := s.RenderFrame()

	assert.Empty(t, errs)
	require.Len(t, r.draws, 3)
	assert.Equal(t, a.PipelineKey(), r.draws[0].pipelineKey)
	assert.Equal(t, b.PipelineKey(), r.draws[1].pipelineKey)
	assert.Equal(t, c.PipelineKey(), r.draws[2].pipelineKey)
}

func TestRenderFrameSharesPipelineForEqualContent(t *testing.T) {
	s, r := newTestScene(t)

	a := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "a")})
	b := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "b")})

	s.RenderFrame()

	assert.Equal(t, a.PipelineKey(), b.PipelineKey())
	assert.Equal(t, 1, r.compileCount, "equal shader and layout compile once")
	assert.Equal(t, 1, r.cache.Len())
}

func TestRenderFrameAbortsWhenCameraBindGroupFails(t *testing.T) {
	s, r := newTestScene(t)
	s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	r.failBindGroupInit = errors.New("out of device memory")
	errs := s.RenderFrame()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrFrameAborted, "camera failure is frame-level")
	assert.Empty(t, r.draws, "nothing draws without the camera uniform bound")

	// The failure was transient, so the next frame recovers fully.
	errs = s.RenderFrame()
	assert.Empty(t, errs)
	assert.Len(t, r.draws, 1)
}

func TestRenderFrameEmptyMeshSkipsObjectNotFrame(t *testing.T) {
	s, r := newTestScene(t)
	bad := s.AddObject(ObjectDescriptor{Mesh: emptyMesh(t)})
	good := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "good")})

	errs := s.RenderFrame()

	require.Len(t, errs, 1)
	var emptyErr *object.EmptyMeshError
	require.ErrorAs(t, errs[0], &emptyErr)
	assert.Equal(t, bad.ID(), emptyErr.ID)
	assert.NotNil(t, bad.Failed())

	require.Len(t, r.draws, 1)
	assert.Equal(t, good.PipelineKey(), r.draws[0].pipelineKey)
}

func TestRenderFrameFailedObjectStaysSkippedSilently(t *testing.T) {
	s, r := newTestScene(t)
	s.AddObject(ObjectDescriptor{Mesh: emptyMesh(t)})
	s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "good")})

	first := s.RenderFrame()
	second := s.RenderFrame()

	assert.Len(t, first, 1)
	assert.Empty(t, second, "failures are reported once, on the failing frame")
	assert.Len(t, r.draws, 2)
}

func TestRenderFrameCompileFailureMarksObjectFailed(t *testing.T) {
	s, r := newTestScene(t)
	badSource := "@vertex fn vs_main() {"
	r.failSources[badSource] = errors.New("parse error")

	bad := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "bad"), ShaderSource: badSource})
	good := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "good")})

	errs := s.RenderFrame()

	require.Len(t, errs, 1)
	var compileErr *pipeline.CompileError
	assert.ErrorAs(t, errs[0], &compileErr)
	assert.NotNil(t, bad.Failed())
	assert.Equal(t, 1, r.cache.Len(), "failed compile is not cached")

	require.Len(t, r.draws, 1)
	assert.Equal(t, good.PipelineKey(), r.draws[0].pipelineKey)
}

func TestRenderFrameInstancedDraw(t *testing.T) {
	s, r := newTestScene(t)

	set := object.NewInstanceSetFromTransforms(
		object.Transform{Position: [3]float32{0, 0, 0}, Scale: [3]float32{1, 1, 1}},
		object.Transform{Position: [3]float32{2, 0, 0}, Scale: [3]float32{1, 1, 1}},
		object.Transform{Position: [3]float32{4, 0, 0}, Scale: [3]float32{1, 1, 1}},
	)
	s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri"), Instances: set})

	s.RenderFrame()

	require.Len(t, r.draws, 1)
	assert.Equal(t, uint32(3), r.draws[0].instanceCount)

	writes := r.lastWrites()
	require.Len(t, writes, 2)
	assert.Len(t, writes[1].Data, 3*64)
}

func TestRenderFrameRebuildsStorageBufferOnInstanceGrowth(t *testing.T) {
	s, r := newTestScene(t)
	o := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	s.RenderFrame()
	firstProvider := o.InstanceProvider()

	o.SetInstances(object.NewInstanceSet(
		object.Transform{Scale: [3]float32{1, 1, 1}}.Matrix(),
		object.Transform{Position: [3]float32{1, 0, 0}, Scale: [3]float32{1, 1, 1}}.Matrix(),
	))
	s.RenderFrame()

	assert.NotSame(t, firstProvider, o.InstanceProvider())
	require.Len(t, r.draws, 2)
	assert.Equal(t, uint32(2), r.draws[1].instanceCount)

	sizes := r.bindGroupInitSizes
	require.NotEmpty(t, sizes)
	assert.Equal(t, uint64(128), sizes[len(sizes)-1])
}

func TestRemovePreservesDrawOrder(t *testing.T) {
	s, r := newTestScene(t)

	a := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "a")})
	b := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "b")})
	c := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "c")})

	s.RenderFrame()
	require.True(t, s.Remove(b.ID()))
	r.draws = nil
	s.RenderFrame()

	require.Len(t, r.draws, 2)
	objs := s.Objects()
	require.Len(t, objs, 2)
	assert.Same(t, a, objs[0])
	assert.Same(t, c, objs[1])
	assert.Nil(t, s.Object(b.ID()))
}

func TestRemoveUnknownID(t *testing.T) {
	s, _ := newTestScene(t)
	assert.False(t, s.Remove(42))
}

func TestWithObjectsPopulatesDrawOrder(t *testing.T) {
	r := newFakeRenderer()
	s := NewScene("test", camera.NewCamera(), r, WithObjects(
		ObjectDescriptor{Mesh: nil},
		ObjectDescriptor{Mesh: nil},
	))
	assert.Equal(t, 2, s.Count())
}

func TestReleaseFreesObjects(t *testing.T) {
	s, _ := newTestScene(t)
	o := s.AddObject(ObjectDescriptor{Mesh: triangleMesh(t, "tri")})

	s.RenderFrame()
	s.Release()

	assert.Zero(t, s.Count())
	assert.Nil(t, o.MeshProvider())
	assert.Nil(t, o.InstanceProvider())
}
