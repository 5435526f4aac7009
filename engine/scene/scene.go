package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lensengine/lens/engine/asset"
	"github.com/lensengine/lens/engine/camera"
	"github.com/lensengine/lens/engine/object"
	"github.com/lensengine/lens/engine/renderer"
	"github.com/lensengine/lens/engine/renderer/bind_group_provider"
	"github.com/lensengine/lens/engine/renderer/pipeline"
)

// DefaultShaderSource is the WGSL module used by objects that supply no shader
// of their own. It binds the camera uniform at group 0 and the per-instance
// model matrices at group 1, matching the pipeline layout the renderer compiles
// for every object.
//
//go:embed assets/default.wgsl
var DefaultShaderSource string

// ErrFrameAborted reports a frame-level failure: nothing was drawn for the
// frame, as opposed to per-object errors where the rest of the frame proceeds.
// Callers must discard the frame instead of presenting it.
var ErrFrameAborted = errors.New("frame aborted")

// ObjectDescriptor describes a renderable object to add to a scene. Only Mesh
// is required; every other field has a usable zero value.
type ObjectDescriptor struct {
	// Mesh is the immutable geometry to render.
	Mesh asset.Object
	// ShaderSource is the WGSL module to render with. Empty selects
	// DefaultShaderSource.
	ShaderSource string
	// Position is the base transform's world position.
	Position [3]float32
	// TransformOverride, when non-nil, replaces the composed base transform
	// matrix.
	TransformOverride *[16]float32
	// Instances holds per-instance world matrices. Nil or empty renders a
	// single instance from the base transform.
	Instances *object.InstanceSet
	// PipelineOptions configure the render pipeline compiled for this object's
	// shader and vertex layout. Only applied when the pipeline is first built;
	// later objects sharing the same shader and layout reuse the cached entry.
	PipelineOptions []pipeline.PipelineBuilderOption
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name string
	cam  camera.Camera
	r    renderer.Renderer

	// objects holds every renderable in insertion order. Draws are issued in
	// this order; removal cuts the slice without reordering survivors.
	objects []object.Object
	// index maps object ID to the entry in objects for O(1) lookup.
	index  map[uint64]object.Object
	nextID uint64

	// pipelineOpts holds per-object pipeline configuration captured at
	// AddObject time, applied when the object's pipeline is first compiled.
	pipelineOpts map[uint64][]pipeline.PipelineBuilderOption

	// cameraReady is set once the camera's uniform buffer and bind group have
	// been created on the GPU.
	cameraReady bool

	// instanceCapacity records the byte size of each object's instance storage
	// buffer. Storage buffers are fixed size once created, so a changed
	// serialized length forces the buffer and bind group to be rebuilt.
	instanceCapacity map[uint64]uint64

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider

	// computePool manages a bounded set of reusable goroutines for the
	// parallel instance serialization phase of RenderFrame. Workers persist
	// across frames, avoiding per-frame goroutine spawn/teardown overhead.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

// Scene owns an ordered collection of renderable objects and drives their
// per-frame GPU work: lazy resource creation, dirty data upload, and draw
// submission. A scene is confined to the goroutine that renders it.
type Scene interface {
	// Name returns the scene's name.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// SetName sets the scene's name.
	//
	// Parameters:
	//   - name: the new scene name
	SetName(name string)

	// Camera returns the camera attached to this scene.
	//
	// Returns:
	//   - camera.Camera: the attached camera
	Camera() camera.Camera

	// Renderer returns the renderer attached to this scene.
	//
	// Returns:
	//   - renderer.Renderer: the attached renderer
	Renderer() renderer.Renderer

	// AddObject creates a renderable object from the descriptor and appends it
	// to the scene's draw order. No GPU work happens here; buffers and the
	// pipeline are created lazily on the object's first frame.
	//
	// Parameters:
	//   - desc: the object descriptor
	//
	// Returns:
	//   - object.Object: the created object, with its scene-assigned ID
	AddObject(desc ObjectDescriptor) object.Object

	// Object retrieves an object by its scene-assigned ID.
	//
	// Parameters:
	//   - id: the object ID to look up
	//
	// Returns:
	//   - object.Object: the object, or nil if no object has that ID
	Object(id uint64) object.Object

	// Objects returns the scene's objects in draw (insertion) order. The
	// returned slice is a copy; mutating it does not affect the scene.
	//
	// Returns:
	//   - []object.Object: the objects in draw order
	Objects() []object.Object

	// Remove detaches an object from the scene, releases its GPU resources,
	// and closes the gap in the draw order without reordering survivors.
	//
	// Parameters:
	//   - id: the ID of the object to remove
	//
	// Returns:
	//   - bool: true if an object with that ID was removed
	Remove(id uint64) bool

	// Count returns the number of objects in the scene.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// RenderFrame performs the scene's per-frame GPU work between the
	// renderer's BeginFrame and EndFrame: initializes GPU resources for new
	// objects, uploads the camera uniform and any dirty instance data, then
	// issues one instanced draw per live object in insertion order.
	//
	// A failing object is recorded, skipped, and reported; it never aborts the
	// frame or affects other objects. Objects that failed on an earlier frame
	// stay skipped.
	//
	// Returns:
	//   - []error: one entry per object that failed this frame, or nil
	RenderFrame() []error

	// Release frees the GPU resources of every object in the scene and the
	// camera's bind group. The caller is responsible for waiting on device
	// idle first.
	Release()
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer. Both are
// required and NewScene panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		name:               name,
		cam:                cam,
		r:                  r,
		index:              make(map[uint64]object.Object),
		pipelineOpts:       make(map[uint64][]pipeline.PipelineBuilderOption),
		instanceCapacity:   make(map[uint64]uint64),
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 2),
		computeWorkers:     max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can
	// override the default. Queue size of 256 accommodates typical dirty
	// object counts with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) AddObject(desc ObjectDescriptor) object.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addObjectLocked(desc)
}

// addObjectLocked creates and registers the object. Caller must hold s.mu
// write lock (or be the constructor before the scene is shared).
func (s *scene) addObjectLocked(desc ObjectDescriptor) object.Object {
	opts := []object.ObjectBuilderOption{
		object.WithMesh(desc.Mesh),
		object.WithShaderSource(desc.ShaderSource),
		object.WithPosition(desc.Position[0], desc.Position[1], desc.Position[2]),
	}
	if desc.TransformOverride != nil {
		opts = append(opts, object.WithOverride(desc.TransformOverride))
	}
	if desc.Instances != nil {
		opts = append(opts, object.WithInstances(desc.Instances))
	}

	o := object.NewObject(opts...)
	s.nextID++
	o.SetID(s.nextID)

	s.objects = append(s.objects, o)
	s.index[o.ID()] = o
	if len(desc.PipelineOptions) > 0 {
		s.pipelineOpts[o.ID()] = desc.PipelineOptions
	}

	return o
}

func (s *scene) Object(id uint64) object.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index[id]
}

func (s *scene) Objects() []object.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]object.Object, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *scene) Remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.index[id]
	if !exists {
		return false
	}

	delete(s.index, id)
	delete(s.pipelineOpts, id)
	delete(s.instanceCapacity, id)

	for i, existing := range s.objects {
		if existing == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			break
		}
	}

	o.Release()
	return true
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *scene) RenderFrame() []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCameraResources(); err != nil {
		// Nothing can draw without the camera uniform bound.
		return []error{fmt.Errorf("%w: scene %q: camera bind group: %w", ErrFrameAborted, s.name, err)}
	}

	errs := s.prepareObjects()
	errs = append(errs, s.uploadFrameData()...)
	errs = append(errs, s.drawObjects()...)
	return errs
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.objects {
		o.Release()
	}
	if bgp := s.cam.BindGroupProvider(); bgp != nil {
		bgp.Release()
	}
	s.cameraReady = false

	s.objects = nil
	s.index = make(map[uint64]object.Object)
	s.pipelineOpts = make(map[uint64][]pipeline.PipelineBuilderOption)
	s.instanceCapacity = make(map[uint64]uint64)
}

// ensureCameraResources lazily creates the camera's uniform buffer and bind
// group on first frame. Caller must hold s.mu write lock.
func (s *scene) ensureCameraResources() error {
	if s.cameraReady {
		return nil
	}

	bgp := s.cam.BindGroupProvider()
	if bgp == nil {
		bgp = bind_group_provider.NewBindGroupProvider("camera")
		s.cam.SetBindGroupProvider(bgp)
	}

	uniform := s.cam.Uniform()
	if err := s.r.InitBindGroup(bgp, cameraBindGroupLayoutDescriptor(), nil, map[int]uint64{
		0: uint64(uniform.Size()),
	}); err != nil {
		return err
	}
	s.cameraReady = true
	return nil
}

// prepareObjects creates GPU resources for objects rendering their first
// frame: the render pipeline, vertex/index buffers, and the instance storage
// buffer. A failing object is marked failed and skipped on every later frame.
// Caller must hold s.mu write lock.
func (s *scene) prepareObjects() []error {
	var errs []error

	for _, o := range s.objects {
		if o.Failed() != nil || o.MeshProvider() != nil {
			continue
		}

		mesh := o.Mesh()
		if mesh == nil || mesh.Empty() {
			name := ""
			if mesh != nil {
				name = mesh.Name()
			}
			err := &object.EmptyMeshError{ID: o.ID(), Name: name}
			o.SetFailed(err)
			errs = append(errs, err)
			continue
		}

		source := o.ShaderSource()
		if source == "" {
			source = DefaultShaderSource
		}
		p, err := s.r.EnsurePipeline(source, mesh.Layout(), s.pipelineOpts[o.ID()]...)
		if err != nil {
			o.SetFailed(err)
			errs = append(errs, fmt.Errorf("object %d: %w", o.ID(), err))
			continue
		}
		o.SetPipelineKey(p.PipelineKey())

		meshProvider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("object_%d_mesh", o.ID()))
		if err := s.r.InitMeshBuffers(meshProvider, mesh.VertexData(), mesh.IndexData(), mesh.IndexCount()); err != nil {
			meshProvider.Release()
			o.SetFailed(err)
			errs = append(errs, fmt.Errorf("object %d: %w", o.ID(), err))
			continue
		}
		o.SetMeshProvider(meshProvider)

		// Size the storage buffer from the current serialized length; the
		// object is still dirty so the upload pass fills it this frame.
		data := o.InstanceData()
		instProvider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("object_%d_instances", o.ID()))
		if err := s.r.InitBindGroup(instProvider, instanceBindGroupLayoutDescriptor(), nil, map[int]uint64{
			0: uint64(len(data)),
		}); err != nil {
			instProvider.Release()
			o.SetFailed(err)
			errs = append(errs, fmt.Errorf("object %d: %w", o.ID(), err))
			continue
		}
		o.SetInstanceProvider(instProvider)
		s.instanceCapacity[o.ID()] = uint64(len(data))
	}

	return errs
}

// uploadFrameData writes the camera uniform and re-serializes instance data
// for every dirty object, coalescing all writes into a single queue
// submission. Serialization runs on the compute pool so large instance sets
// spread across cores. Caller must hold s.mu write lock.
func (s *scene) uploadFrameData() []error {
	var errs []error
	writes := s.writePool[:0]

	camUniform := s.cam.Uniform()
	writes = append(writes, bind_group_provider.BufferWrite{
		Provider: s.cam.BindGroupProvider(),
		Binding:  0,
		Data:     camUniform.Marshal(),
	})

	var dirty []object.Object
	for _, o := range s.objects {
		if o.Failed() != nil || o.InstanceProvider() == nil || !o.Dirty() {
			continue
		}
		dirty = append(dirty, o)
	}

	// Phase 1: serialize instance matrices in parallel.
	payloads := make([][]byte, len(dirty))
	var wg sync.WaitGroup
	for i, o := range dirty {
		wg.Add(1)
		s.computePool.SubmitTask(worker.Task{
			ID: int(o.ID()),
			Do: func() (any, error) {
				defer wg.Done()
				payloads[i] = o.InstanceData()
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: stage writes, rebuilding any storage buffer whose size changed.
	for i, o := range dirty {
		data := payloads[i]
		if uint64(len(data)) != s.instanceCapacity[o.ID()] {
			o.InstanceProvider().Release()
			o.SetInstanceProvider(nil)
			delete(s.instanceCapacity, o.ID())

			instProvider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("object_%d_instances", o.ID()))
			if err := s.r.InitBindGroup(instProvider, instanceBindGroupLayoutDescriptor(), nil, map[int]uint64{
				0: uint64(len(data)),
			}); err != nil {
				instProvider.Release()
				o.SetFailed(err)
				errs = append(errs, fmt.Errorf("object %d: %w", o.ID(), err))
				continue
			}
			o.SetInstanceProvider(instProvider)
			s.instanceCapacity[o.ID()] = uint64(len(data))
		}

		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: o.InstanceProvider(),
			Binding:  0,
			Data:     data,
		})
		o.ClearDirty()
	}

	s.r.WriteBuffers(writes)
	s.writePool = writes[:0]
	return errs
}

// drawObjects issues one instanced draw per live object in insertion order.
// Objects sharing a pipeline key draw back to back, so the renderer binds the
// pipeline once per contiguous run. Caller must hold s.mu write lock.
func (s *scene) drawObjects() []error {
	var errs []error

	for _, o := range s.objects {
		if o.Failed() != nil || o.MeshProvider() == nil {
			continue
		}

		groups := append(s.drawBindGroupsPool[:0], s.cam.BindGroupProvider(), o.InstanceProvider())
		if err := s.r.DrawCall(o.PipelineKey(), o.MeshProvider(), uint32(o.InstanceCount()), groups); err != nil {
			errs = append(errs, fmt.Errorf("object %d: %w", o.ID(), err))
		}
		s.drawBindGroupsPool = groups
	}

	return errs
}

// cameraBindGroupLayoutDescriptor describes group 0: the camera uniform,
// visible to both shader stages. Must stay structurally identical to the
// layout the backend compiles into every pipeline.
func cameraBindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	}
}

// instanceBindGroupLayoutDescriptor describes group 1: the per-instance model
// matrix array, read by instance_index in the vertex stage.
func instanceBindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Instance Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	}
}
