package object

import (
	"encoding/binary"
	"math"

	"github.com/lensengine/lens/engine/asset"
	"github.com/lensengine/lens/engine/renderer/bind_group_provider"
)

// object is the implementation of the Object interface.
type object struct {
	id           uint64
	mesh         asset.Object
	shaderSource string
	transform    Transform
	instances    *InstanceSet

	// dirty marks transform/instance data changed since the last GPU upload.
	dirty bool
	// failed records a permanent per-object failure (empty mesh, shader
	// compile error). A failed object is skipped on every subsequent frame.
	failed error

	// GPU state, created lazily by the scene on first render.
	meshProvider     bind_group_provider.BindGroupProvider
	instanceProvider bind_group_provider.BindGroupProvider
	pipelineKey      string
}

// Object is a renderable scene entity: an immutable mesh paired with a WGSL
// shader source, a base transform, and an optional InstanceSet. The zero GPU
// state is valid; buffers and pipelines are created lazily by the scene on the
// object's first frame. Objects are confined to the goroutine that owns their
// scene; no internal synchronization is performed.
type Object interface {
	// ID returns the object's unique identifier, assigned by the scene.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Mesh returns the immutable mesh for this object.
	//
	// Returns:
	//   - asset.Object: the mesh
	Mesh() asset.Object

	// ShaderSource returns the WGSL source this object renders with.
	//
	// Returns:
	//   - string: the shader source text
	ShaderSource() string

	// Transform returns the base transform.
	//
	// Returns:
	//   - Transform: the base transform
	Transform() Transform

	// Instances returns the instance set, or nil when the object renders a
	// single instance from its base transform.
	//
	// Returns:
	//   - *InstanceSet: the instance set or nil
	Instances() *InstanceSet

	// InstanceCount returns the number of draw instances: the set length, or
	// 1 when the set is nil or empty.
	//
	// Returns:
	//   - int: the draw instance count
	InstanceCount() int

	// InstanceData serializes the world matrices uploaded for this object:
	// the marshaled instance set when non-empty, otherwise the base
	// transform's matrix as a single 64-byte entry.
	//
	// Returns:
	//   - []byte: the serialized matrix data
	InstanceData() []byte

	// Dirty reports whether transform or instance data changed since the last
	// upload.
	//
	// Returns:
	//   - bool: true when a re-upload is needed
	Dirty() bool

	// ClearDirty marks the object's GPU data as up to date. Called by the
	// scene after uploading.
	ClearDirty()

	// Failed returns the permanent error recorded for this object, or nil.
	//
	// Returns:
	//   - error: the recorded failure or nil
	Failed() error

	// PipelineKey returns the content key of the pipeline this object renders
	// with, or the empty string before first render.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// MeshProvider returns the provider holding vertex/index buffers, or nil
	// before first render.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider or nil
	MeshProvider() bind_group_provider.BindGroupProvider

	// InstanceProvider returns the provider holding the instance matrix
	// storage buffer, or nil before first render.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the instance provider or nil
	InstanceProvider() bind_group_provider.BindGroupProvider

	// SetID assigns the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetTransform replaces the base transform and marks the object dirty.
	//
	// Parameters:
	//   - t: the new base transform
	SetTransform(t Transform)

	// SetPosition updates the base transform's position and marks the object dirty.
	//
	// Parameters:
	//   - x, y, z: the new world position
	SetPosition(x, y, z float32)

	// SetOverride sets or clears the base transform's override matrix and
	// marks the object dirty.
	//
	// Parameters:
	//   - m: the override world matrix, or nil to clear
	SetOverride(m *[16]float32)

	// SetInstances replaces the instance set and marks the object dirty.
	//
	// Parameters:
	//   - set: the new instance set, or nil for single-instance rendering
	SetInstances(set *InstanceSet)

	// SetFailed records a permanent failure for this object.
	//
	// Parameters:
	//   - err: the failure to record
	SetFailed(err error)

	// SetPipelineKey records the pipeline content key after first render.
	//
	// Parameters:
	//   - key: the pipeline key
	SetPipelineKey(key string)

	// SetMeshProvider attaches the provider holding vertex/index buffers.
	//
	// Parameters:
	//   - p: the mesh provider
	SetMeshProvider(p bind_group_provider.BindGroupProvider)

	// SetInstanceProvider attaches the provider holding the instance storage buffer.
	//
	// Parameters:
	//   - p: the instance provider
	SetInstanceProvider(p bind_group_provider.BindGroupProvider)

	// Release frees any GPU resources held by this object's providers.
	Release()
}

var _ Object = &object{}

// NewObject creates a renderable object with the specified options applied.
// No GPU work happens here; construction is valid without a device.
//
// Parameters:
//   - options: a variadic list of ObjectBuilderOption functions to configure the Object
//
// Returns:
//   - Object: a new instance of Object configured with the provided options
func NewObject(options ...ObjectBuilderOption) Object {
	o := &object{
		transform: NewTransform(),
		dirty:     true,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *object) ID() uint64 {
	return o.id
}

func (o *object) SetID(id uint64) {
	o.id = id
}

func (o *object) Mesh() asset.Object {
	return o.mesh
}

func (o *object) ShaderSource() string {
	return o.shaderSource
}

func (o *object) Transform() Transform {
	return o.transform
}

func (o *object) SetTransform(t Transform) {
	o.transform = t
	o.dirty = true
}

func (o *object) SetPosition(x, y, z float32) {
	o.transform.Position = [3]float32{x, y, z}
	o.dirty = true
}

func (o *object) SetOverride(m *[16]float32) {
	o.transform.Override = m
	o.dirty = true
}

func (o *object) Instances() *InstanceSet {
	return o.instances
}

func (o *object) SetInstances(set *InstanceSet) {
	o.instances = set
	o.dirty = true
}

func (o *object) InstanceCount() int {
	if n := o.instances.Len(); n > 0 {
		return n
	}
	return 1
}

func (o *object) InstanceData() []byte {
	if o.instances.Len() > 0 {
		return o.instances.Marshal()
	}
	m := o.transform.Matrix()
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(m[i]))
	}
	return buf
}

func (o *object) Dirty() bool {
	return o.dirty
}

func (o *object) ClearDirty() {
	o.dirty = false
}

func (o *object) Failed() error {
	return o.failed
}

func (o *object) SetFailed(err error) {
	o.failed = err
}

func (o *object) PipelineKey() string {
	return o.pipelineKey
}

func (o *object) SetPipelineKey(key string) {
	o.pipelineKey = key
}

func (o *object) MeshProvider() bind_group_provider.BindGroupProvider {
	return o.meshProvider
}

func (o *object) SetMeshProvider(p bind_group_provider.BindGroupProvider) {
	o.meshProvider = p
}

func (o *object) InstanceProvider() bind_group_provider.BindGroupProvider {
	return o.instanceProvider
}

func (o *object) SetInstanceProvider(p bind_group_provider.BindGroupProvider) {
	o.instanceProvider = p
}

func (o *object) Release() {
	if o.meshProvider != nil {
		o.meshProvider.Release()
		o.meshProvider = nil
	}
	if o.instanceProvider != nil {
		o.instanceProvider.Release()
		o.instanceProvider = nil
	}
}
