package frameloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apply feeds an event and asserts it was valid.
func apply(t *testing.T, m Machine, e Event) State {
	t.Helper()
	s, err := m.Apply(e)
	require.NoError(t, err)
	return s
}

func TestHappyPathFrameCycle(t *testing.T) {
	m := NewMachine()
	require.Equal(t, StateIdle, m.State())

	assert.Equal(t, StateAcquiring, apply(t, m, EventFrameRequested))
	assert.Equal(t, StateRendering, apply(t, m, EventAcquireSucceeded))
	assert.Equal(t, StatePresenting, apply(t, m, EventRenderSucceeded))
	assert.Equal(t, StateIdle, apply(t, m, EventFramePresented))

	// The machine supports back-to-back frames.
	assert.Equal(t, StateAcquiring, apply(t, m, EventFrameRequested))
}

func TestSurfaceLostRetriesOnce(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)

	// First loss: stay in Acquiring so the engine can reconfigure and retry.
	assert.Equal(t, StateAcquiring, apply(t, m, EventSurfaceLost))

	// Retry succeeds; the frame proceeds normally.
	assert.Equal(t, StateRendering, apply(t, m, EventAcquireSucceeded))
}

func TestSecondConsecutiveSurfaceLostIsFatal(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)
	apply(t, m, EventSurfaceLost)

	s, err := m.Apply(EventSurfaceLost)
	assert.Equal(t, StateShuttingDown, s)
	assert.ErrorIs(t, err, ErrSurfaceUnrecoverable)
}

func TestSurfaceLostRetryResetsAfterSuccess(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)
	apply(t, m, EventSurfaceLost)
	apply(t, m, EventAcquireSucceeded)
	apply(t, m, EventRenderSucceeded)
	apply(t, m, EventFramePresented)

	// A loss on a later frame gets its own retry.
	apply(t, m, EventFrameRequested)
	assert.Equal(t, StateAcquiring, apply(t, m, EventSurfaceLost))
}

func TestAcquireFailedShutsDown(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)

	assert.Equal(t, StateShuttingDown, apply(t, m, EventAcquireFailed))
}

func TestRenderFailureDiscardsFrame(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)
	apply(t, m, EventAcquireSucceeded)

	// The failed frame goes straight back to Idle, skipping Presenting.
	assert.Equal(t, StateIdle, apply(t, m, EventRenderFailed))
}

func TestResizeFromIdle(t *testing.T) {
	m := NewMachine()

	m.RequestResize(800, 600)
	assert.Equal(t, StateResizing, m.State())

	w, h, ok := m.PendingResize()
	require.True(t, ok)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	assert.Equal(t, StateIdle, apply(t, m, EventResizeCompleted))
	_, _, ok = m.PendingResize()
	assert.False(t, ok)
}

func TestResizeDeferredUntilFramePresents(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)
	apply(t, m, EventAcquireSucceeded)

	// Mid-frame resize does not interrupt the frame.
	m.RequestResize(1024, 768)
	assert.Equal(t, StateRendering, m.State())

	apply(t, m, EventRenderSucceeded)
	assert.Equal(t, StateResizing, apply(t, m, EventFramePresented))

	w, h, ok := m.PendingResize()
	require.True(t, ok)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
}

func TestResizeDeferredAppliesAfterDiscard(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)
	apply(t, m, EventAcquireSucceeded)

	m.RequestResize(640, 480)
	assert.Equal(t, StateResizing, apply(t, m, EventRenderFailed))
}

func TestResizeRequestsCoalesce(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventFrameRequested)

	m.RequestResize(100, 100)
	m.RequestResize(200, 150)

	w, h, ok := m.PendingResize()
	require.True(t, ok)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestShutdownIsAbsorbing(t *testing.T) {
	m := NewMachine()
	apply(t, m, EventShutdownRequested)
	require.Equal(t, StateShuttingDown, m.State())

	// Every event after shutdown is accepted and ignored.
	for _, e := range []Event{
		EventFrameRequested, EventAcquireSucceeded, EventSurfaceLost,
		EventAcquireFailed, EventRenderSucceeded, EventRenderFailed,
		EventFramePresented, EventResizeCompleted, EventShutdownRequested,
	} {
		s, err := m.Apply(e)
		assert.NoError(t, err)
		assert.Equal(t, StateShuttingDown, s)
	}

	m.RequestResize(10, 10)
	_, _, ok := m.PendingResize()
	assert.False(t, ok)
}

func TestShutdownFromAnyState(t *testing.T) {
	reach := map[State][]Event{
		StateIdle:       {},
		StateAcquiring:  {EventFrameRequested},
		StateRendering:  {EventFrameRequested, EventAcquireSucceeded},
		StatePresenting: {EventFrameRequested, EventAcquireSucceeded, EventRenderSucceeded},
	}
	for state, events := range reach {
		m := NewMachine()
		for _, e := range events {
			apply(t, m, e)
		}
		require.Equal(t, state, m.State())
		assert.Equal(t, StateShuttingDown, apply(t, m, EventShutdownRequested))
	}
}

func TestInvalidEventsRejected(t *testing.T) {
	m := NewMachine()

	// Presenting events are meaningless while idle.
	_, err := m.Apply(EventFramePresented)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid in state Idle")

	// A frame cannot start while one is already in flight.
	apply(t, m, EventFrameRequested)
	_, err = m.Apply(EventFrameRequested)
	assert.Error(t, err)
}

func TestStateAndEventStrings(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.String())
	assert.Equal(t, "ShuttingDown", StateShuttingDown.String())
	assert.Equal(t, "SurfaceLost", EventSurfaceLost.String())
	assert.Equal(t, "FrameRequested", EventFrameRequested.String())
}
