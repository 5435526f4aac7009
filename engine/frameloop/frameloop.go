// Package frameloop implements the per-frame state machine that sequences
// surface acquisition, rendering, presentation, resizing, and shutdown.
//
// The machine is pure data: it never touches the GPU. The engine feeds it
// events and enacts the resulting state (acquire the surface in StateAcquiring,
// discard the frame when a render error sends it back to StateIdle, and so on).
// All methods must be called from the single goroutine driving the frame loop.
package frameloop

import (
	"errors"
	"fmt"
)

// State is a phase of the frame loop.
type State int

const (
	// StateIdle means no frame is in flight. Frame requests, resize requests,
	// and shutdown are accepted here.
	StateIdle State = iota

	// StateAcquiring means the engine is obtaining the next swapchain texture.
	StateAcquiring

	// StateRendering means the render pass for the current frame is being encoded.
	StateRendering

	// StatePresenting means the frame has been submitted and awaits presentation.
	StatePresenting

	// StateResizing means a surface reconfiguration is being applied.
	// Entered only from StateIdle; resize requests that arrive mid-frame are
	// deferred until the in-flight frame presents or is discarded.
	StateResizing

	// StateShuttingDown is terminal. Every further event is absorbed without
	// effect and no new frame ever starts.
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAcquiring:
		return "Acquiring"
	case StateRendering:
		return "Rendering"
	case StatePresenting:
		return "Presenting"
	case StateResizing:
		return "Resizing"
	case StateShuttingDown:
		return "ShuttingDown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is an input to the frame loop machine.
type Event int

const (
	// EventFrameRequested starts a new frame (Idle → Acquiring).
	EventFrameRequested Event = iota

	// EventAcquireSucceeded reports a successful surface acquisition (Acquiring → Rendering).
	EventAcquireSucceeded

	// EventSurfaceLost reports a recoverable acquisition failure. The machine stays
	// in Acquiring exactly once so the engine can reconfigure the surface and retry;
	// a second consecutive loss is fatal and transitions to ShuttingDown.
	EventSurfaceLost

	// EventAcquireFailed reports an unrecoverable acquisition failure such as a
	// lost device (Acquiring → ShuttingDown).
	EventAcquireFailed

	// EventRenderSucceeded reports that the render pass encoded cleanly (Rendering → Presenting).
	EventRenderSucceeded

	// EventRenderFailed reports a render-pass failure. The frame must be discarded,
	// never presented (Rendering → Idle, or Resizing when a resize is pending).
	EventRenderFailed

	// EventFramePresented reports that the frame reached the display
	// (Presenting → Idle, or Resizing when a resize is pending).
	EventFramePresented

	// EventResizeCompleted reports that the surface reconfiguration finished (Resizing → Idle).
	EventResizeCompleted

	// EventShutdownRequested transitions to ShuttingDown from any state.
	EventShutdownRequested
)

func (e Event) String() string {
	switch e {
	case EventFrameRequested:
		return "FrameRequested"
	case EventAcquireSucceeded:
		return "AcquireSucceeded"
	case EventSurfaceLost:
		return "SurfaceLost"
	case EventAcquireFailed:
		return "AcquireFailed"
	case EventRenderSucceeded:
		return "RenderSucceeded"
	case EventRenderFailed:
		return "RenderFailed"
	case EventFramePresented:
		return "FramePresented"
	case EventResizeCompleted:
		return "ResizeCompleted"
	case EventShutdownRequested:
		return "ShutdownRequested"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// ErrSurfaceUnrecoverable is returned by Apply when surface acquisition fails
// again immediately after a reconfigure-and-retry. The machine is in
// StateShuttingDown when this is returned.
var ErrSurfaceUnrecoverable = errors.New("surface lost after reconfigure retry")

// Machine sequences the frame loop states.
type Machine interface {
	// State returns the current state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Apply feeds one event into the machine and performs the transition.
	//
	// Parameters:
	//   - event: the event to apply
	//
	// Returns:
	//   - State: the state after the transition
	//   - error: ErrSurfaceUnrecoverable on a second consecutive surface loss,
	//     or an error if the event is not valid in the current state
	Apply(event Event) (State, error)

	// RequestResize records a resize to the given dimensions. In StateIdle the
	// machine moves to StateResizing immediately; mid-frame the resize is
	// deferred and applied once the frame presents or is discarded. Repeated
	// requests coalesce to the most recent dimensions. Ignored after shutdown.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	RequestResize(width, height int)

	// PendingResize returns the dimensions of the resize being applied or deferred.
	//
	// Returns:
	//   - width, height: the recorded dimensions
	//   - ok: true if a resize is pending
	PendingResize() (width, height int, ok bool)
}

type machine struct {
	state State

	// retriedAcquire is set after the first SurfaceLost so the next one is fatal.
	retriedAcquire bool

	resizePending bool
	resizeWidth   int
	resizeHeight  int
}

var _ Machine = &machine{}

// NewMachine creates a frame loop machine in StateIdle.
//
// Returns:
//   - Machine: the new machine
func NewMachine() Machine {
	return &machine{state: StateIdle}
}

func (m *machine) State() State {
	return m.state
}

func (m *machine) RequestResize(width, height int) {
	if m.state == StateShuttingDown {
		return
	}
	m.resizeWidth = width
	m.resizeHeight = height
	m.resizePending = true
	if m.state == StateIdle {
		m.state = StateResizing
	}
}

func (m *machine) PendingResize() (int, int, bool) {
	if !m.resizePending {
		return 0, 0, false
	}
	return m.resizeWidth, m.resizeHeight, true
}

func (m *machine) Apply(event Event) (State, error) {
	// Terminal state absorbs everything.
	if m.state == StateShuttingDown {
		return m.state, nil
	}

	if event == EventShutdownRequested {
		m.state = StateShuttingDown
		return m.state, nil
	}

	switch m.state {
	case StateIdle:
		if event == EventFrameRequested {
			m.state = StateAcquiring
			return m.state, nil
		}

	case StateAcquiring:
		switch event {
		case EventAcquireSucceeded:
			m.retriedAcquire = false
			m.state = StateRendering
			return m.state, nil
		case EventSurfaceLost:
			if m.retriedAcquire {
				m.state = StateShuttingDown
				return m.state, ErrSurfaceUnrecoverable
			}
			// Stay in Acquiring: the engine reconfigures the surface and retries once.
			m.retriedAcquire = true
			return m.state, nil
		case EventAcquireFailed:
			m.state = StateShuttingDown
			return m.state, nil
		}

	case StateRendering:
		switch event {
		case EventRenderSucceeded:
			m.state = StatePresenting
			return m.state, nil
		case EventRenderFailed:
			// Frame discarded, never presented.
			m.state = m.idleOrResizing()
			return m.state, nil
		}

	case StatePresenting:
		if event == EventFramePresented {
			m.state = m.idleOrResizing()
			return m.state, nil
		}

	case StateResizing:
		if event == EventResizeCompleted {
			m.resizePending = false
			m.state = StateIdle
			return m.state, nil
		}
	}

	return m.state, fmt.Errorf("event %s not valid in state %s", event, m.state)
}

// idleOrResizing returns the state to enter when a frame finishes: a deferred
// resize takes priority over going idle.
func (m *machine) idleOrResizing() State {
	if m.resizePending {
		return StateResizing
	}
	return StateIdle
}
