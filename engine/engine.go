package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lensengine/lens/engine/frameloop"
	"github.com/lensengine/lens/engine/profiler"
	"github.com/lensengine/lens/engine/renderer"
	"github.com/lensengine/lens/engine/scene"
	"github.com/lensengine/lens/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	// machine sequences the frame lifecycle for the render goroutine. Resize
	// requests arrive from the window thread, so access goes through machineMu.
	machine   frameloop.Machine
	machineMu sync.Mutex

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	// frameErrorCallback receives the per-object errors collected by the scene
	// each frame. Nil means failures are logged.
	frameErrorCallback func(errs []error)

	scn scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point. It owns the window, drives the scene's
// render loop through an explicit frame state machine, and runs a fixed-rate
// tick loop for game logic.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the attached scene, or nil if none is set.
	//
	// Returns:
	//   - scene.Scene: the attached scene
	Scene() scene.Scene

	// SetScene attaches the scene rendered each frame. Must be set before Run.
	//
	// Parameters:
	//   - s: the scene to render
	SetScene(s scene.Scene)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, input processing, and transform updates.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetFrameErrorCallback registers the function that receives per-object
	// errors collected during a frame. When no callback is set, errors are
	// logged. A frame with failing objects still presents; failures never
	// abort the frame.
	//
	// Parameters:
	//   - callback: function receiving the frame's collected errors
	SetFrameErrorCallback(callback func(errs []error))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render loops and blocks pumping window messages
	// until the window closes or Quit is called. On return the GPU has gone
	// idle and every renderer resource has been released.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (window, scene, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		machine:          frameloop.NewMachine(),
		running:          false,
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		// Resize arrives on the window thread; the machine defers it until no
		// frame is in flight, then the render goroutine applies it.
		e.window.SetResizeCallback(func(width, height int) {
			e.machineMu.Lock()
			e.machine.RequestResize(width, height)
			e.machineMu.Unlock()
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scn
}

func (e *engine) SetScene(s scene.Scene) {
	e.scn = s
}

func (e *engine) Run() {
	e.running = true
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()

	e.window.ProcessMessages()

	// Window closed: stop the loops, then tear down GPU state. The render
	// goroutine owns the renderer, so release happens after it exits.
	e.signalQuit()
	e.wg.Wait()
	if e.scn != nil {
		if r := e.scn.Renderer(); r != nil {
			r.WaitIdle()
			e.scn.Release()
			r.Release()
		}
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
		if e.window != nil {
			e.window.Close()
		}
	})
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop in its own goroutine. Each iteration is
// sequenced through the frame state machine: acquire, render, present, with
// resizes applied between frames and a single reconfigure-and-retry on
// surface loss. Recovers from panics to avoid crashing the process and
// signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			e.applyEvent(frameloop.EventShutdownRequested)
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if e.scn == nil {
			time.Sleep(e.engineTickRate)
			continue
		}
		r := e.scn.Renderer()
		if r == nil {
			time.Sleep(e.engineTickRate)
			continue
		}

		e.applyPendingResize(r)

		if !e.renderOneFrame(r) {
			e.signalQuit()
			return
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick()
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			elapsed := time.Since(lastRender)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderOneFrame drives a single frame through the state machine. Returns
// false when the loop must stop: the surface is gone for good or the machine
// has shut down.
func (e *engine) renderOneFrame(r renderer.Renderer) bool {
	if e.state() == frameloop.StateShuttingDown {
		return false
	}
	if _, err := e.applyEvent(frameloop.EventFrameRequested); err != nil {
		// Not idle (mid-resize or shutting down); try again next iteration.
		return e.state() != frameloop.StateShuttingDown
	}

	if !e.acquireSurface(r) {
		return false
	}

	frameErrs := e.scn.RenderFrame()
	if len(frameErrs) > 0 {
		e.reportFrameErrors(frameErrs)
		if frameAborted(frameErrs) {
			// Nothing was drawn; the recorded frame must never reach the
			// surface.
			r.DiscardFrame()
			_, applyErr := e.applyEvent(frameloop.EventRenderFailed)
			return applyErr == nil
		}
	}

	if _, err := e.applyEvent(frameloop.EventRenderSucceeded); err != nil {
		r.DiscardFrame()
		return false
	}

	r.EndFrame()
	r.Present()
	_, err := e.applyEvent(frameloop.EventFramePresented)
	return err == nil
}

// acquireSurface obtains the swapchain texture for the next frame. On a lost
// surface it reconfigures once at the current window size and retries; a
// second consecutive loss, or any other acquisition failure, is fatal.
func (e *engine) acquireSurface(r renderer.Renderer) bool {
	for {
		err := r.BeginFrame()
		if err == nil {
			_, applyErr := e.applyEvent(frameloop.EventAcquireSucceeded)
			return applyErr == nil
		}

		if errors.Is(err, renderer.ErrSurfaceLost) {
			if _, applyErr := e.applyEvent(frameloop.EventSurfaceLost); applyErr != nil {
				log.Printf("surface lost: %v", applyErr)
				return false
			}
			log.Printf("surface lost, reconfiguring: %v", err)
			r.Resize(e.window.Width(), e.window.Height())
			continue
		}

		log.Printf("frame acquisition failed: %v", err)
		e.applyEvent(frameloop.EventAcquireFailed)
		return false
	}
}

// applyPendingResize reconfigures the surface and camera when the machine has
// entered StateResizing between frames.
func (e *engine) applyPendingResize(r renderer.Renderer) {
	e.machineMu.Lock()
	defer e.machineMu.Unlock()

	if e.machine.State() != frameloop.StateResizing {
		return
	}
	if width, height, ok := e.machine.PendingResize(); ok {
		r.Resize(width, height)
		if c := e.scn.Camera(); c != nil && height > 0 {
			c.SetAspect(float32(width) / float32(height))
		}
	}
	_, _ = e.machine.Apply(frameloop.EventResizeCompleted)
}

// frameAborted reports whether any of the frame's errors is frame-level, i.e.
// the scene drew nothing for the frame.
func frameAborted(errs []error) bool {
	for _, err := range errs {
		if errors.Is(err, scene.ErrFrameAborted) {
			return true
		}
	}
	return false
}

func (e *engine) reportFrameErrors(errs []error) {
	if e.frameErrorCallback != nil {
		e.frameErrorCallback(errs)
		return
	}
	for _, err := range errs {
		log.Printf("frame error: %v", err)
	}
}

func (e *engine) applyEvent(event frameloop.Event) (frameloop.State, error) {
	e.machineMu.Lock()
	defer e.machineMu.Unlock()
	return e.machine.Apply(event)
}

func (e *engine) state() frameloop.State {
	e.machineMu.Lock()
	defer e.machineMu.Unlock()
	return e.machine.State()
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send; if the channel holds a pending update, replace it.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called after each rendered frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetFrameErrorCallback registers the function receiving per-frame object errors.
func (e *engine) SetFrameErrorCallback(callback func(errs []error)) {
	e.frameErrorCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}
