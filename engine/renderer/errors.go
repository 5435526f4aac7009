package renderer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSurfaceLost reports that the surface's swapchain became invalid (window
// resized behind our back, surface outdated, or the compositor dropped it).
// The condition is recoverable: reconfigure the surface and retry acquisition
// once. A second consecutive loss is treated as fatal by the frame loop.
var ErrSurfaceLost = errors.New("surface lost")

// ErrDeviceLost reports that the GPU device itself is gone. Not recoverable
// within a running scene.
var ErrDeviceLost = errors.New("device lost")

// classifySurfaceError maps a backend surface acquisition failure onto the
// renderer's error taxonomy, wrapping the original error for context.
func classifySurfaceError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "device"):
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	case strings.Contains(msg, "lost"), strings.Contains(msg, "outdated"), strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	default:
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}
}
