package scene

import (
	"fmt"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// ParametersChanged incorporates edits made to scene objects since the last
// call. The environment is re-notified of the scene, dirty surfaces are
// refreshed in the acceleration structure and their flags cleared, and the
// gradient-tracking flag is recomputed. keys names the changed parameters and
// is informational.
func (s *Scene) ParametersChanged(keys []string) error {
	if s.closed {
		return ErrClosed
	}

	if s.environment != nil {
		s.environment.SetScene(s)
	}

	var dirty []int
	for i, shape := range s.shapes {
		if d, ok := shape.(Dirtier); ok && d.Dirty() {
			dirty = append(dirty, i)
		}
	}

	if len(dirty) > 0 {
		if err := s.backend.Refresh(dirty); err != nil {
			return fmt.Errorf("scene: refreshing %d surfaces: %w", len(dirty), err)
		}
		for _, i := range dirty {
			s.shapes[i].(Dirtier).ClearDirty()
		}
		core.Logger().Debug("scene: parameters changed", "keys", keys, "dirty", len(dirty))
	}

	s.gradEnabled = false
	for _, shape := range s.shapes {
		if g, ok := shape.(GradientTracker); ok && g.ParametersGradEnabled() {
			s.gradEnabled = true
			break
		}
	}
	return nil
}
