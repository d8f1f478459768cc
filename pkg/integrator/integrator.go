package integrator

import (
	"errors"
	"fmt"

	"github.com/df07/go-scene-tracer/pkg/plugin"
)

// ErrInvalidConfig reports integrator parameters outside their valid range
var ErrInvalidConfig = errors.New("integrator: invalid configuration")

func init() {
	plugin.Register("path", func(props *plugin.Properties) (any, error) {
		cfg := DefaultConfig()
		var err error
		if cfg.MaxDepth, err = props.Int("max_depth", cfg.MaxDepth); err != nil {
			return nil, err
		}
		if cfg.RRDepth, err = props.Int("rr_depth", cfg.RRDepth); err != nil {
			return nil, err
		}
		if cfg.TileSize, err = props.Int("tile_size", cfg.TileSize); err != nil {
			return nil, err
		}
		if cfg.Workers, err = props.Int("workers", cfg.Workers); err != nil {
			return nil, err
		}
		p, err := NewPath(cfg)
		if err != nil {
			return nil, err
		}
		p.id = props.ID()
		return p, nil
	})
}

// Config contains path tracing configuration
type Config struct {
	MaxDepth int // Longest path in vertices; -1 means unbounded
	RRDepth  int // Depth at which Russian roulette starts
	TileSize int // Edge length of the square tiles handed to workers
	Workers  int // Number of render goroutines; 0 uses every CPU
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		MaxDepth: -1,
		RRDepth:  5,
		TileSize: 32,
		Workers:  0,
	}
}

func (c Config) validate() error {
	switch {
	case c.MaxDepth < -1 || c.MaxDepth == 0:
		return fmt.Errorf("%w: max_depth %d", ErrInvalidConfig, c.MaxDepth)
	case c.RRDepth <= 0:
		return fmt.Errorf("%w: rr_depth %d", ErrInvalidConfig, c.RRDepth)
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile_size %d", ErrInvalidConfig, c.TileSize)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
