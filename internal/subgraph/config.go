package subgraph

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by errors about malformed configurations.
var ErrInvalidConfig = errors.New("invalid sub-graph config")

// Config bounds what counts as a valid sub-graph. Zero limits mean unlimited.
type Config struct {
	MaxDepth  int  `json:"max_depth" yaml:"max_depth"`
	MaxExits  int  `json:"max_exits" yaml:"max_exits"`
	AllowTaps bool `json:"allow_taps" yaml:"allow_taps"`
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.MaxExits < 0 {
		return fmt.Errorf("%w: max_exits %d", ErrInvalidConfig, c.MaxExits)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("{max_depth=%d, max_exits=%d, allow_taps=%t}", c.MaxDepth, c.MaxExits, c.AllowTaps)
}

// Checker is the validity service. It is stateless and does not cache.
type Checker struct{}

// NewChecker returns a Checker.
func NewChecker() *Checker { return &Checker{} }

// IsValid reports whether sg satisfies cfg. A malformed cfg is an error.
func (*Checker) IsValid(sg *SubGraph, cfg Config) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	return IsValid(sg, cfg), nil
}

// IsValid reports whether sg is non-empty, convex and within cfg's limits.
// cfg is assumed well formed.
func IsValid(sg *SubGraph, cfg Config) bool {
	switch {
	case sg == nil || sg.Len() == 0:
		return false
	case !sg.convex:
		return false
	case cfg.MaxDepth > 0 && sg.depth > cfg.MaxDepth:
		return false
	case cfg.MaxExits > 0 && sg.exits.Len() > cfg.MaxExits:
		return false
	case !cfg.AllowTaps && !sg.taps.IsEmpty():
		return false
	}
	return true
}
