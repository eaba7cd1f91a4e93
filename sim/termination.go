package sim

import (
	"errors"
	"fmt"
)

// TerminationPolicy decides when an algorithm run ends. It is consulted before
// every tick, including the first.
type TerminationPolicy interface {
	ShouldStop(ctx *RuntimeContext) bool
}

// FixedTicks stops once Ticks ticks have executed.
type FixedTicks struct {
	Ticks int64
}

// NewFixedTicks creates a FixedTicks policy. ticks must be positive.
func NewFixedTicks(ticks int64) (*FixedTicks, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("fixed-ticks: ticks must be positive, got %d", ticks)
	}
	return &FixedTicks{Ticks: ticks}, nil
}

// ShouldStop implements TerminationPolicy for FixedTicks.
func (f *FixedTicks) ShouldStop(ctx *RuntimeContext) bool {
	return ctx.Tick >= f.Ticks
}

// TotalPacketsDelivered stops once Count packets have been delivered.
type TotalPacketsDelivered struct {
	Count int
}

// NewTotalPacketsDelivered creates a TotalPacketsDelivered policy. count must be positive.
func NewTotalPacketsDelivered(count int) (*TotalPacketsDelivered, error) {
	if count <= 0 {
		return nil, fmt.Errorf("total-packets-delivered: count must be positive, got %d", count)
	}
	return &TotalPacketsDelivered{Count: count}, nil
}

// ShouldStop implements TerminationPolicy for TotalPacketsDelivered.
func (t *TotalPacketsDelivered) ShouldStop(ctx *RuntimeContext) bool {
	return ctx.DeliveredCount() >= t.Count
}

// CompositeMode combines child decisions.
type CompositeMode string

const (
	CompositeAnd CompositeMode = "and"
	CompositeOr  CompositeMode = "or"
)

// ErrNestedComposite is returned when a Composite is given a Composite child.
var ErrNestedComposite = errors.New("composite termination policies cannot be nested")

// Composite stops when all (And) or any (Or) of its children stop.
type Composite struct {
	Mode     CompositeMode
	Children []TerminationPolicy
}

// NewComposite creates a Composite. children must be non-empty and must not
// contain another Composite.
func NewComposite(mode CompositeMode, children ...TerminationPolicy) (*Composite, error) {
	if mode != CompositeAnd && mode != CompositeOr {
		return nil, fmt.Errorf("composite: unknown mode %q", mode)
	}
	if len(children) == 0 {
		return nil, errors.New("composite: at least one child policy is required")
	}
	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("composite: child %d is nil", i)
		}
		if _, nested := child.(*Composite); nested {
			return nil, fmt.Errorf("composite: child %d: %w", i, ErrNestedComposite)
		}
	}
	return &Composite{Mode: mode, Children: children}, nil
}

// ShouldStop implements TerminationPolicy for Composite.
func (c *Composite) ShouldStop(ctx *RuntimeContext) bool {
	if c.Mode == CompositeAnd {
		for _, child := range c.Children {
			if !child.ShouldStop(ctx) {
				return false
			}
		}
		return true
	}
	for _, child := range c.Children {
		if child.ShouldStop(ctx) {
			return true
		}
	}
	return false
}
