package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// NetworkDynamics mutates topology between ticks. Hooks are never called
// while routing applications are running.
type NetworkDynamics interface {
	// Reset prepares for a new algorithm run.
	Reset()
	BeforeTick(ctx *RuntimeContext, net *Network) error
	AfterTick(ctx *RuntimeContext, net *Network) error
	// OnAlgorithmEnd restores any topology the run changed.
	OnAlgorithmEnd(ctx *RuntimeContext, net *Network) error
}

// NoDynamics leaves the topology untouched.
type NoDynamics struct{}

func (NoDynamics) Reset() {}
func (NoDynamics) BeforeTick(*RuntimeContext, *Network) error { return nil }
func (NoDynamics) AfterTick(*RuntimeContext, *Network) error { return nil }
func (NoDynamics) OnAlgorithmEnd(*RuntimeContext, *Network) error { return nil }

// ScheduledLinkFailures removes a fixed set of links at DisconnectAt and,
// if ReconnectAt > 0, restores them at ReconnectAt.
//
// State per run: idle -> disconnected -> reconnected. Only links actually
// removed at disconnect are restored, so a configured link that was never in
// the topology stays absent. OnAlgorithmEnd restores them and returns to idle,
// so each algorithm starts from the same topology.
type ScheduledLinkFailures struct {
	Links        []Link
	DisconnectAt int64
	// ReconnectAt <= 0 means the links stay down until the run ends.
	ReconnectAt int64

	disconnected bool
	reconnected  bool
	removed      []Link
}

// NewScheduledLinkFailures validates and creates a ScheduledLinkFailures.
func NewScheduledLinkFailures(links []Link, disconnectAt, reconnectAt int64) (*ScheduledLinkFailures, error) {
	if len(links) == 0 {
		return nil, errors.New("scheduled-link-failures: at least one link is required")
	}
	for _, l := range links {
		if l.A == l.B {
			return nil, fmt.Errorf("scheduled-link-failures: self link %d-%d", l.A, l.B)
		}
	}
	if disconnectAt < 0 {
		return nil, fmt.Errorf("scheduled-link-failures: disconnect tick must be non-negative, got %d", disconnectAt)
	}
	if reconnectAt > 0 && reconnectAt <= disconnectAt {
		return nil, fmt.Errorf("scheduled-link-failures: reconnect tick %d must be after disconnect tick %d", reconnectAt, disconnectAt)
	}
	return &ScheduledLinkFailures{
		Links:        append([]Link(nil), links...),
		DisconnectAt: disconnectAt,
		ReconnectAt:  reconnectAt,
	}, nil
}

// Reset implements NetworkDynamics.
func (s *ScheduledLinkFailures) Reset() {
	s.disconnected = false
	s.reconnected = false
	s.removed = s.removed[:0]
}

// Disconnected reports whether the links are currently down by this schedule.
func (s *ScheduledLinkFailures) Disconnected() bool {
	return s.disconnected && !s.reconnected
}

// BeforeTick implements NetworkDynamics.
func (s *ScheduledLinkFailures) BeforeTick(ctx *RuntimeContext, net *Network) error {
	if !s.disconnected && ctx.Tick >= s.DisconnectAt {
		if err := s.disconnect(ctx, net); err != nil {
			return err
		}
		s.disconnected = true
	}
	if s.disconnected && !s.reconnected && s.ReconnectAt > 0 && ctx.Tick >= s.ReconnectAt {
		if err := s.restore(ctx, net); err != nil {
			return err
		}
		s.reconnected = true
	}
	return nil
}

// AfterTick implements NetworkDynamics.
func (s *ScheduledLinkFailures) AfterTick(*RuntimeContext, *Network) error {
	return nil
}

// OnAlgorithmEnd implements NetworkDynamics.
func (s *ScheduledLinkFailures) OnAlgorithmEnd(ctx *RuntimeContext, net *Network) error {
	if s.disconnected {
		if err := s.restore(ctx, net); err != nil {
			return err
		}
	}
	s.Reset()
	return nil
}

func (s *ScheduledLinkFailures) disconnect(ctx *RuntimeContext, net *Network) error {
	for _, l := range s.Links {
		removed, err := net.Disconnect(l.A, l.B)
		if err != nil {
			return fmt.Errorf("disconnect link at tick %d: %w", ctx.Tick, err)
		}
		if removed > 0 {
			s.removed = append(s.removed, l)
		}
		if removed == 0 {
			logrus.Warnf("[tick %07d] link %d-%d not present, nothing to disconnect", ctx.Tick, l.A, l.B)
		} else if removed < 2 {
			logrus.Warnf("[tick %07d] link %d-%d was already partially missing (%d of 2 entries removed)", ctx.Tick, l.A, l.B, removed)
		}
	}
	logrus.Infof("[tick %07d] %s: disconnected %d links", ctx.Tick, ctx.Algorithm, len(s.removed))
	return nil
}

func (s *ScheduledLinkFailures) restore(ctx *RuntimeContext, net *Network) error {
	for _, l := range s.removed {
		added, err := net.Connect(l.A, l.B)
		if err != nil {
			return fmt.Errorf("restore link at tick %d: %w", ctx.Tick, err)
		}
		if added < 2 {
			logrus.Debugf("[tick %07d] link %d-%d already present (%d of 2 entries added)", ctx.Tick, l.A, l.B, added)
		}
	}
	logrus.Infof("[tick %07d] %s: restored %d links", ctx.Tick, ctx.Algorithm, len(s.removed))
	return nil
}
