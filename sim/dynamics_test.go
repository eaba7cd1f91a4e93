package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduledLinkFailures_Validation(t *testing.T) {
	link := []Link{{A: 0, B: 1}}
	tests := []struct {
		name         string
		links        []Link
		disconnectAt int64
		reconnectAt  int64
		wantErr      bool
	}{
		{"valid with reconnect", link, 2, 5, false},
		{"valid without reconnect", link, 0, 0, false},
		{"no links", nil, 2, 5, true},
		{"self link", []Link{{A: 3, B: 3}}, 2, 5, true},
		{"negative disconnect", link, -1, 0, true},
		{"reconnect before disconnect", link, 5, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduledLinkFailures(tt.links, tt.disconnectAt, tt.reconnectAt)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduledLinkFailures_StateMachine(t *testing.T) {
	// GIVEN link 1-2 scheduled down at tick 2 and up at tick 4
	net := chain(t, 3)
	s, err := NewScheduledLinkFailures([]Link{{A: 1, B: 2}}, 2, 4)
	require.NoError(t, err)
	ctx := newTestContext(1, AlgorithmQRouting, nil)

	present := make([]bool, 0, 6)
	for tick := int64(0); tick < 6; tick++ {
		ctx.Tick = tick
		require.NoError(t, s.BeforeTick(ctx, net))
		present = append(present, net.AreNeighbors(1, 2))
		require.NoError(t, s.AfterTick(ctx, net))
	}

	// THEN the link is absent exactly during [2, 4)
	assert.Equal(t, []bool{true, true, false, false, true, true}, present)
	assert.True(t, net.AreNeighbors(2, 1))
	assert.False(t, s.Disconnected())
}

func TestScheduledLinkFailures_RestoredAtAlgorithmEnd(t *testing.T) {
	// GIVEN failures without a reconnect tick, already applied
	net := chain(t, 3)
	s, err := NewScheduledLinkFailures([]Link{{A: 0, B: 1}}, 0, 0)
	require.NoError(t, err)
	ctx := newTestContext(1, AlgorithmQRouting, nil)
	require.NoError(t, s.BeforeTick(ctx, net))
	require.True(t, s.Disconnected())

	// WHEN the algorithm ends
	require.NoError(t, s.OnAlgorithmEnd(ctx, net))

	// THEN the link is back and the schedule is idle again
	assert.Equal(t, []Link{{A: 0, B: 1}, {A: 1, B: 2}}, net.Links())
	assert.False(t, s.Disconnected())

	// THEN the next run sees the same schedule
	ctx.Reset(AlgorithmShortestPath)
	s.Reset()
	require.NoError(t, s.BeforeTick(ctx, net))
	assert.False(t, net.AreNeighbors(0, 1))
}

func TestScheduledLinkFailures_NoDuplicateRestore(t *testing.T) {
	// GIVEN links that were already reconnected by the schedule
	net := chain(t, 3)
	s, err := NewScheduledLinkFailures([]Link{{A: 0, B: 1}}, 1, 2)
	require.NoError(t, err)
	ctx := newTestContext(1, AlgorithmQRouting, nil)
	for tick := int64(0); tick < 3; tick++ {
		ctx.Tick = tick
		require.NoError(t, s.BeforeTick(ctx, net))
	}

	// WHEN the algorithm ends
	require.NoError(t, s.OnAlgorithmEnd(ctx, net))

	// THEN adjacency holds each neighbor once
	assert.Equal(t, []NodeID{1}, net.mustNode(0).Neighbors())
	assert.Equal(t, []NodeID{0, 2}, net.mustNode(1).Neighbors())
}

func TestScheduledLinkFailures_MissingLinkNotAdded(t *testing.T) {
	// GIVEN a scheduled link that does not exist in the topology
	net := chain(t, 3)
	before := net.Links()
	s, err := NewScheduledLinkFailures([]Link{{A: 0, B: 2}}, 0, 0)
	require.NoError(t, err)
	ctx := newTestContext(1, AlgorithmQRouting, nil)

	// WHEN the schedule disconnects it and the algorithm ends
	require.NoError(t, s.BeforeTick(ctx, net))
	require.NoError(t, s.OnAlgorithmEnd(ctx, net))

	// THEN the topology is unchanged
	assert.Equal(t, before, net.Links())
	assert.False(t, net.AreNeighbors(0, 2))
}

func TestScheduledLinkFailures_RestoresOnlyRemovedLinks(t *testing.T) {
	// GIVEN one real link and one foreign link, with a reconnect tick
	net := chain(t, 3)
	s, err := NewScheduledLinkFailures([]Link{{A: 1, B: 2}, {A: 0, B: 2}}, 0, 2)
	require.NoError(t, err)
	ctx := newTestContext(1, AlgorithmQRouting, nil)

	// WHEN the schedule disconnects and later reconnects
	require.NoError(t, s.BeforeTick(ctx, net))
	assert.Equal(t, []Link{{A: 0, B: 1}}, net.Links())
	ctx.Tick = 2
	require.NoError(t, s.BeforeTick(ctx, net))

	// THEN only the removed link comes back
	assert.Equal(t, []Link{{A: 0, B: 1}, {A: 1, B: 2}}, net.Links())
	require.NoError(t, s.OnAlgorithmEnd(ctx, net))
	assert.Equal(t, []Link{{A: 0, B: 1}, {A: 1, B: 2}}, net.Links())
}

func TestScheduledLinkFailures_UnknownNode(t *testing.T) {
	net := chain(t, 2)
	s, err := NewScheduledLinkFailures([]Link{{A: 0, B: 9}}, 0, 0)
	require.NoError(t, err)
	ctx := newTestContext(1, AlgorithmQRouting, nil)
	assert.ErrorIs(t, s.BeforeTick(ctx, net), ErrUnknownNode)
}

func TestNoDynamics(t *testing.T) {
	net := chain(t, 2)
	ctx := newTestContext(1, AlgorithmQRouting, nil)
	var d NetworkDynamics = NoDynamics{}
	d.Reset()
	assert.NoError(t, d.BeforeTick(ctx, net))
	assert.NoError(t, d.AfterTick(ctx, net))
	assert.NoError(t, d.OnAlgorithmEnd(ctx, net))
	assert.Equal(t, []Link{{A: 0, B: 1}}, net.Links())
}
