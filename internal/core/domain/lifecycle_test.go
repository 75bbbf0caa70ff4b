package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		end    time.Time
		active bool
		now    time.Time
		want   LifecycleState
	}{
		{"before start", end, true, start.Add(-time.Second), StateUpcoming},
		{"at start", end, true, start, StateOngoing},
		{"inside window", end, true, start.Add(time.Hour), StateOngoing},
		{"at end", end, true, end, StateOngoing},
		{"after end", end, true, end.Add(time.Second), StateCompleted},
		{"inactive inside window", end, false, start.Add(time.Hour), StateSuspended},
		{"inactive before start", end, false, start.Add(-time.Hour), StateUpcoming},
		{"inactive after end", end, false, end.Add(time.Hour), StateCompleted},
		{"unset end never completes", time.Time{}, true, end.Add(24 * time.Hour), StateOngoing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(start, tc.end, tc.active, tc.now))
		})
	}
}

func TestLifecycleState_Gates(t *testing.T) {
	assert.True(t, StateOngoing.AcceptsVotes())
	assert.False(t, StateUpcoming.AcceptsVotes())
	assert.False(t, StateSuspended.AcceptsVotes())
	assert.False(t, StateCompleted.AcceptsVotes())

	assert.True(t, StateCompleted.DisclosesWinner())
	assert.False(t, StateOngoing.DisclosesWinner())
}
