package domain

import "time"

type LifecycleState string

const (
	StateUpcoming  LifecycleState = "upcoming"
	StateOngoing   LifecycleState = "ongoing"
	StateSuspended LifecycleState = "suspended"
	StateCompleted LifecycleState = "completed"
)

// Classify derives the lifecycle state of an election window at now.
//
// Both window bounds are inclusive. An inactive election inside its window is
// Suspended rather than Ongoing, and an election without an end never
// completes.
func Classify(start, end time.Time, active bool, now time.Time) LifecycleState {
	if now.Before(start) {
		return StateUpcoming
	}
	if !end.IsZero() && now.After(end) {
		return StateCompleted
	}
	if !active {
		return StateSuspended
	}
	return StateOngoing
}

func (s LifecycleState) AcceptsVotes() bool {
	return s == StateOngoing
}

func (s LifecycleState) DisclosesWinner() bool {
	return s == StateCompleted
}
