package domain

import (
	"time"

	"github.com/google/uuid"
)

type Election struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	StartAt    time.Time   `json:"start_date"`
	EndAt      time.Time   `json:"end_date"`
	Active     bool        `json:"is_active"`
	Candidates []Candidate `json:"candidates,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// State classifies the election at now.
func (e *Election) State(now time.Time) LifecycleState {
	return Classify(e.StartAt, e.EndAt, e.Active, now)
}

// Candidate returns the candidate with id if it belongs to this election.
func (e *Election) Candidate(id uuid.UUID) (*Candidate, bool) {
	for i := range e.Candidates {
		if e.Candidates[i].ID == id {
			return &e.Candidates[i], true
		}
	}
	return nil, false
}

type Candidate struct {
	ID          uuid.UUID `json:"id"`
	ElectionID  uuid.UUID `json:"election_id"`
	Name        string    `json:"name"`
	Party       string    `json:"party"`
	Description string    `json:"description,omitempty"`
	Votes       int64     `json:"votes"`
	CreatedAt   time.Time `json:"created_at"`
}

// ElectionSummary is an election as listed to a specific voter.
type ElectionSummary struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	StartAt  time.Time      `json:"start_date"`
	EndAt    time.Time      `json:"end_date"`
	State    LifecycleState `json:"state"`
	HasVoted bool           `json:"has_voted"`
}

type ElectionOverview struct {
	Ongoing   []ElectionSummary `json:"ongoing_elections"`
	Upcoming  []ElectionSummary `json:"upcoming_elections"`
	Completed []ElectionSummary `json:"completed_elections"`
}

type Stats struct {
	Voters     int64 `json:"total_users"`
	Elections  int64 `json:"total_elections"`
	Candidates int64 `json:"total_candidates"`
	Votes      int64 `json:"total_votes"`
}
