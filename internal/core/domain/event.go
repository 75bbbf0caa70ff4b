package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventVoterRegistered   EventType = "voter.registered"
	EventVoteCast          EventType = "vote.cast"
	EventElectionCreated   EventType = "election.created"
	EventElectionFinalized EventType = "election.finalized"
)

// Event is a lifecycle fact handed to the notification collaborator.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       EventType         `json:"type"`
	VoterID    *uuid.UUID        `json:"voter_id,omitempty"`
	ElectionID *uuid.UUID        `json:"election_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEvent(t EventType, now time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: now}
}

func (e Event) WithVoter(id uuid.UUID) Event {
	e.VoterID = &id
	return e
}

func (e Event) WithElection(id uuid.UUID) Event {
	e.ElectionID = &id
	return e
}

func (e Event) With(key, value string) Event {
	attrs := make(map[string]string, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attributes = attrs
	return e
}
