package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID          uuid.UUID `json:"id"`
	VoterID     uuid.UUID `json:"voter_id"`
	ElectionID  uuid.UUID `json:"election_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}

// CastReceipt is returned to the voter after a successful cast.
type CastReceipt struct {
	Vote      Vote      `json:"vote"`
	Candidate Candidate `json:"candidate"`
}
