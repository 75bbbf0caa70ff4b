package domain

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeNoVotes Outcome = "no_votes"
	OutcomeWinner  Outcome = "winner"
	OutcomeTie     Outcome = "tie"
)

type CandidateResult struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Party      string    `json:"party"`
	Votes      int64     `json:"votes"`
	Percentage float64   `json:"vote_percentage"`
}

type Results struct {
	ElectionID uuid.UUID         `json:"election_id"`
	Election   string            `json:"election"`
	State      LifecycleState    `json:"state"`
	TotalVotes int64             `json:"total_votes"`
	Candidates []CandidateResult `json:"candidates"`
	Outcome    Outcome           `json:"outcome"`
	Winner     *CandidateResult  `json:"winner"`
	// Contenders holds the candidates sharing the top count when Outcome is tie.
	Contenders []CandidateResult `json:"contenders,omitempty"`
	ComputedAt time.Time         `json:"computed_at"`
}

// FinalResult is the persisted outcome of a completed election.
type FinalResult struct {
	ElectionID  uuid.UUID  `json:"election_id"`
	Outcome     Outcome    `json:"outcome"`
	WinnerID    *uuid.UUID `json:"winner_id,omitempty"`
	TotalVotes  int64      `json:"total_votes"`
	FinalizedAt time.Time  `json:"finalized_at"`
}

// TallyDrift reports a candidate whose cached counter disagrees with the ledger.
type TallyDrift struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Cached      int64     `json:"cached"`
	Counted     int64     `json:"counted"`
}

// Tally derives the results view of an election from its candidates' cached
// counters. The winner is only disclosed once the election is completed; equal
// top counts produce a tie outcome instead of an arbitrary winner.
func Tally(e *Election, candidates []Candidate, now time.Time) Results {
	ordered := slices.Clone(candidates)
	SortByVotes(ordered)

	var total int64
	for _, c := range ordered {
		total += c.Votes
	}

	res := Results{
		ElectionID: e.ID,
		Election:   e.Name,
		State:      e.State(now),
		TotalVotes: total,
		Candidates: make([]CandidateResult, 0, len(ordered)),
		Outcome:    OutcomePending,
		ComputedAt: now,
	}
	for _, c := range ordered {
		res.Candidates = append(res.Candidates, CandidateResult{
			ID:         c.ID,
			Name:       c.Name,
			Party:      c.Party,
			Votes:      c.Votes,
			Percentage: Percentage(c.Votes, total),
		})
	}

	if !res.State.DisclosesWinner() {
		return res
	}
	if total == 0 {
		res.Outcome = OutcomeNoVotes
		return res
	}

	top := res.Candidates[0].Votes
	var leaders []CandidateResult
	for _, c := range res.Candidates {
		if c.Votes != top {
			break
		}
		leaders = append(leaders, c)
	}
	if len(leaders) > 1 {
		res.Outcome = OutcomeTie
		res.Contenders = leaders
		return res
	}
	winner := leaders[0]
	res.Outcome = OutcomeWinner
	res.Winner = &winner
	return res
}

// Final converts completed results into the record persisted by the finalizer.
func (r Results) Final() FinalResult {
	fr := FinalResult{
		ElectionID:  r.ElectionID,
		Outcome:     r.Outcome,
		TotalVotes:  r.TotalVotes,
		FinalizedAt: r.ComputedAt,
	}
	if r.Winner != nil {
		id := r.Winner.ID
		fr.WinnerID = &id
	}
	return fr
}

// Percentage returns votes as a share of total, rounded to two decimals.
func Percentage(votes, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(votes)/float64(total)*100*100) / 100
}

// SortByVotes orders candidates by descending votes, then registration order.
func SortByVotes(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}
