package boltdb

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type voteLedger struct {
	db *bolt.DB
}

func NewVoteLedger(db *bolt.DB) ports.VoteLedger {
	return &voteLedger{db: db}
}

// Cast re-checks that the election accepts votes at vote.CastAt, checks the
// (election, voter) key, stores the vote and bumps the candidate counter
// inside one write transaction. bbolt allows a single writer at a time, so
// concurrent casts for the same voter cannot both pass the check.
func (l *voteLedger) Cast(ctx context.Context, vote *domain.Vote) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := l.db.Update(func(tx *bolt.Tx) error {
		election, err := loadElection(tx, vote.ElectionID)
		if err != nil {
			return err
		}
		if !election.State(vote.CastAt).AcceptsVotes() {
			return domain.ErrVotingClosed
		}

		candidates := tx.Bucket(bucketCandidates)
		candidateKey := compositeKey(vote.ElectionID, vote.CandidateID)
		if err := getJSON(candidates, candidateKey, &candidate, domain.ErrCandidateNotFound); err != nil {
			return err
		}

		votes := tx.Bucket(bucketVotes)
		voteKey := compositeKey(vote.ElectionID, vote.VoterID)
		if votes.Get(voteKey) != nil {
			return domain.ErrDuplicateVote
		}
		if err := putJSON(votes, voteKey, vote); err != nil {
			return err
		}
		if err := tx.Bucket(bucketVoterVotes).Put(compositeKey(vote.VoterID, vote.ElectionID), vote.CandidateID[:]); err != nil {
			return err
		}

		candidate.Votes++
		return putJSON(candidates, candidateKey, candidate)
	})
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (l *voteLedger) HasVoted(ctx context.Context, voterID, electionID uuid.UUID) (bool, error) {
	var voted bool
	err := l.db.View(func(tx *bolt.Tx) error {
		voted = tx.Bucket(bucketVotes).Get(compositeKey(electionID, voterID)) != nil
		return nil
	})
	return voted, err
}

func (l *voteLedger) GetVote(ctx context.Context, voterID, electionID uuid.UUID) (*domain.Vote, error) {
	var vote domain.Vote
	err := l.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketVotes), compositeKey(electionID, voterID), &vote, domain.ErrVoteNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (l *voteLedger) VotedElections(ctx context.Context, voterID uuid.UUID) (map[uuid.UUID]bool, error) {
	voted := map[uuid.UUID]bool{}
	err := l.db.View(func(tx *bolt.Tx) error {
		return scanPrefix(tx.Bucket(bucketVoterVotes), voterID[:], func(k, _ []byte) error {
			electionID, err := uuid.FromBytes(k[len(voterID):])
			if err != nil {
				return err
			}
			voted[electionID] = true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return voted, nil
}

func (l *voteLedger) CountByCandidate(ctx context.Context, electionID uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := map[uuid.UUID]int64{}
	err := l.db.View(func(tx *bolt.Tx) error {
		return scanPrefix(tx.Bucket(bucketVotes), electionID[:], func(_, v []byte) error {
			var vote domain.Vote
			if err := json.Unmarshal(v, &vote); err != nil {
				return err
			}
			counts[vote.CandidateID]++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (l *voteLedger) Count(ctx context.Context) (int64, error) {
	return count(l.db, bucketVotes)
}
