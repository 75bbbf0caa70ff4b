package boltdb

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type electionRepository struct {
	db *bolt.DB
}

func NewElectionRepository(db *bolt.DB) ports.ElectionRepository {
	return &electionRepository{db: db}
}

func (r *electionRepository) Save(ctx context.Context, election *domain.Election) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		stored := *election
		stored.Candidates = nil
		if err := putJSON(tx.Bucket(bucketElections), election.ID[:], stored); err != nil {
			return err
		}
		candidates := tx.Bucket(bucketCandidates)
		for i := range election.Candidates {
			c := &election.Candidates[i]
			if err := putJSON(candidates, compositeKey(election.ID, c.ID), c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *electionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error) {
	var election *domain.Election
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		election, err = loadElection(tx, id)
		if err != nil {
			return err
		}
		election.Candidates, err = loadCandidates(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return election, nil
}

func loadElection(tx *bolt.Tx, id uuid.UUID) (*domain.Election, error) {
	var e domain.Election
	if err := getJSON(tx.Bucket(bucketElections), id[:], &e, domain.ErrElectionNotFound); err != nil {
		return nil, err
	}
	return &e, nil
}

// loadCandidates returns the election's candidates in registration order.
func loadCandidates(tx *bolt.Tx, electionID uuid.UUID) ([]domain.Candidate, error) {
	candidates := []domain.Candidate{}
	err := scanPrefix(tx.Bucket(bucketCandidates), electionID[:], func(_, v []byte) error {
		var c domain.Candidate
		if err := json.Unmarshal(v, &c); err != nil {
			return err
		}
		candidates = append(candidates, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(candidates, func(a, b domain.Candidate) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return candidates, nil
}

func (r *electionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		elections := tx.Bucket(bucketElections)
		if elections.Get(id[:]) == nil {
			return domain.ErrElectionNotFound
		}
		if err := elections.Delete(id[:]); err != nil {
			return err
		}
		if _, err := deletePrefix(tx.Bucket(bucketCandidates), id[:]); err != nil {
			return err
		}

		removed, err := deletePrefix(tx.Bucket(bucketVotes), id[:])
		if err != nil {
			return err
		}
		voterVotes := tx.Bucket(bucketVoterVotes)
		for _, v := range removed {
			var vote domain.Vote
			if err := json.Unmarshal(v, &vote); err != nil {
				return err
			}
			if err := voterVotes.Delete(compositeKey(vote.VoterID, vote.ElectionID)); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketResults).Delete(id[:])
	})
}

func (r *electionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		e, err := loadElection(tx, id)
		if err != nil {
			return err
		}
		e.Active = active
		return putJSON(tx.Bucket(bucketElections), id[:], e)
	})
}

func (r *electionRepository) AddCandidate(ctx context.Context, candidate *domain.Candidate) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketElections).Get(candidate.ElectionID[:]) == nil {
			return domain.ErrElectionNotFound
		}
		return putJSON(tx.Bucket(bucketCandidates), compositeKey(candidate.ElectionID, candidate.ID), candidate)
	})
}

func (r *electionRepository) FindCandidates(ctx context.Context, electionID uuid.UUID) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketElections).Get(electionID[:]) == nil {
			return domain.ErrElectionNotFound
		}
		var err error
		candidates, err = loadCandidates(tx, electionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	domain.SortByVotes(candidates)
	return candidates, nil
}

func (r *electionRepository) FindOngoing(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	return r.findActive(now, domain.StateOngoing)
}

func (r *electionRepository) FindUpcoming(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	return r.findActive(now, domain.StateUpcoming)
}

func (r *electionRepository) FindCompleted(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	return r.findActive(now, domain.StateCompleted)
}

// findActive scans all active elections in the given state, ordered by end
// date.
func (r *electionRepository) findActive(now time.Time, state domain.LifecycleState) ([]*domain.Election, error) {
	elections := []*domain.Election{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketElections).ForEach(func(_, v []byte) error {
			var e domain.Election
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.Active && e.State(now) == state {
				elections = append(elections, &e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(elections, func(a, b *domain.Election) int {
		return a.EndAt.Compare(b.EndAt)
	})
	return elections, nil
}

func (r *electionRepository) Counts(ctx context.Context) (int64, int64, error) {
	var elections, candidates int64
	err := r.db.View(func(tx *bolt.Tx) error {
		elections = int64(tx.Bucket(bucketElections).Stats().KeyN)
		candidates = int64(tx.Bucket(bucketCandidates).Stats().KeyN)
		return nil
	})
	return elections, candidates, err
}
