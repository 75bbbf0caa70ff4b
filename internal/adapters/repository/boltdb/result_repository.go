package boltdb

import (
	"context"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type resultRepository struct {
	db *bolt.DB
}

func NewResultRepository(db *bolt.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// SaveFinal keeps the first final result stored for an election.
func (r *resultRepository) SaveFinal(ctx context.Context, result domain.FinalResult) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketElections).Get(result.ElectionID[:]) == nil {
			return domain.ErrElectionNotFound
		}
		results := tx.Bucket(bucketResults)
		if results.Get(result.ElectionID[:]) != nil {
			return nil
		}
		return putJSON(results, result.ElectionID[:], result)
	})
}

func (r *resultRepository) GetFinal(ctx context.Context, electionID uuid.UUID) (*domain.FinalResult, error) {
	var result domain.FinalResult
	err := r.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketResults), electionID[:], &result, domain.ErrResultNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
