package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type voteLedger struct {
	db *sql.DB
}

func NewVoteLedger(db *sql.DB) ports.VoteLedger {
	return &voteLedger{
		db: db,
	}
}

// Cast inserts the vote and increments the candidate counter in one
// transaction. The election row is share-locked and its state re-checked at
// vote.CastAt, so a concurrent deactivation or delete waits for the cast to
// finish. The votes_voter_election_key constraint rejects a second vote from
// the same voter; concurrent inserts for the same key block on the unique
// index until the first transaction finishes.
func (l *voteLedger) Cast(ctx context.Context, vote *domain.Vote) (*domain.Candidate, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, "begin transaction")
	}
	defer tx.Rollback()

	lockElection := `SELECT start_date, end_date, is_active FROM elections WHERE id = $1 FOR SHARE`
	var (
		start, end time.Time
		active     bool
	)
	if err := tx.QueryRowContext(ctx, lockElection, vote.ElectionID).Scan(&start, &end, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, classify(err, "lock election")
	}
	if !domain.Classify(start, end, active, vote.CastAt).AcceptsVotes() {
		return nil, domain.ErrVotingClosed
	}

	insertVote := `
		INSERT INTO votes (id, voter_id, election_id, candidate_id, cast_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, insertVote, vote.ID, vote.VoterID, vote.ElectionID, vote.CandidateID, vote.CastAt)
	if err != nil {
		return nil, classify(err, "insert vote")
	}

	incrementVotes := `
		UPDATE candidates
		SET votes = votes + 1
		WHERE id = $1 AND election_id = $2
		RETURNING id, election_id, name, party, description, votes, created_at
	`
	var c domain.Candidate
	err = tx.QueryRowContext(ctx, incrementVotes, vote.CandidateID, vote.ElectionID).Scan(
		&c.ID, &c.ElectionID, &c.Name, &c.Party, &c.Description, &c.Votes, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, classify(err, "increment candidate votes")
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, "commit vote")
	}
	return &c, nil
}

func (l *voteLedger) HasVoted(ctx context.Context, voterID, electionID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM votes WHERE voter_id = $1 AND election_id = $2 LIMIT 1`
	var exists int
	err := l.db.QueryRowContext(ctx, query, voterID, electionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, classify(err, "check existing vote")
	}
	return true, nil
}

func (l *voteLedger) GetVote(ctx context.Context, voterID, electionID uuid.UUID) (*domain.Vote, error) {
	query := `
		SELECT id, voter_id, election_id, candidate_id, cast_at
		FROM votes
		WHERE voter_id = $1 AND election_id = $2
	`
	var v domain.Vote
	err := l.db.QueryRowContext(ctx, query, voterID, electionID).Scan(&v.ID, &v.VoterID, &v.ElectionID, &v.CandidateID, &v.CastAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, classify(err, "get vote")
	}
	return &v, nil
}

func (l *voteLedger) VotedElections(ctx context.Context, voterID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT election_id FROM votes WHERE voter_id = $1`, voterID)
	if err != nil {
		return nil, classify(err, "list voted elections")
	}
	defer rows.Close()

	voted := map[uuid.UUID]bool{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err, "scan voted election")
		}
		voted[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate voted elections")
	}
	return voted, nil
}

func (l *voteLedger) CountByCandidate(ctx context.Context, electionID uuid.UUID) (map[uuid.UUID]int64, error) {
	query := `
		SELECT candidate_id, COUNT(*)
		FROM votes
		WHERE election_id = $1
		GROUP BY candidate_id
	`
	rows, err := l.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, classify(err, "count votes")
	}
	defer rows.Close()

	counts := map[uuid.UUID]int64{}
	for rows.Next() {
		var (
			id uuid.UUID
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, classify(err, "scan vote count")
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate vote counts")
	}
	return counts, nil
}

func (l *voteLedger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&n); err != nil {
		return 0, classify(err, "count votes")
	}
	return n, nil
}
