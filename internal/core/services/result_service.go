package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

const finalizeConcurrency = 4

type resultService struct {
	common
	elections ports.ElectionRepository
	ledger    ports.VoteLedger
	results   ports.ResultRepository
}

func NewResultService(elections ports.ElectionRepository, ledger ports.VoteLedger, results ports.ResultRepository, opts ...Option) ports.ResultService {
	return &resultService{
		common:    newCommon(opts),
		elections: elections,
		ledger:    ledger,
		results:   results,
	}
}

func (s *resultService) GetResults(ctx context.Context, electionID uuid.UUID) (*domain.Results, error) {
	ctx, span := tracer.Start(ctx, "ResultService.GetResults", trace.WithAttributes(
		attribute.String("election.id", electionID.String()),
	))
	defer span.End()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, electionID)
		if err != nil {
			s.logger.Warn().Err(err).Str("election_id", electionID.String()).Msg("results cache read failed")
		} else if ok {
			s.metrics.IncResultsLookup(true)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		s.metrics.IncResultsLookup(false)
	}

	election, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load election")
		return nil, err
	}

	results := domain.Tally(election, election.Candidates, s.now())
	if s.cache != nil {
		if err := s.cache.Set(ctx, &results); err != nil {
			s.logger.Warn().Err(err).Str("election_id", electionID.String()).Msg("results cache write failed")
		}
	}
	return &results, nil
}

// FinalizeCompleted stores the final outcome of every completed election that
// does not have one yet. Elections are processed concurrently; the first
// failure cancels the remaining work.
func (s *resultService) FinalizeCompleted(ctx context.Context) (int, error) {
	now := s.now()
	elections, err := s.elections.FindCompleted(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list completed elections: %w", err)
	}

	var finalized atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(finalizeConcurrency)

	for _, e := range elections {
		g.Go(func() error {
			done, err := s.finalize(gctx, e.ID)
			if err != nil {
				return fmt.Errorf("failed to finalize election %s: %w", e.ID, err)
			}
			if done {
				finalized.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	return int(finalized.Load()), err
}

func (s *resultService) finalize(ctx context.Context, electionID uuid.UUID) (bool, error) {
	if _, err := s.results.GetFinal(ctx, electionID); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	election, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return false, err
	}
	now := s.now()
	results := domain.Tally(election, election.Candidates, now)
	if results.State != domain.StateCompleted {
		return false, nil
	}

	if err := s.results.SaveFinal(ctx, results.Final()); err != nil {
		return false, err
	}

	s.metrics.IncFinalized()
	event := domain.NewEvent(domain.EventElectionFinalized, now).
		WithElection(electionID).
		With("outcome", string(results.Outcome))
	if results.Winner != nil {
		event = event.With("winner_id", results.Winner.ID.String())
	}
	s.notifier.Notify(ctx, event)
	s.logger.Info().
		Str("election_id", electionID.String()).
		Str("outcome", string(results.Outcome)).
		Int64("total_votes", results.TotalVotes).
		Msg("election finalized")
	return true, nil
}

// AuditTally recounts the ledger and reports candidates whose counter
// disagrees with the number of recorded votes.
func (s *resultService) AuditTally(ctx context.Context, electionID uuid.UUID) ([]domain.TallyDrift, error) {
	election, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	counted, err := s.ledger.CountByCandidate(ctx, electionID)
	if err != nil {
		return nil, err
	}

	drift := []domain.TallyDrift{}
	for _, c := range election.Candidates {
		if n := counted[c.ID]; n != c.Votes {
			drift = append(drift, domain.TallyDrift{CandidateID: c.ID, Cached: c.Votes, Counted: n})
		}
	}
	if len(drift) > 0 {
		s.logger.Error().
			Str("election_id", electionID.String()).
			Int("candidates", len(drift)).
			Msg("tally drift detected")
	}
	return drift, nil
}
