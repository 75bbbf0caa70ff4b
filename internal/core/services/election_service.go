package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type electionService struct {
	common
	elections ports.ElectionRepository
	voters    ports.VoterRepository
	ledger    ports.VoteLedger
}

func NewElectionService(elections ports.ElectionRepository, voters ports.VoterRepository, ledger ports.VoteLedger, opts ...Option) ports.ElectionService {
	return &electionService{
		common:    newCommon(opts),
		elections: elections,
		voters:    voters,
		ledger:    ledger,
	}
}

func (s *electionService) Create(ctx context.Context, input ports.CreateElectionInput) (*domain.Election, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return nil, domain.Invalid("start_date and end_date are required")
	}
	if !input.StartAt.Before(input.EndAt) {
		return nil, domain.ErrInvalidWindow
	}

	now := s.now()
	election := &domain.Election{
		ID:         uuid.New(),
		Name:       name,
		StartAt:    input.StartAt,
		EndAt:      input.EndAt,
		Active:     input.Active,
		Candidates: make([]domain.Candidate, 0, len(input.Candidates)),
		CreatedAt:  now,
	}
	for i, in := range input.Candidates {
		// Registration order breaks ties, so candidates submitted together
		// are spaced apart at storage precision.
		c, err := newCandidate(election.ID, in, now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			return nil, err
		}
		election.Candidates = append(election.Candidates, *c)
	}

	if err := s.elections.Save(ctx, election); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, domain.NewEvent(domain.EventElectionCreated, now).
		WithElection(election.ID).
		With("name", election.Name))
	s.logger.Info().
		Str("election_id", election.ID.String()).
		Int("candidates", len(election.Candidates)).
		Msg("election created")

	return election, nil
}

func (s *electionService) AddCandidate(ctx context.Context, electionID uuid.UUID, input ports.CandidateInput) (*domain.Candidate, error) {
	now := s.now()
	election, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.State(now) == domain.StateCompleted {
		return nil, domain.ErrVotingClosed
	}

	candidate, err := newCandidate(electionID, input, now)
	if err != nil {
		return nil, err
	}
	if err := s.elections.AddCandidate(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

func (s *electionService) SetActive(ctx context.Context, electionID uuid.UUID, active bool) error {
	if err := s.elections.SetActive(ctx, electionID, active); err != nil {
		return err
	}
	s.invalidate(ctx, electionID)
	s.logger.Info().Str("election_id", electionID.String()).Bool("active", active).Msg("election activation changed")
	return nil
}

func (s *electionService) Delete(ctx context.Context, electionID uuid.UUID) error {
	if err := s.elections.Delete(ctx, electionID); err != nil {
		return err
	}
	s.invalidate(ctx, electionID)
	s.logger.Info().Str("election_id", electionID.String()).Msg("election deleted")
	return nil
}

func (s *electionService) Get(ctx context.Context, electionID uuid.UUID) (*domain.Election, error) {
	return s.elections.GetByID(ctx, electionID)
}

func (s *electionService) Candidates(ctx context.Context, electionID uuid.UUID) (*domain.Election, []domain.Candidate, error) {
	election, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, nil, err
	}
	candidates, err := s.elections.FindCandidates(ctx, electionID)
	if err != nil {
		return nil, nil, err
	}
	return election, candidates, nil
}

// Overview lists the active elections grouped by lifecycle window and marks
// the ones the voter already took part in.
func (s *electionService) Overview(ctx context.Context, voterID uuid.UUID) (*domain.ElectionOverview, error) {
	now := s.now()

	ongoing, err := s.elections.FindOngoing(ctx, now)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.elections.FindUpcoming(ctx, now)
	if err != nil {
		return nil, err
	}
	completed, err := s.elections.FindCompleted(ctx, now)
	if err != nil {
		return nil, err
	}
	voted, err := s.ledger.VotedElections(ctx, voterID)
	if err != nil {
		return nil, err
	}

	return &domain.ElectionOverview{
		Ongoing:   summarize(ongoing, voted, now),
		Upcoming:  summarize(upcoming, voted, now),
		Completed: summarize(completed, voted, now),
	}, nil
}

func (s *electionService) Stats(ctx context.Context) (*domain.Stats, error) {
	voters, err := s.voters.Count(ctx)
	if err != nil {
		return nil, err
	}
	elections, candidates, err := s.elections.Counts(ctx)
	if err != nil {
		return nil, err
	}
	votes, err := s.ledger.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Stats{
		Voters:     voters,
		Elections:  elections,
		Candidates: candidates,
		Votes:      votes,
	}, nil
}

func (s *electionService) invalidate(ctx context.Context, electionID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, electionID); err != nil {
		s.logger.Warn().Err(err).Str("election_id", electionID.String()).Msg("failed to invalidate cached results")
	}
}

func newCandidate(electionID uuid.UUID, in ports.CandidateInput, createdAt time.Time) (*domain.Candidate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("candidate name is required")
	}
	return &domain.Candidate{
		ID:          uuid.New(),
		ElectionID:  electionID,
		Name:        name,
		Party:       strings.TrimSpace(in.Party),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   createdAt,
	}, nil
}

func summarize(elections []*domain.Election, voted map[uuid.UUID]bool, now time.Time) []domain.ElectionSummary {
	out := make([]domain.ElectionSummary, 0, len(elections))
	for _, e := range elections {
		out = append(out, domain.ElectionSummary{
			ID:       e.ID,
			Name:     e.Name,
			StartAt:  e.StartAt,
			EndAt:    e.EndAt,
			State:    e.State(now),
			HasVoted: voted[e.ID],
		})
	}
	return out
}
