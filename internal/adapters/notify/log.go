package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

// LogNotifier writes events to the log. It is used when no broker is
// configured.
type LogNotifier struct {
	logger zerolog.Logger
}

var _ ports.Notifier = LogNotifier{}

func NewLogNotifier(logger zerolog.Logger) LogNotifier {
	return LogNotifier{logger: logger}
}

func (n LogNotifier) Notify(_ context.Context, event domain.Event) {
	e := n.logger.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.Type)).
		Time("occurred_at", event.OccurredAt)
	if event.VoterID != nil {
		e = e.Str("voter_id", event.VoterID.String())
	}
	if event.ElectionID != nil {
		e = e.Str("election_id", event.ElectionID.String())
	}
	for k, v := range event.Attributes {
		if k == "verification_token" {
			continue
		}
		e = e.Str(k, v)
	}
	e.Msg("event")
}
