package ports

import (
	"context"

	"github.com/vncsmyrnk/evote/internal/core/domain"
)

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks . Notifier

// Notifier hands lifecycle events to the notification collaborator. It must
// not block the caller and never reports delivery failures.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}
