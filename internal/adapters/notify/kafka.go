// Package notify delivers lifecycle events to the notification collaborator.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

// KafkaNotifier publishes events as JSON records. Produce is asynchronous:
// Notify returns immediately and delivery failures are only logged.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	logger zerolog.Logger
}

var _ ports.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaNotifier{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the events topic if it does not exist yet.
func (n *KafkaNotifier) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	admin := kadm.NewClient(n.client)
	resp, err := admin.CreateTopic(ctx, partitions, replication, nil, n.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", n.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", n.topic, resp.Err)
	}
	return nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, event domain.Event) {
	value, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to encode event")
		return
	}

	record := &kgo.Record{
		Key:   eventKey(event),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	// delivery must outlive the request that triggered it
	n.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			n.logger.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", string(event.Type)).
				Msg("failed to publish event")
		}
	})
}

// Close flushes buffered records and closes the client.
func (n *KafkaNotifier) Close(ctx context.Context) error {
	err := n.client.Flush(ctx)
	n.client.Close()
	return err
}

// eventKey partitions events by election so a consumer sees them in order.
func eventKey(event domain.Event) []byte {
	switch {
	case event.ElectionID != nil:
		return []byte(event.ElectionID.String())
	case event.VoterID != nil:
		return []byte(event.VoterID.String())
	default:
		return []byte(event.ID.String())
	}
}
