package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

type PubSubEmitter struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func NewPubSubEmitter(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*PubSubEmitter, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &PubSubEmitter{
		client: client,
		topic:  client.Topic(topicID),
	}, nil
}

// Emit publishes the event and waits for the server ack.
func (e *PubSubEmitter) Emit(ctx context.Context, event RunEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("pubsub marshal failed: %w", err)
	}

	res := e.topic.Publish(ctx, &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			"mode":   event.Mode,
			"status": event.Status,
		},
	})

	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish failed: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("message_id", id).Str("run_id", event.RunID).Msg("run event published")
	return nil
}

func (e *PubSubEmitter) Close() error {
	e.topic.Stop()
	return e.client.Close()
}
