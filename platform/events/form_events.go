package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
)

const (
	FormEventChannel = "form:events"
)

type EventPublisher struct {
	redisClient *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redisClient: redisClient}
}

func (p *EventPublisher) PublishFormEvent(ctx context.Context, event *models.FormEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail PublishFormEvent", "error", err)
		return err
	}
	if err := p.redisClient.Publish(ctx, FormEventChannel, string(data)).Err(); err != nil {
		logging.Logger.Error("fail PublishFormEvent", "error", err)
		return err
	}
	logging.Logger.Debug("PublishFormEvent", "type", event.Type, "document_id", event.DocumentID)
	return nil
}

// SubscribeFormEvents streams events until ctx is cancelled. The returned
// channel is closed when the subscription ends.
func (p *EventPublisher) SubscribeFormEvents(ctx context.Context) (<-chan *models.FormEvent, error) {
	pubsub := p.redisClient.Subscribe(ctx, FormEventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		logging.Logger.Error("fail SubscribeFormEvents", "error", err)
		_ = pubsub.Close()
		return nil, err
	}
	ch := make(chan *models.FormEvent, 100)

	go func() {
		defer close(ch)
		defer func(pubsub *redis.PubSub) {
			if err := pubsub.Close(); err != nil {
				logging.Logger.Error("fail close form subscription", "error", err)
			}
		}(pubsub)

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event models.FormEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logging.Logger.Error("Failed to unmarshal event", "error", err)
					continue
				}

				select {
				case ch <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
