// Package events carries cross-instance notifications over Cloud Pub/Sub.
// The only event today is "content updated", which tells every serving
// instance to drop its cached content snapshot.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// ContentUpdated announces that one or more content fields changed.
type ContentUpdated struct {
	Keys      []string  `json:"keys"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PubSubContentPublisher publishes content update events to a Pub/Sub topic.
type PubSubContentPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
	clock   func() time.Time
}

// NewPubSubContentPublisher constructs a Pub/Sub backed content event publisher.
func NewPubSubContentPublisher(topic *pubsub.Topic) (*PubSubContentPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub content publisher: topic is required")
	}
	return &PubSubContentPublisher{
		topic:   topic,
		marshal: json.Marshal,
		clock:   time.Now,
	}, nil
}

// PublishContentUpdated enqueues a content update event on the configured topic.
func (p *PubSubContentPublisher) PublishContentUpdated(ctx context.Context, keys []string) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub content publisher: not initialised")
	}

	event := ContentUpdated{
		Keys:      keys,
		UpdatedAt: p.clock().UTC(),
	}
	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal content event: %w", err)
	}

	attrs := map[string]string{"event": "content.updated"}
	if len(keys) > 0 {
		attrs["keys"] = strings.Join(keys, ",")
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish content event: %w", err)
	}
	return id, nil
}

// ContentListener receives content update events and invokes a callback.
type ContentListener struct {
	subscription *pubsub.Subscription
	logger       *zap.Logger
	onUpdate     func(ContentUpdated)
}

// NewContentListener wires a subscription to an invalidation callback.
func NewContentListener(subscription *pubsub.Subscription, logger *zap.Logger, onUpdate func(ContentUpdated)) (*ContentListener, error) {
	if subscription == nil {
		return nil, errors.New("content listener: subscription is required")
	}
	if onUpdate == nil {
		return nil, errors.New("content listener: update callback is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentListener{
		subscription: subscription,
		logger:       logger,
		onUpdate:     onUpdate,
	}, nil
}

// Listen blocks receiving events until the context is cancelled.
func (l *ContentListener) Listen(ctx context.Context) error {
	err := l.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		defer msg.Ack()

		var event ContentUpdated
		if unmarshalErr := json.Unmarshal(msg.Data, &event); unmarshalErr != nil {
			l.logger.Warn("content listener: dropping malformed event", zap.Error(unmarshalErr))
			return
		}
		l.onUpdate(event)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("content listener: receive: %w", err)
	}
	return nil
}
