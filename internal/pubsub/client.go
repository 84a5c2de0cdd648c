package pubsub

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/vmihailenco/msgpack/v5"
)

const publishTimeout = 10 * time.Second

// New connects to Pub/Sub in projectID. An empty projectID yields a client
// that drops every message.
func New(ctx context.Context, projectID string, m metrics.Metrics) (PubSubClient, error) {
	if m == nil {
		m = metrics.Noop{}
	}
	if projectID == "" {
		log.Info("No GCP project configured, events will not be published")
		return disabled{}, nil
	}

	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	teardown := func() {
		pubSubC.Close()
	}

	return &client{
		client:   pubSubC,
		metrics:  m,
		teardown: teardown,
	}, nil
}

func (c *client) SendMessage(topic EventType, data any) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	message := &pubsub.Message{
		Data:       msgpackData,
		Attributes: map[string]string{"event": string(topic)},
	}
	result := c.client.Topic(string(topic)).Publish(ctx, message)
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return err
	}
	c.metrics.IncEventsPublished(string(topic))
	log.Info("SendMessage", "serverID", serverID, "topic", topic)
	return nil
}

func (c *client) Close() error {
	c.teardown()
	return nil
}

type disabled struct{}

func (disabled) SendMessage(topic EventType, _ any) error {
	log.Debug("Publishing disabled, dropping event", "topic", topic)
	return nil
}

func (disabled) Close() error { return nil }
