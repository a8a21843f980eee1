package event

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type Message struct {
	ID      string
	Topic   string
	Key     string
	Payload []byte
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes events to the log; the default when no broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	log.WithFields(log.Fields{
		"event_id": msg.ID,
		"topic":    msg.Topic,
		"key":      msg.Key,
	}).Info(string(msg.Payload))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
