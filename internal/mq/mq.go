// Package mq carries queued notifications over RabbitMQ or Google Cloud Pub/Sub.
package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/studentrecords/apiserver/config"
)

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error nacks it for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Backend is the broker surface used by the notifier and the mailer worker.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// ErrChannelRequired is returned when publishing or subscribing without a channel name.
var ErrChannelRequired = errors.New("mq channel is required")

// Open builds the backend selected by the mail transport.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch strings.ToLower(cfg.Mail.Transport) {
	case config.MailTransportRabbitMQ:
		return NewRabbitMQClient(cfg.RabbitMQ)
	case config.MailTransportPubSub:
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("mail transport %q has no message queue", cfg.Mail.Transport)
	}
}
