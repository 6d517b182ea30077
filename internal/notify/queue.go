package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/studentrecords/apiserver/internal/mq"
)

// QueueSender publishes rendered messages for the mailer worker.
type QueueSender struct {
	backend mq.Backend
	queue   string
}

func NewQueueSender(backend mq.Backend, queue string) *QueueSender {
	return &QueueSender{backend: backend, queue: queue}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if _, err := s.backend.Publish(ctx, s.queue, data, map[string]string{"kind": msg.Kind}); err != nil {
		return fmt.Errorf("publish to %s: %w", s.queue, err)
	}
	return nil
}

// Worker drains the mail queue into a Sender.
type Worker struct {
	backend mq.Backend
	queue   string
	sender  Sender
	lg      zerolog.Logger
}

func NewWorker(backend mq.Backend, queue string, sender Sender, lg zerolog.Logger) *Worker {
	return &Worker{
		backend: backend,
		queue:   queue,
		sender:  sender,
		lg:      lg.With().Str("component", "mail_worker").Str("queue", queue).Logger(),
	}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	w.lg.Info().Msg("mail worker started")
	err := w.backend.Subscribe(ctx, w.queue, w.handle)
	if ctx.Err() != nil {
		w.lg.Info().Msg("mail worker stopped")
		return nil
	}
	return err
}

func (w *Worker) handle(ctx context.Context, m mq.Message) error {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		// Redelivery cannot fix a malformed payload; drop it.
		w.lg.Error().Err(err).Str("message_id", m.ID).Msg("discarding undecodable message")
		return nil
	}
	if msg.To == "" {
		w.lg.Error().Str("message_id", m.ID).Msg("discarding message without recipient")
		return nil
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		w.lg.Warn().Err(err).Str("message_id", m.ID).Str("kind", msg.Kind).Msg("delivery failed, requeueing")
		return err
	}
	w.lg.Debug().Str("message_id", m.ID).Str("kind", msg.Kind).Msg("message delivered")
	return nil
}
