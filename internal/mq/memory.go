package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// ErrBackendClosed is returned by Publish after Close.
var ErrBackendClosed = errors.New("mq backend closed")

// MemoryBackend is an in-process Backend. Published messages are buffered
// per channel and handed to subscribers in order; nacked messages are
// requeued at the back and retried after the next publish.
type MemoryBackend struct {
	mu     sync.Mutex
	queues map[string][]Message
	notify chan struct{}
	seq    int
	closed bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		queues: make(map[string][]Message),
		notify: make(chan struct{}, 1),
	}
}

func (m *MemoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", ErrChannelRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrBackendClosed
	}
	m.seq++
	id := strconv.Itoa(m.seq)
	m.queues[channel] = append(m.queues[channel], Message{ID: id, Data: data, Attributes: attrs})
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return id, nil
}

func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if channel == "" {
		return ErrChannelRequired
	}

	for {
		msg, ok := m.pop(channel)
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.notify:
				continue
			}
		}
		if err := handler(ctx, msg); err != nil {
			m.mu.Lock()
			m.queues[channel] = append(m.queues[channel], msg)
			m.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.notify:
			}
		}
	}
}

// Pending returns the number of messages waiting on channel.
func (m *MemoryBackend) Pending(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[channel])
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) pop(channel string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.queues[channel]
	if len(queue) == 0 {
		return Message{}, false
	}
	m.queues[channel] = queue[1:]
	return queue[0], true
}
