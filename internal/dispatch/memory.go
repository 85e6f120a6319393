package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrPublisherClosed is returned when publishing after Close
var ErrPublisherClosed = errors.New("publisher closed")

// Message is a published message held by MemoryPublisher
type Message struct {
	Subject string
	Data    []byte
}

// MemoryPublisher records published messages in memory.
// Used for development without a broker and in tests.
type MemoryPublisher struct {
	mu       sync.RWMutex
	messages []Message
	closed   bool
}

// NewMemoryPublisher creates an empty publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records a copy of data
func (p *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	p.messages = append(p.messages, Message{Subject: subject, Data: dataCopy})
	return nil
}

// Messages returns the messages published so far, in order
func (p *MemoryPublisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Close rejects further publishes
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
