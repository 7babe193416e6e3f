package jobs

import (
	"context"
	"sync"

	"flecsd/internal/pubsub"
)

// recordingPubSub is a minimal in-memory PubSub test double that records
// every published payload, without the JSON-over-channel plumbing
// MemoryPubSub does for real subscribers.
type recordingPubSub struct {
	mu        sync.Mutex
	published []interface{}
}

func newRecordingPubSub() *recordingPubSub {
	return &recordingPubSub{}
}

func (p *recordingPubSub) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, payload)
	return nil
}

func (p *recordingPubSub) Subscribe(ctx context.Context, topic string) (<-chan []byte, func()) {
	ch := make(chan []byte)
	return ch, func() { close(ch) }
}

func (p *recordingPubSub) Close() error { return nil }

func (p *recordingPubSub) hasTerminalEvent(jobID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, evt := range p.published {
		if term, ok := evt.(pubsub.JobTerminalEvent); ok && term.JobID == jobID {
			return true
		}
	}
	return false
}

var _ pubsub.PubSub = (*recordingPubSub)(nil)
