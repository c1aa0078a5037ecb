package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b, Nop{}}

	m.Publish(context.Background(), NewEvent(EventFilingCreated, map[string]int{"trade_id": 9}))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, EventFilingCreated, b.events[0].Event)
	assert.False(t, b.events[0].OccurredAt.IsZero())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "ddjj.filing.backfilled", Subject(EventFilingBackfilled))
}

func TestNilNATSPublisherIsSafe(t *testing.T) {
	var p *NATSPublisher
	p.Publish(context.Background(), NewEvent(EventFilingCreated, nil))
	p.Close()
}
