package eventhandler

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// Journal writes every event as one JSON envelope per line.
type Journal struct {
	mu  sync.Mutex
	enc *json.Encoder
	n   int
}

// NewJournal creates a journal writing to w.
func NewJournal(w io.Writer) *Journal {
	return &Journal{enc: json.NewEncoder(w)}
}

// Attach subscribes the journal to every event on bus.
func (j *Journal) Attach(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(j.Handle)
}

// Handle implements shared.EventHandler.
func (j *Journal) Handle(event shared.Event) error {
	env, err := shared.NewEventEnvelope(event)
	if err != nil {
		return fmt.Errorf("journal: encode %s: %w", event.EventType(), err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(env); err != nil {
		return fmt.Errorf("journal: write %s: %w", event.EventType(), err)
	}
	j.n++
	return nil
}

// Written returns the number of envelopes written.
func (j *Journal) Written() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.n
}
