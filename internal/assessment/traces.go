package assessment

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/abhisek/tierlab/internal/records"
)

// traceBuffer holds research traces per user until the user's next graded
// submission. Timestamps are strictly increasing within a user.
type traceBuffer struct {
	mu      sync.Mutex
	pending map[string][]records.Trace
	last    map[string]time.Time
}

func newTraceBuffer() *traceBuffer {
	return &traceBuffer{
		pending: make(map[string][]records.Trace),
		last:    make(map[string]time.Time),
	}
}

// add buffers one trace. details is JSON-encoded.
func (b *traceBuffer) add(userID string, kind records.EventType, details map[string]string, now time.Time) {
	encoded, _ := json.Marshal(details)

	b.mu.Lock()
	defer b.mu.Unlock()

	if last, ok := b.last[userID]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	b.last[userID] = now
	b.pending[userID] = append(b.pending[userID], records.Trace{
		UserID:    userID,
		EventType: kind,
		Details:   string(encoded),
		Timestamp: now,
	})
}

// take removes and returns the user's buffered traces.
func (b *traceBuffer) take(userID string) []records.Trace {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending[userID]
	delete(b.pending, userID)
	return out
}

// pendingCount is the number of traces buffered for userID.
func (b *traceBuffer) pendingCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[userID])
}
