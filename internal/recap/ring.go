package recap

import (
	"sync"
	"time"
)

// Entry is one transcript piece received by the server.
type Entry struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Ring is a bounded FIFO of entries; the oldest entry is evicted when full.
type Ring struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewRing creates a Ring holding at most capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 60
	}
	return &Ring{capacity: capacity, entries: make([]Entry, 0, capacity)}
}

func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == r.capacity {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}
	r.entries = append(r.entries, e)
}

// Since returns entries at or after cutoff, oldest first.
func (r *Ring) Since(cutoff time.Time) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if !e.At.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
