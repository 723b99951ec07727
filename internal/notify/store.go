// Package notify holds the client-side notification state: the
// in-memory store merged from push and pull deliveries, the
// read-state reconciler, and the display adapter.
package notify

import (
	"sort"
	"sync"

	"github.com/ducpham/marketdesk/internal/model"
)

// entry pairs a record with its arrival sequence, which breaks
// createdAt ties so push order is stable.
type entry struct {
	rec model.Notification
	seq int
}

// Store is the de-duplicated, ordered holder of notifications for the
// signed-in user and the single source of truth for the unread count.
// It performs no network access: all mutation is driven by session
// events, the fallback poller, or the reconciler.
//
// The badge counter and the dropdown list read the same instance, and
// listeners mutate it from the session's dispatch goroutine while the
// UI reads from the Bubble Tea loop, so every method is guarded by a
// mutex.
type Store struct {
	mu      sync.Mutex
	userID  string
	entries []entry
	index   map[string]int
	seq     int
}

// NewStore creates an empty store for the given signed-in user.
func NewStore(userID string) *Store {
	return &Store{
		userID: userID,
		index:  make(map[string]int),
	}
}

// UserID returns the signed-in user this store was built for.
func (s *Store) UserID() string { return s.userID }

// Ingest upserts one record by id. Re-ingesting an id replaces the
// record's fields, except that the signed-in user's read state never
// regresses: once read locally, a stale unread copy from the server
// cannot flip it back.
func (s *Store) Ingest(rec model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestLocked(rec)
}

// IngestBatch upserts a batch in order, as one mutation.
func (s *Store) IngestBatch(recs []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.ingestLocked(rec)
	}
}

func (s *Store) ingestLocked(rec model.Notification) {
	if rec.ID == "" {
		return
	}
	// Detach from the caller's slices and payload map so later caller
	// mutation cannot reach past the mutex.
	rec = rec.Clone()

	if i, ok := s.index[rec.ID]; ok {
		old := s.entries[i].rec
		// Monotonic read floor for the signed-in user.
		if old.ReadByUser(s.userID) && !rec.ReadByUser(s.userID) {
			rec.ReadBy = append(rec.ReadBy, s.userID)
		}
		s.entries[i].rec = rec
		if !old.CreatedAt.Equal(rec.CreatedAt) {
			s.resortLocked()
		}
		return
	}

	s.seq++
	e := entry{rec: rec, seq: s.seq}

	// Insertion point under createdAt-descending order; equal
	// timestamps keep arrival order, so the new record goes after
	// existing ties.
	pos := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].rec.CreatedAt.Before(e.rec.CreatedAt)
	})

	s.entries = append(s.entries, entry{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = e
	for i := pos; i < len(s.entries); i++ {
		s.index[s.entries[i].rec.ID] = i
	}
}

func (s *Store) resortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq < b.seq
	})
	for i := range s.entries {
		s.index[s.entries[i].rec.ID] = i
	}
}

// List returns the first limit records in store order (newest first),
// or all records when limit <= 0. Records are cloned on the way out:
// callers can mutate them freely.
func (s *Store) List(limit int) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Notification, n)
	for i := 0; i < n; i++ {
		out[i] = s.entries[i].rec.Clone()
	}
	return out
}

// Get returns the record with the given id, if present.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[id]; ok {
		return s.entries[i].rec.Clone(), true
	}
	return model.Notification{}, false
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// UnreadCount counts records the signed-in user has not acknowledged.
// Always recomputed from the records; never an independent counter
// that can drift.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, e := range s.entries {
		if !e.rec.ReadByUser(s.userID) {
			count++
		}
	}
	return count
}

// MarkReadLocal adds the signed-in user to the record's ReadBy set.
// Returns false when the id is unknown or the record was already read.
func (s *Store) MarkReadLocal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	if s.entries[i].rec.ReadByUser(s.userID) {
		return false
	}
	s.entries[i].rec.ReadBy = append(s.entries[i].rec.ReadBy, s.userID)
	return true
}

// MarkAllReadLocal marks every unread record as read in one mutation,
// so readers never observe a partial mix of states. Returns the ids
// that changed.
func (s *Store) MarkAllReadLocal() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for i := range s.entries {
		if !s.entries[i].rec.ReadByUser(s.userID) {
			s.entries[i].rec.ReadBy = append(s.entries[i].rec.ReadBy, s.userID)
			changed = append(changed, s.entries[i].rec.ID)
		}
	}
	return changed
}
