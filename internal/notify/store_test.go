package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducpham/marketdesk/internal/model"
)

const testUser = "admin_1"

func notif(id string, createdAt time.Time, readBy ...string) model.Notification {
	return model.Notification{
		ID:        id,
		Kind:      model.KindNewOrder,
		Title:     "New order",
		Message:   "Order placed",
		ReadBy:    readBy,
		CreatedAt: createdAt,
	}
}

func TestStoreDedupesByID(t *testing.T) {
	s := NewStore(testUser)
	now := time.Now()

	s.Ingest(notif("n1", now))
	s.Ingest(notif("n1", now))
	s.IngestBatch([]model.Notification{
		notif("n1", now),
		notif("n2", now.Add(-time.Minute)),
		notif("n2", now.Add(-time.Minute)),
	})

	assert.Equal(t, 2, s.Len())

	seen := map[string]bool{}
	for _, rec := range s.List(0) {
		require.False(t, seen[rec.ID], "duplicate id %s in store", rec.ID)
		seen[rec.ID] = true
	}
}

func TestStoreOrdersNewestFirst(t *testing.T) {
	s := NewStore(testUser)
	base := time.Now()

	// Ingest out of order.
	s.Ingest(notif("old", base.Add(-2*time.Hour)))
	s.Ingest(notif("newest", base))
	s.Ingest(notif("middle", base.Add(-time.Hour)))

	got := s.List(0)
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].ID)
	assert.Equal(t, "middle", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestStoreTiesKeepArrivalOrder(t *testing.T) {
	s := NewStore(testUser)
	at := time.Now()

	s.Ingest(notif("first", at))
	s.Ingest(notif("second", at))
	s.Ingest(notif("third", at))

	got := s.List(0)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestStoreListLimit(t *testing.T) {
	s := NewStore(testUser)
	base := time.Now()
	for i := 0; i < 10; i++ {
		s.Ingest(notif(fmt.Sprintf("n%d", i), base.Add(-time.Duration(i)*time.Minute)))
	}

	assert.Len(t, s.List(3), 3)
	assert.Len(t, s.List(0), 10)
	assert.Len(t, s.List(25), 10)
	assert.Equal(t, "n0", s.List(3)[0].ID)
}

func TestStoreMonotonicReadFloor(t *testing.T) {
	s := NewStore(testUser)
	at := time.Now()

	s.Ingest(notif("n1", at))
	require.True(t, s.MarkReadLocal("n1"))

	// A stale server copy re-delivers the record as unread.
	s.Ingest(notif("n1", at))

	rec, ok := s.Get("n1")
	require.True(t, ok)
	assert.True(t, rec.ReadByUser(testUser), "local read state must never regress")
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStoreReingestReplacesFields(t *testing.T) {
	s := NewStore(testUser)
	at := time.Now()

	s.Ingest(notif("n1", at))
	updated := notif("n1", at)
	updated.Title = "Order updated"
	s.Ingest(updated)

	rec, ok := s.Get("n1")
	require.True(t, ok)
	assert.Equal(t, "Order updated", rec.Title)
	assert.Equal(t, 1, s.Len())
}

func TestUnreadCountMatchesListFilter(t *testing.T) {
	s := NewStore(testUser)
	base := time.Now()

	s.IngestBatch([]model.Notification{
		notif("a", base),
		notif("b", base.Add(-time.Minute), testUser),
		notif("c", base.Add(-2*time.Minute), "someone_else"),
		notif("d", base.Add(-3*time.Minute), "someone_else", testUser),
	})

	unreadFromList := 0
	for _, rec := range s.List(0) {
		if !rec.ReadByUser(testUser) {
			unreadFromList++
		}
	}
	assert.Equal(t, unreadFromList, s.UnreadCount())
	assert.Equal(t, 2, s.UnreadCount())
}

func TestMarkAllReadLocalIsOneBatch(t *testing.T) {
	s := NewStore(testUser)
	base := time.Now()

	s.IngestBatch([]model.Notification{
		notif("a", base),
		notif("b", base.Add(-time.Minute)),
		notif("c", base.Add(-2*time.Minute), testUser),
	})
	require.Equal(t, 2, s.UnreadCount())

	changed := s.MarkAllReadLocal()
	assert.ElementsMatch(t, []string{"a", "b"}, changed)
	assert.Equal(t, 0, s.UnreadCount())

	// Second call is a no-op.
	assert.Empty(t, s.MarkAllReadLocal())
}

func TestStoreMarkReadUnknownID(t *testing.T) {
	s := NewStore(testUser)
	assert.False(t, s.MarkReadLocal("missing"))
}

func TestStoreReturnsDetachedCopies(t *testing.T) {
	s := NewStore(testUser)
	now := time.Now()

	rec := notif("n1", now, "someone_else")
	rec.Payload = map[string]any{"orderId": "ord_1"}
	s.Ingest(rec)

	// Mutating the ingested record after the fact must not reach the
	// store.
	rec.ReadBy[0] = testUser
	rec.Payload["orderId"] = "ord_evil"

	got, ok := s.Get("n1")
	require.True(t, ok)
	assert.Equal(t, []string{"someone_else"}, got.ReadBy)
	assert.Equal(t, "ord_1", got.Payload["orderId"])

	// Mutating listed records must not reach the store either.
	listed := s.List(0)
	require.Len(t, listed, 1)
	listed[0].ReadBy[0] = testUser
	listed[0].Payload["orderId"] = "ord_other"

	assert.Equal(t, 1, s.UnreadCount())
	fresh, _ := s.Get("n1")
	assert.Equal(t, []string{"someone_else"}, fresh.ReadBy)
	assert.Equal(t, "ord_1", fresh.Payload["orderId"])
}
