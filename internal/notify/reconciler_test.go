package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/model"
)

type fakeSession struct {
	connected bool
	marked    []string
}

func (f *fakeSession) Connected() bool { return f.connected }

func (f *fakeSession) MarkRead(id string) { f.marked = append(f.marked, id) }

type fakeAPI struct {
	markedRead []string
	markedAll  int
	err        error
}

func (f *fakeAPI) MarkNotificationRead(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeAPI) MarkAllNotificationsRead(_ context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.markedAll++
	return nil
}

func seedStore(t *testing.T, n int) *Store {
	t.Helper()
	s := NewStore(testUser)
	base := time.Now()
	recs := make([]model.Notification, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, notif(string(rune('a'+i)), base.Add(-time.Duration(i)*time.Minute)))
	}
	s.IngestBatch(recs)
	require.Equal(t, n, s.UnreadCount())
	return s
}

func TestMarkReadIsOptimistic(t *testing.T) {
	store := seedStore(t, 3)
	session := &fakeSession{connected: true}
	r := NewReconciler(store, session, &fakeAPI{}, zap.NewNop())

	// The unread count drops before any server acknowledgment.
	require.NoError(t, r.MarkRead(context.Background(), "a"))
	assert.Equal(t, 2, store.UnreadCount())
	assert.Equal(t, []string{"a"}, session.marked)
}

func TestMarkReadFallsBackToREST(t *testing.T) {
	store := seedStore(t, 2)
	session := &fakeSession{connected: false}
	rest := &fakeAPI{}
	r := NewReconciler(store, session, rest, zap.NewNop())

	require.NoError(t, r.MarkRead(context.Background(), "a"))
	assert.Empty(t, session.marked)
	assert.Equal(t, []string{"a"}, rest.markedRead)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestMarkReadFallbackExhaustedKeepsLocalState(t *testing.T) {
	store := seedStore(t, 1)
	session := &fakeSession{connected: false}
	rest := &fakeAPI{err: errors.New("backend down")}
	r := NewReconciler(store, session, rest, zap.NewNop())

	err := r.MarkRead(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, IsFallbackExhausted(err))

	// The optimistic state is deliberately retained.
	assert.Equal(t, 0, store.UnreadCount())
}

func TestMarkReadUnknownIDIsNoop(t *testing.T) {
	store := seedStore(t, 1)
	session := &fakeSession{connected: true}
	r := NewReconciler(store, session, &fakeAPI{}, zap.NewNop())

	require.NoError(t, r.MarkRead(context.Background(), "missing"))
	assert.Empty(t, session.marked)
}

func TestMarkAllReadSingleRequest(t *testing.T) {
	store := seedStore(t, 5)
	rest := &fakeAPI{}
	r := NewReconciler(store, &fakeSession{connected: true}, rest, zap.NewNop())

	require.NoError(t, r.MarkAllRead(context.Background()))
	assert.Equal(t, 0, store.UnreadCount())
	assert.Equal(t, 1, rest.markedAll)

	// Nothing unread, nothing sent.
	require.NoError(t, r.MarkAllRead(context.Background()))
	assert.Equal(t, 1, rest.markedAll)
}

func TestMarkAllReadFailureKeepsLocalState(t *testing.T) {
	store := seedStore(t, 2)
	rest := &fakeAPI{err: errors.New("backend down")}
	r := NewReconciler(store, &fakeSession{}, rest, zap.NewNop())

	err := r.MarkAllRead(context.Background())
	require.Error(t, err)
	assert.True(t, IsFallbackExhausted(err))
	assert.Equal(t, 0, store.UnreadCount())
}
