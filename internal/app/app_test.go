package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/api"
	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
	"github.com/ducpham/marketdesk/internal/realtime"
	appsync "github.com/ducpham/marketdesk/internal/sync"
)

// newDashboardApp builds a signed-in root model against a session and
// client that never reach a live server.
func newDashboardApp(t *testing.T) (Model, *notify.Store) {
	t.Helper()
	logger := zap.NewNop()
	client := api.NewClient("http://127.0.0.1:1", logger)
	session := realtime.NewSession("ws://127.0.0.1:1/socket", logger)
	t.Cleanup(session.Close)

	var store *notify.Store
	deps := Deps{
		Config: &model.AppConfig{
			Realtime: model.RealtimeConfig{
				ReconnectInitialSec: 1,
				ReconnectMaxSec:     2,
				FallbackPollSec:     30,
			},
			Display: model.DisplayConfig{PageSize: 20},
		},
		Logger:  logger,
		Keys:    keys.DefaultKeyMap(),
		Client:  client,
		Session: session,
		NewUserStack: func(id model.Identity) (*UserStack, error) {
			store = notify.NewStore(id.UserID)
			return &UserStack{
				Store:      store,
				Reconciler: notify.NewReconciler(store, session, client, logger),
				Poller:     appsync.New(client, store, time.Minute),
			}, nil
		},
		StoredIdentity: &model.Identity{
			UserID: "admin_1", Role: "ADMIN", Credential: "tok",
		},
	}

	m := New(deps)
	require.NotNil(t, store)
	require.Equal(t, stageDashboard, m.stage)
	return m, store
}

func seed(store *notify.Store, n int) {
	base := time.Now()
	recs := make([]model.Notification, n)
	for i := range recs {
		recs[i] = model.Notification{
			ID:        string(rune('a' + i)),
			Kind:      model.KindNewOrder,
			Title:     "New order",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	store.IngestBatch(recs)
}

func TestBadgeFollowsStoreNotStalePushCount(t *testing.T) {
	m, store := newDashboardApp(t)
	seed(store, 3)
	store.MarkAllReadLocal()
	require.Equal(t, 0, store.UnreadCount())

	// A count frame raced with mark-all-read: the server still says 3.
	mm, _ := m.Update(unreadPushMsg{count: 3})
	m = mm.(Model)

	assert.Equal(t, 0, m.unreadCount)
	assert.Equal(t, store.UnreadCount(), m.unreadCount)
}

func TestBadgeRecomputesFromStoreOnPushCount(t *testing.T) {
	m, store := newDashboardApp(t)
	seed(store, 2)

	mm, _ := m.Update(unreadPushMsg{count: 2})
	m = mm.(Model)

	assert.Equal(t, 2, m.unreadCount)
}
