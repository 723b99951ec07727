package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducpham/marketdesk/internal/archive"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/tests/testutil"
)

const testUser = "admin_1"

func notif(id string, kind model.NotificationKind, age time.Duration, read bool) model.Notification {
	n := model.Notification{
		ID:        id,
		Kind:      kind,
		Title:     "title " + id,
		Message:   "message " + id,
		Payload:   map[string]any{"orderId": "ord_1"},
		CreatedAt: time.Now().Add(-age).UTC().Truncate(time.Second),
	}
	if read {
		n.ReadBy = []string{testUser}
	}
	return n
}

func TestRecordAndList(t *testing.T) {
	a := testutil.NewTestArchive(t, testUser)
	ctx := context.Background()

	recs := []model.Notification{
		notif("ntf_1", model.KindNewOrder, 3*time.Hour, false),
		notif("ntf_2", model.KindPaymentRequest, time.Hour, true),
	}
	require.NoError(t, a.Record(ctx, recs))

	out, err := a.List(ctx, archive.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Newest first.
	assert.Equal(t, "ntf_2", out[0].ID)
	assert.Equal(t, "ntf_1", out[1].ID)

	assert.True(t, out[0].ReadByUser(testUser))
	assert.False(t, out[1].ReadByUser(testUser))
	assert.Equal(t, "ord_1", out[1].Payload["orderId"])
}

func TestRecordIsIdempotentOnID(t *testing.T) {
	a := testutil.NewTestArchive(t, testUser)
	ctx := context.Background()

	n := notif("ntf_1", model.KindNewOrder, time.Hour, false)
	require.NoError(t, a.Record(ctx, []model.Notification{n}))
	require.NoError(t, a.Record(ctx, []model.Notification{n}))

	count, err := a.Count(ctx, archive.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReArchivingStaleUnreadCopyKeepsRead(t *testing.T) {
	a := testutil.NewTestArchive(t, testUser)
	ctx := context.Background()

	read := notif("ntf_1", model.KindTicketMessage, time.Hour, true)
	require.NoError(t, a.Record(ctx, []model.Notification{read}))

	// A stale copy from the fallback poll, not yet acknowledged
	// server-side.
	stale := notif("ntf_1", model.KindTicketMessage, time.Hour, false)
	stale.Title = "updated title"
	require.NoError(t, a.Record(ctx, []model.Notification{stale}))

	out, err := a.List(ctx, archive.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].ReadByUser(testUser))
	assert.Equal(t, "updated title", out[0].Title)
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	a := testutil.NewTestArchive(t, testUser)
	ctx := context.Background()

	require.NoError(t, a.Record(ctx, []model.Notification{
		notif("ntf_1", model.KindNewOrder, 2*time.Hour, false),
		notif("ntf_2", model.KindWithdrawRequest, time.Hour, false),
	}))

	require.NoError(t, a.MarkRead(ctx, "ntf_2"))
	out, err := a.List(ctx, archive.Filter{})
	require.NoError(t, err)
	assert.True(t, out[0].ReadByUser(testUser))
	assert.False(t, out[1].ReadByUser(testUser))

	require.NoError(t, a.MarkAllRead(ctx))
	out, err = a.List(ctx, archive.Filter{})
	require.NoError(t, err)
	for _, n := range out {
		assert.True(t, n.ReadByUser(testUser))
	}
}

func TestListFilterByKindAndPaging(t *testing.T) {
	a := testutil.NewTestArchive(t, testUser)
	ctx := context.Background()

	require.NoError(t, a.Record(ctx, []model.Notification{
		notif("ntf_1", model.KindNewOrder, 4*time.Hour, false),
		notif("ntf_2", model.KindNewOrder, 3*time.Hour, false),
		notif("ntf_3", model.KindPaymentRequest, 2*time.Hour, false),
		notif("ntf_4", model.KindNewOrder, time.Hour, false),
	}))

	kind := model.KindNewOrder
	out, err := a.List(ctx, archive.Filter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "ntf_4", out[0].ID)

	page, err := a.List(ctx, archive.Filter{Kind: &kind, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "ntf_2", page[0].ID)
	assert.Equal(t, "ntf_1", page[1].ID)

	count, err := a.Count(ctx, archive.Filter{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestOpenIsRerunnable(t *testing.T) {
	dbPath := t.TempDir() + "/archive.db"

	a, err := archive.Open(dbPath, testUser)
	require.NoError(t, err)
	require.NoError(t, a.Record(context.Background(), []model.Notification{
		notif("ntf_1", model.KindNewOrder, time.Hour, false),
	}))
	require.NoError(t, a.Close())

	// Reopening applies no migrations twice and keeps data.
	a, err = archive.Open(dbPath, testUser)
	require.NoError(t, err)
	defer a.Close()

	count, err := a.Count(context.Background(), archive.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
