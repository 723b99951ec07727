package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
)

type fakeFetcher struct {
	notifications []model.Notification
	count         int
	listErr       error
	countErr      error

	listCalls int
}

func (f *fakeFetcher) ListNotifications(context.Context) ([]model.Notification, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.notifications, nil
}

func (f *fakeFetcher) UnreadNotificationCount(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func runCmdResult(t *testing.T, p *Poller) ResultMsg {
	t.Helper()
	cmd := p.WaitForNextResult()
	done := make(chan ResultMsg, 1)
	go func() {
		if msg, ok := cmd().(ResultMsg); ok {
			done <- msg
		}
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll result")
		return ResultMsg{}
	}
}

func TestFetchedBatchLandsInStore(t *testing.T) {
	fetcher := &fakeFetcher{
		notifications: []model.Notification{
			{ID: "ntf_1", Kind: model.KindNewOrder, CreatedAt: time.Now()},
			{ID: "ntf_2", Kind: model.KindPaymentRequest, CreatedAt: time.Now()},
		},
		count: 2,
	}
	store := notify.NewStore("admin_1")
	p := New(fetcher, store, time.Hour)
	defer p.Stop()

	cmd := p.Start()
	require.NotNil(t, cmd)

	msg, ok := cmd().(ResultMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)

	assert.Equal(t, 2, msg.Ingested)
	assert.Equal(t, 2, msg.ServerCount)
	assert.Equal(t, 2, store.Len())
	_, found := store.Get("ntf_1")
	assert.True(t, found)
}

func TestListFailureReportsErrorWithoutIngesting(t *testing.T) {
	fetcher := &fakeFetcher{listErr: errors.New("backend down")}
	store := notify.NewStore("admin_1")
	p := New(fetcher, store, time.Hour)
	defer p.Stop()

	msg, ok := p.Start()().(ResultMsg)
	require.True(t, ok)

	assert.Error(t, msg.Err)
	assert.Zero(t, msg.Ingested)
	assert.Zero(t, store.Len())
}

func TestCountFailureStillIngestsBatch(t *testing.T) {
	fetcher := &fakeFetcher{
		notifications: []model.Notification{
			{ID: "ntf_1", CreatedAt: time.Now()},
		},
		countErr: errors.New("count endpoint down"),
	}
	store := notify.NewStore("admin_1")
	p := New(fetcher, store, time.Hour)
	defer p.Stop()

	msg, ok := p.Start()().(ResultMsg)
	require.True(t, ok)

	assert.Error(t, msg.Err)
	assert.Equal(t, 1, msg.Ingested)
	assert.Equal(t, 1, store.Len())
}

func TestPauseSkipsFetches(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := notify.NewStore("admin_1")
	p := New(fetcher, store, time.Hour)
	defer p.Stop()

	p.Pause()
	p.Start()
	p.Trigger()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fetcher.listCalls)
}

func TestResumeTriggersImmediateFetch(t *testing.T) {
	fetcher := &fakeFetcher{count: 3}
	store := notify.NewStore("admin_1")
	p := New(fetcher, store, time.Hour)
	defer p.Stop()

	p.Pause()
	p.Start()
	p.Resume()

	msg := runCmdResult(t, p)
	require.NoError(t, msg.Err)
	assert.Equal(t, 3, msg.ServerCount)
	assert.GreaterOrEqual(t, fetcher.listCalls, 1)
}

func TestStartTwiceIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := notify.NewStore("admin_1")
	p := New(fetcher, store, time.Hour)
	defer p.Stop()

	require.NotNil(t, p.Start())
	assert.Nil(t, p.Start())
}
