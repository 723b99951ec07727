package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducpham/marketdesk/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, zap.NewNop())
	c.SetIdentity("admin_1", "test-token")
	return c
}

func TestRequestCarriesAuthHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]model.Notification{})
	})

	_, err := c.ListNotifications(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestUnauthorizedBecomesAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{Message: "token expired"})
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "token expired")
}

func TestRateLimitRetriesWithRetryAfter(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(model.UnreadCount{Count: 4})
	})

	count, err := c.UnreadNotificationCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 2, attempts)
}

func TestRateLimitRespectsContextCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListNotifications(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServerErrorIncludesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(ErrorResponse{
			Message: "validation failed",
			Errors:  []string{"status: invalid transition"},
		})
	})

	err := c.UpdateOrderStatus(context.Background(), "ord_1", model.OrderStatusShipping)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "invalid transition")
}

func TestLoginInstallsIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops@market.example.com", body["email"])

		json.NewEncoder(w).Encode(model.LoginResponse{
			Token: "fresh-token",
			User:  model.AdminUser{ID: "admin_9", Role: model.RoleSupport},
		})
	})
	c.SetIdentity("", "")

	resp, err := c.Login(context.Background(), "ops@market.example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", resp.Token)
	assert.Equal(t, "admin_9", c.UserID())
}

func TestMarkReadRoutes(t *testing.T) {
	var paths []string
	var bodies []map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MarkNotificationRead(context.Background(), "ntf_42"))
	require.NoError(t, c.MarkAllNotificationsRead(context.Background()))

	require.Equal(t, []string{
		"/notifications/ntf_42/read",
		"/notifications/mark-all-read",
	}, paths)
	assert.Equal(t, "admin_1", bodies[0]["userId"])
	assert.Equal(t, "admin_1", bodies[1]["userId"])
}

func TestListNotificationsScopedToUser(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode([]model.Notification{
			{ID: "ntf_1", Kind: model.KindNewOrder},
		})
	})

	out, err := c.ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "userId=admin_1", query)
}
