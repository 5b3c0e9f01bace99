package helix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

var testCreds = Credentials{ClientID: "cid", AccessToken: "tok"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Executor:   clients.HTTPExecutorConfig{BaseDelay: time.Millisecond},
		Logger:     logging.NewDiscardLogger(),
	})
}

func TestBitsLeaderboardSendsHeadersAndQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bits/leaderboard", r.URL.Path)
		assert.Equal(t, "cid", r.Header.Get("Client-Id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		assert.Equal(t, "week", r.URL.Query().Get("period"))
		_, _ = w.Write([]byte(`{"data":[{"user_id":"1","user_login":"a","user_name":"A","rank":1,"score":500}],"total":1}`))
	})

	entries, err := client.BitsLeaderboard(context.Background(), testCreds, 5, "week")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, BitsEntry{UserID: "1", UserLogin: "a", UserName: "A", Rank: 1, Score: 500}, entries[0])
}

func TestBitsLeaderboardAuthorizationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`))
	})

	_, err := client.BitsLeaderboard(context.Background(), testCreds, 10, "all")
	require.Error(t, err)
	assert.Equal(t, clients.KindAuthorization, clients.KindOf(err))
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid OAuth token")
}

func TestMissingCredentialsSkipNetwork(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.BitsLeaderboard(context.Background(), Credentials{ClientID: "cid"}, 10, "all")
	assert.Equal(t, clients.KindConfigurationAbsent, clients.KindOf(err))
	_, err = client.Users(context.Background(), Credentials{AccessToken: "tok"}, []string{"1"})
	assert.Equal(t, clients.KindConfigurationAbsent, clients.KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestUsersBatchesIDs(t *testing.T) {
	var requests int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "/users", r.URL.Path)
		ids := r.URL.Query()["id"]
		assert.LessOrEqual(t, len(ids), MaxUsersPerRequest)
		var out usersResponse
		for _, id := range ids {
			out.Data = append(out.Data, User{ID: id, Login: "login" + id, DisplayName: "Name" + id})
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	ids := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	users, err := client.Users(context.Background(), testCreds, ids)
	require.NoError(t, err)
	assert.Len(t, users, 150)
	assert.Equal(t, "Name149", users["149"].DisplayName)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestUsersSingleRequestForSmallBatch(t *testing.T) {
	var requests int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, []string{"7", "9"}, r.URL.Query()["id"])
		_, _ = w.Write([]byte(`{"data":[{"id":"7","login":"seven","display_name":""}]}`))
	})

	users, err := client.Users(context.Background(), testCreds, []string{"7", "9"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.Equal(t, "seven", users["7"].Login)
	_, ok := users["9"]
	assert.False(t, ok)
}

func TestMalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := client.BitsLeaderboard(context.Background(), testCreds, 10, "all")
	assert.Equal(t, clients.KindMalformed, clients.KindOf(err))
}
