package leaderboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

var testCreds = helix.Credentials{ClientID: "cid", AccessToken: "tok"}

type staticCreds struct {
	creds helix.Credentials
	err   error
}

func (s staticCreds) Twitch(context.Context) (helix.Credentials, error) { return s.creds, s.err }

type fakeService struct {
	entries  []helix.BitsEntry
	users    map[string]helix.User
	bitsErr  error
	usersErr error

	gotCount   int
	gotPeriod  string
	lookups    [][]string
	bitsCalled int
}

func (f *fakeService) BitsLeaderboard(_ context.Context, _ helix.Credentials, count int, period string) ([]helix.BitsEntry, error) {
	f.bitsCalled++
	f.gotCount = count
	f.gotPeriod = period
	return f.entries, f.bitsErr
}

func (f *fakeService) Users(_ context.Context, _ helix.Credentials, ids []string) (map[string]helix.User, error) {
	f.lookups = append(f.lookups, append([]string(nil), ids...))
	return f.users, f.usersErr
}

func newEngine(svc Service, creds CredentialSource) *Engine {
	return NewEngine(creds, svc, logging.NewDiscardLogger(), nil)
}

func TestRefreshDeduplicatesLookupAndSharesNames(t *testing.T) {
	svc := &fakeService{
		entries: []helix.BitsEntry{{Rank: 1, UserID: "7", Score: 300}, {Rank: 2, UserID: "7", Score: 200}},
		users:   map[string]helix.User{"7": {ID: "7", DisplayName: "Bob"}},
	}

	rows, err := newEngine(svc, staticCreds{creds: testCreds}).Refresh(context.Background(), 10, "all")
	require.NoError(t, err)

	require.Len(t, svc.lookups, 1)
	assert.Equal(t, []string{"7"}, svc.lookups[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0].DisplayName)
	assert.Equal(t, "Bob", rows[1].DisplayName)
}

func TestRefreshPreservesSourceOrder(t *testing.T) {
	svc := &fakeService{
		entries: []helix.BitsEntry{
			{Rank: 2, UserID: "b", Score: 10},
			{Rank: 1, UserID: "a", Score: 5},
		},
		users: map[string]helix.User{},
	}

	rows, err := newEngine(svc, staticCreds{creds: testCreds}).Refresh(context.Background(), 2, "week")
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{Rank: 2, SubjectID: "b", DisplayName: "b", Score: 10},
		{Rank: 1, SubjectID: "a", DisplayName: "a", Score: 5},
	}, rows)
}

func TestRefreshSkipsLookupForEmptyPage(t *testing.T) {
	svc := &fakeService{}
	rows, err := newEngine(svc, staticCreds{creds: testCreds}).Refresh(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, svc.lookups)
	assert.Equal(t, "all", svc.gotPeriod)
}

func TestRefreshClampsCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1}, {-3, 1}, {1, 1}, {7, 7}, {10, 10}, {25, 10},
	}
	for _, tt := range tests {
		svc := &fakeService{}
		_, err := newEngine(svc, staticCreds{creds: testCreds}).Refresh(context.Background(), tt.in, "day")
		require.NoError(t, err)
		assert.Equal(t, tt.want, svc.gotCount, "count %d", tt.in)
	}
}

func TestRefreshRejectsUnknownPeriod(t *testing.T) {
	svc := &fakeService{}
	_, err := newEngine(svc, staticCreds{creds: testCreds}).Refresh(context.Background(), 10, "decade")
	require.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Zero(t, svc.bitsCalled)
}

func TestRefreshRequiresCredentials(t *testing.T) {
	svc := &fakeService{}
	_, err := newEngine(svc, staticCreds{creds: helix.Credentials{ClientID: "cid"}}).Refresh(context.Background(), 10, "all")
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, svc.bitsCalled)

	_, err = newEngine(svc, staticCreds{err: errors.New("disk gone")}).Refresh(context.Background(), 10, "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestRefreshLookupFailureAbortsWithoutPartialRows(t *testing.T) {
	svc := &fakeService{
		entries:  []helix.BitsEntry{{Rank: 1, UserID: "1"}},
		usersErr: &clients.Error{Kind: clients.KindAuthorization, StatusCode: http.StatusUnauthorized, Body: "Invalid OAuth token"},
	}
	rows, err := newEngine(svc, staticCreds{creds: testCreds}).Refresh(context.Background(), 10, "all")
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid OAuth token")
}

func TestResolveDisplayNamePriority(t *testing.T) {
	users := map[string]helix.User{
		"1": {ID: "1", DisplayName: "Display", Login: "login"},
		"2": {ID: "2", Login: "login2"},
	}
	tests := []struct {
		name  string
		entry helix.BitsEntry
		want  string
	}{
		{"display name wins", helix.BitsEntry{UserID: "1", UserName: "Page"}, "Display"},
		{"login next", helix.BitsEntry{UserID: "2", UserName: "Page"}, "login2"},
		{"page name when lookup missed", helix.BitsEntry{UserID: "3", UserName: "Page", UserLogin: "pagelogin"}, "Page"},
		{"page login", helix.BitsEntry{UserID: "3", UserLogin: "pagelogin"}, "pagelogin"},
		{"raw id last", helix.BitsEntry{UserID: "3"}, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDisplayName(users, tt.entry))
		})
	}
	assert.Equal(t, "Page", ResolveDisplayName(nil, helix.BitsEntry{UserID: "9", UserName: "Page"}))
}

func TestDistinctIDs(t *testing.T) {
	ids := DistinctIDs([]helix.BitsEntry{{UserID: "a"}, {UserID: ""}, {UserID: "b"}, {UserID: "a"}})
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRefreshAgainstHelix(t *testing.T) {
	var userCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bits/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"data":[
			{"rank":1,"user_id":"7","user_name":"bobby","score":900},
			{"rank":2,"user_id":"7","user_name":"bobby","score":800},
			{"rank":3,"user_id":"8","user_login":"carol","score":10}]}`))
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		userCalls.Add(1)
		assert.ElementsMatch(t, []string{"7", "8"}, r.URL.Query()["id"])
		_, _ = w.Write([]byte(`{"data":[{"id":"7","login":"bob","display_name":"Bob"}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gateway := helix.NewClient(helix.Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Executor:   clients.HTTPExecutorConfig{BaseDelay: time.Millisecond},
		Logger:     logging.NewDiscardLogger(),
	})
	rows, err := newEngine(gateway, staticCreds{creds: testCreds}).Refresh(context.Background(), 3, "month")
	require.NoError(t, err)

	assert.Equal(t, int32(1), userCalls.Load())
	require.Len(t, rows, 3)
	assert.Equal(t, "Bob", rows[0].DisplayName)
	assert.Equal(t, "Bob", rows[1].DisplayName)
	assert.Equal(t, "carol", rows[2].DisplayName)
}
