package nowplaying

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/spotify"
)

func TestInterpret(t *testing.T) {
	track := &spotify.CurrentlyPlaying{
		IsPlaying: true,
		Item: &spotify.Item{
			Name:    "Song",
			Artists: []spotify.Artist{{Name: "A"}, {Name: "B"}},
		},
	}

	tests := []struct {
		name  string
		resp  *spotify.CurrentlyPlaying
		err   error
		state State
		label string
	}{
		{name: "no content", state: StateNotPlaying, label: "Not Playing"},
		{name: "no item", resp: &spotify.CurrentlyPlaying{}, state: StateNotPlaying, label: "Not Playing"},
		{name: "track", resp: track, state: StateConnected, label: "Song — A, B"},
		{
			name:  "unauthorized",
			err:   &clients.Error{Kind: clients.KindAuthorization, StatusCode: http.StatusUnauthorized},
			state: StateReauthRequired,
			label: "Re-auth needed",
		},
		{name: "no token", err: clients.ConfigurationAbsent("op", "token"), state: StateNotConnected, label: "Not Connected"},
		{name: "network", err: clients.Transient("op", errors.New("reset")), state: StateTransientError, label: "Error"},
		{name: "parse", err: clients.Malformed("op", errors.New("bad json")), state: StateTransientError, label: "Error"},
		{name: "timeout", err: context.DeadlineExceeded, state: StateTransientError, label: "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.resp, tt.err)
			if got.State != tt.state {
				t.Fatalf("expected state %s, got %s", tt.state, got.State)
			}
			if got.Label() != tt.label {
				t.Fatalf("expected label %q, got %q", tt.label, got.Label())
			}
		})
	}
}

func TestLabelTrackWithoutArtists(t *testing.T) {
	s := Status{State: StateConnected, Track: &Track{Name: "Solo"}}
	if got := s.Label(); got != "Solo — " {
		t.Fatalf("unexpected label %q", got)
	}
}
