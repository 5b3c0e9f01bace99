// Package nowplaying turns the music service's currently-playing endpoint
// into a display status, polled on a fixed interval.
package nowplaying

import (
	"strings"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/spotify"
)

// State tags a Status.
type State string

const (
	StateConnected      State = "connected"
	StateNotPlaying     State = "not_playing"
	StateReauthRequired State = "reauth_required"
	StateNotConnected   State = "not_connected"
	StateTransientError State = "error"
)

// Track is what is playing.
type Track struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// Status is the outcome of one poll. Track is set only for StateConnected.
type Status struct {
	State State  `json:"state"`
	Track *Track `json:"track,omitempty"`
}

// Label renders the status for display.
func (s Status) Label() string {
	switch s.State {
	case StateConnected:
		if s.Track == nil {
			return "Not Playing"
		}
		return s.Track.Name + " — " + strings.Join(s.Track.Artists, ", ")
	case StateNotPlaying:
		return "Not Playing"
	case StateReauthRequired:
		return "Re-auth needed"
	case StateNotConnected:
		return "Not Connected"
	default:
		return "Error"
	}
}

// Interpret maps a gateway result to a Status:
//
//	nil payload, nil error      → NotPlaying (204)
//	authorization error         → ReauthRequired
//	payload without an item     → NotPlaying
//	payload with an item        → Connected
//	missing credential          → NotConnected
//	anything else               → TransientError
func Interpret(resp *spotify.CurrentlyPlaying, err error) Status {
	if err != nil {
		switch clients.KindOf(err) {
		case clients.KindAuthorization:
			return Status{State: StateReauthRequired}
		case clients.KindConfigurationAbsent:
			return Status{State: StateNotConnected}
		default:
			return Status{State: StateTransientError}
		}
	}
	if resp == nil || resp.Item == nil {
		return Status{State: StateNotPlaying}
	}
	artists := make([]string, 0, len(resp.Item.Artists))
	for _, a := range resp.Item.Artists {
		artists = append(artists, a.Name)
	}
	return Status{State: StateConnected, Track: &Track{Name: resp.Item.Name, Artists: artists}}
}
