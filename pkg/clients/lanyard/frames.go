// Package lanyard is the presence relay gateway: frame shapes, decoding, and
// a gorilla/websocket dialer.
package lanyard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
)

// DefaultURL is the public relay socket.
const DefaultURL = "wss://api.lanyard.rest/socket"

// Relay opcodes.
const (
	OpEvent      = 0
	OpHello      = 1
	OpInitialize = 2
	OpHeartbeat  = 3
)

// Event types carrying presence.
const (
	EventInitState      = "INIT_STATE"
	EventPresenceUpdate = "PRESENCE_UPDATE"
)

// ErrSubjectMismatch is returned when a root-form payload names a different
// user than the one subscribed to.
var ErrSubjectMismatch = errors.New("presence payload is for a different subject")

// Frame is one relay message in either direction.
type Frame struct {
	Op  int             `json:"op"`
	Seq *int            `json:"seq,omitempty"`
	T   string          `json:"t,omitempty"`
	D   json.RawMessage `json:"d,omitempty"`
}

// IsPresence reports whether f carries a presence payload.
func (f Frame) IsPresence() bool {
	return f.T == EventInitState || f.T == EventPresenceUpdate
}

// DiscordUser identifies whose presence a payload describes.
type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Presence is the subset of a relay presence payload the dashboard reads.
type Presence struct {
	DiscordStatus string       `json:"discord_status"`
	DiscordUser   *DiscordUser `json:"discord_user,omitempty"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// SubscribeFrame builds the initialize frame subscribing to one user.
func SubscribeFrame(subject string) Frame {
	d, _ := json.Marshal(map[string]string{"subscribe_to_id": subject})
	return Frame{Op: OpInitialize, D: d}
}

// HeartbeatFrame builds a keepalive frame.
func HeartbeatFrame() Frame {
	return Frame{Op: OpHeartbeat}
}

// DecodeFrame parses one inbound text message.
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, clients.Malformed("lanyard decode frame", err)
	}
	return f, nil
}

// HeartbeatInterval extracts the interval announced by a hello frame. Zero
// means the relay asked for no heartbeats.
func HeartbeatInterval(f Frame) (time.Duration, error) {
	if f.Op != OpHello {
		return 0, clients.Malformed("lanyard hello", fmt.Errorf("unexpected op %d", f.Op))
	}
	var h hello
	if len(f.D) > 0 {
		if err := json.Unmarshal(f.D, &h); err != nil {
			return 0, clients.Malformed("lanyard hello", err)
		}
	}
	if h.HeartbeatInterval <= 0 {
		return 0, nil
	}
	return time.Duration(h.HeartbeatInterval) * time.Millisecond, nil
}

// DecodePresence extracts subject's presence from an event payload. The relay
// sends either a map keyed by user id or the presence object itself; the
// keyed entry wins when present.
func DecodePresence(d json.RawMessage, subject string) (Presence, error) {
	const op = "lanyard decode presence"
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(d, &keyed); err != nil {
		return Presence{}, clients.Malformed(op, err)
	}
	if keyed == nil {
		return Presence{}, clients.Malformed(op, errors.New("empty payload"))
	}

	body := json.RawMessage(d)
	entry, keyedForm := keyed[subject]
	if keyedForm {
		body = entry
	}

	var p Presence
	if err := json.Unmarshal(body, &p); err != nil {
		return Presence{}, clients.Malformed(op, err)
	}
	if !keyedForm && p.DiscordUser != nil && p.DiscordUser.ID != "" && p.DiscordUser.ID != subject {
		return Presence{}, clients.Malformed(op, ErrSubjectMismatch)
	}
	p.DiscordStatus = strings.ToLower(strings.TrimSpace(p.DiscordStatus))
	return p, nil
}
