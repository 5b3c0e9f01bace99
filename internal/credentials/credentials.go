// Package credentials reads and writes the saved Spotify token and Twitch
// credential pair. Values are stored in plain text in the local store.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ordinaryYT/jacweb1/internal/localstore"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
)

const (
	KeySpotifyToken      = "spotify_access_token"
	KeyTwitchClientID    = "twitch_client_id"
	KeyTwitchAccessToken = "twitch_access_token"
)

var (
	// ErrEmptyToken is returned when saving a blank Spotify token.
	ErrEmptyToken = errors.New("spotify access token is required")
	// ErrIncompleteTwitch is returned when either half of the Twitch pair is blank.
	ErrIncompleteTwitch = errors.New("both twitch client id and access token are required")
)

// Store wraps a local store with credential-shaped accessors.
type Store struct {
	local localstore.Store
}

// New creates a credential store over local.
func New(local localstore.Store) *Store {
	return &Store{local: local}
}

// SpotifyToken returns the saved token, or "" if none.
func (s *Store) SpotifyToken(ctx context.Context) (string, error) {
	v, _, err := s.local.Get(ctx, KeySpotifyToken)
	if err != nil {
		return "", fmt.Errorf("read spotify token: %w", err)
	}
	return strings.TrimSpace(v), nil
}

// SaveSpotifyToken replaces the saved token.
func (s *Store) SaveSpotifyToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.local.Set(ctx, KeySpotifyToken, token); err != nil {
		return fmt.Errorf("save spotify token: %w", err)
	}
	return nil
}

// ClearSpotifyToken forgets the saved token.
func (s *Store) ClearSpotifyToken(ctx context.Context) error {
	return s.local.Remove(ctx, KeySpotifyToken)
}

// Twitch returns the saved credential pair. Missing halves are "".
func (s *Store) Twitch(ctx context.Context) (helix.Credentials, error) {
	id, _, err := s.local.Get(ctx, KeyTwitchClientID)
	if err != nil {
		return helix.Credentials{}, fmt.Errorf("read twitch client id: %w", err)
	}
	tok, _, err := s.local.Get(ctx, KeyTwitchAccessToken)
	if err != nil {
		return helix.Credentials{}, fmt.Errorf("read twitch access token: %w", err)
	}
	return helix.Credentials{ClientID: strings.TrimSpace(id), AccessToken: strings.TrimSpace(tok)}, nil
}

// SaveTwitch overwrites both halves of the pair. Nothing is written unless
// both are present.
func (s *Store) SaveTwitch(ctx context.Context, creds helix.Credentials) error {
	creds.ClientID = strings.TrimSpace(creds.ClientID)
	creds.AccessToken = strings.TrimSpace(creds.AccessToken)
	if !creds.Complete() {
		return ErrIncompleteTwitch
	}
	if err := s.local.Set(ctx, KeyTwitchClientID, creds.ClientID); err != nil {
		return fmt.Errorf("save twitch client id: %w", err)
	}
	if err := s.local.Set(ctx, KeyTwitchAccessToken, creds.AccessToken); err != nil {
		return fmt.Errorf("save twitch access token: %w", err)
	}
	return nil
}

// ClearTwitch forgets both halves of the pair.
func (s *Store) ClearTwitch(ctx context.Context) error {
	if err := s.local.Remove(ctx, KeyTwitchClientID); err != nil {
		return err
	}
	return s.local.Remove(ctx, KeyTwitchAccessToken)
}

// Mask hides all but the last four characters of a secret for display.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
