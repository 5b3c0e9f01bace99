// Package profile stores the operator's free-form page text: the About
// content and the manual chat-status line.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ordinaryYT/jacweb1/internal/localstore"
)

const (
	aboutKey      = "about_content_v1"
	statusTextKey = "discord-status"
)

var (
	ErrEmptyAbout      = errors.New("about content must not be empty")
	ErrEmptyStatusText = errors.New("status text must not be empty")
)

// Profile is the saved text. Empty fields mean "use the page default".
type Profile struct {
	About      string `json:"about,omitempty"`
	StatusText string `json:"status_text,omitempty"`
}

type Store struct {
	local localstore.Store
}

func New(local localstore.Store) *Store {
	return &Store{local: local}
}

// Load reads both values. Missing keys are not an error.
func (s *Store) Load(ctx context.Context) (Profile, error) {
	about, _, err := s.local.Get(ctx, aboutKey)
	if err != nil {
		return Profile{}, fmt.Errorf("read about content: %w", err)
	}
	status, _, err := s.local.Get(ctx, statusTextKey)
	if err != nil {
		return Profile{}, fmt.Errorf("read status text: %w", err)
	}
	return Profile{About: about, StatusText: status}, nil
}

// SaveAbout replaces the About content. Markup is stored as given.
func (s *Store) SaveAbout(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyAbout
	}
	return s.local.Set(ctx, aboutKey, content)
}

// ResetAbout drops the saved About content.
func (s *Store) ResetAbout(ctx context.Context) error {
	return s.local.Remove(ctx, aboutKey)
}

// SaveStatusText saves the manual status line, trimmed.
func (s *Store) SaveStatusText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyStatusText
	}
	return s.local.Set(ctx, statusTextKey, text)
}

func (s *Store) ClearStatusText(ctx context.Context) error {
	return s.local.Remove(ctx, statusTextKey)
}
