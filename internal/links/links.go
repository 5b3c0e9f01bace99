// Package links stores the operator-editable social links and link images.
package links

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ordinaryYT/jacweb1/internal/localstore"
)

// Names lists the social links the dashboard knows about, in display order.
var Names = []string{"twitch", "tiktok", "kick", "onlyfans"}

// ImageNames lists the links that carry a custom image.
var ImageNames = []string{"twitch", "tiktok", "kick"}

var (
	ErrUnknownLink = errors.New("unknown link")
	ErrInvalidURL  = errors.New("link must be an absolute http(s) url")
)

// Link is one saved link. Empty fields mean "use the page default".
type Link struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
}

// Store reads and writes links.
type Store struct {
	local localstore.Store
}

func New(local localstore.Store) *Store {
	return &Store{local: local}
}

func linkKey(name string) string  { return "link_" + name }
func imageKey(name string) string { return "img_" + name }

// List returns every known link in display order.
func (s *Store) List(ctx context.Context) ([]Link, error) {
	out := make([]Link, 0, len(Names))
	for _, name := range Names {
		u, _, err := s.local.Get(ctx, linkKey(name))
		if err != nil {
			return nil, fmt.Errorf("read link %s: %w", name, err)
		}
		link := Link{Name: name, URL: u}
		if contains(ImageNames, name) {
			img, _, err := s.local.Get(ctx, imageKey(name))
			if err != nil {
				return nil, fmt.Errorf("read image %s: %w", name, err)
			}
			link.Image = img
		}
		out = append(out, link)
	}
	return out, nil
}

// SetURL saves the target of one link.
func (s *Store) SetURL(ctx context.Context, name, raw string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !contains(Names, name) {
		return fmt.Errorf("%w: %q", ErrUnknownLink, name)
	}
	u, err := validURL(raw)
	if err != nil {
		return err
	}
	return s.local.Set(ctx, linkKey(name), u)
}

// SetImage saves the image shown for one link.
func (s *Store) SetImage(ctx context.Context, name, raw string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !contains(ImageNames, name) {
		return fmt.Errorf("%w: %q has no image", ErrUnknownLink, name)
	}
	u, err := validURL(raw)
	if err != nil {
		return err
	}
	return s.local.Set(ctx, imageKey(name), u)
}

func validURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return raw, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
