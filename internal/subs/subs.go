// Package subs is the gifted-subscriptions leaderboard: entry shape, merge
// rules, ordering, and the dual-path store wiring.
package subs

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrNegativeGifts = errors.New("gifts must be zero or more")
)

// SubEntry is one gifter. Username is the identity key, compared without
// regard to case.
type SubEntry struct {
	Username string `json:"username"`
	Gifts    int    `json:"gifts"`
}

// UnmarshalJSON also accepts the older {"user": ...} shape.
func (e *SubEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username string `json:"username"`
		User     string `json:"user"`
		Gifts    int    `json:"gifts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Username = raw.Username
	if e.Username == "" {
		e.Username = raw.User
	}
	e.Gifts = raw.Gifts
	return nil
}

// Trimmed returns e with the surrounding whitespace cut from the username.
func (e SubEntry) Trimmed() SubEntry {
	e.Username = strings.TrimSpace(e.Username)
	return e
}

// Validate checks an entry supplied by the operator.
func (e SubEntry) Validate() error {
	if strings.TrimSpace(e.Username) == "" {
		return ErrEmptyUsername
	}
	if e.Gifts < 0 {
		return ErrNegativeGifts
	}
	return nil
}

// SameUser reports whether a and b name the same gifter.
func SameUser(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Merge folds entry into existing. A case-insensitive username match has its
// gift count replaced and keeps its stored username unless that was empty;
// otherwise entry is appended. existing is not modified.
func Merge(existing []SubEntry, entry SubEntry) []SubEntry {
	out := make([]SubEntry, len(existing), len(existing)+1)
	copy(out, existing)
	for i := range out {
		if SameUser(out[i].Username, entry.Username) {
			out[i].Gifts = entry.Gifts
			if out[i].Username == "" {
				out[i].Username = entry.Username
			}
			return out
		}
	}
	return append(out, entry)
}

// Sorted returns entries by gifts descending. Ties keep store order.
func Sorted(entries []SubEntry) []SubEntry {
	out := make([]SubEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Gifts > out[j].Gifts
	})
	return out
}

// Row is a display row with its 1-based position.
type Row struct {
	Position int    `json:"position"`
	Username string `json:"username"`
	Gifts    int    `json:"gifts"`
}

// Rows sorts entries and numbers them for display.
func Rows(entries []SubEntry) []Row {
	sorted := Sorted(entries)
	rows := make([]Row, len(sorted))
	for i, e := range sorted {
		rows[i] = Row{Position: i + 1, Username: e.Username, Gifts: e.Gifts}
	}
	return rows
}
