// Package leaderboard joins the bits leaderboard against a batched user
// lookup to produce display-ready rows.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

const (
	MinCount     = 1
	MaxCount     = 10
	DefaultCount = 10
)

var (
	ErrMissingCredentials = errors.New("twitch client id and access token are required")
	ErrInvalidPeriod      = errors.New("invalid leaderboard period")
)

// Period is a leaderboard time window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Periods lists the accepted windows in display order.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// ParsePeriod accepts a window name case-insensitively. Empty means all.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodAll, nil
	}
	for _, p := range Periods {
		if Period(s) == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidPeriod, s)
}

// ClampCount forces count into [MinCount, MaxCount].
func ClampCount(count int) int {
	switch {
	case count < MinCount:
		return MinCount
	case count > MaxCount:
		return MaxCount
	default:
		return count
	}
}

// Row is one display row. Rank is as assigned by the source.
type Row struct {
	Rank        int    `json:"rank"`
	SubjectID   string `json:"subject_id"`
	DisplayName string `json:"display_name"`
	Score       int64  `json:"score"`
}

// CredentialSource yields the saved leaderboard credentials.
type CredentialSource interface {
	Twitch(ctx context.Context) (helix.Credentials, error)
}

// Service is the gateway surface the engine calls.
type Service interface {
	BitsLeaderboard(ctx context.Context, creds helix.Credentials, count int, period string) ([]helix.BitsEntry, error)
	Users(ctx context.Context, creds helix.Credentials, ids []string) (map[string]helix.User, error)
}

// Engine runs leaderboard refreshes. It keeps no state between calls.
type Engine struct {
	creds   CredentialSource
	service Service
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an Engine.
func NewEngine(creds CredentialSource, service Service, logger logging.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Engine{creds: creds, service: service, logger: logger, metrics: m}
}

// Refresh fetches up to count entries for period and resolves their display
// names with a single user lookup. Any gateway failure aborts the refresh;
// the error text carries the upstream status and body.
func (e *Engine) Refresh(ctx context.Context, count int, period string) (rows []Row, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		e.metrics.LeaderboardRefresh(result, time.Since(start))
	}()

	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	count = ClampCount(count)

	creds, err := e.creds.Twitch(ctx)
	if err != nil {
		return nil, fmt.Errorf("read twitch credentials: %w", err)
	}
	if !creds.Complete() {
		return nil, ErrMissingCredentials
	}

	entries, err := e.service.BitsLeaderboard(ctx, creds, count, string(p))
	if err != nil {
		return nil, describe("bits leaderboard", err)
	}

	users := map[string]helix.User{}
	if ids := DistinctIDs(entries); len(ids) > 0 {
		users, err = e.service.Users(ctx, creds, ids)
		if err != nil {
			return nil, describe("user lookup", err)
		}
	}

	rows = make([]Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, Row{
			Rank:        entry.Rank,
			SubjectID:   entry.UserID,
			DisplayName: ResolveDisplayName(users, entry),
			Score:       entry.Score,
		})
	}

	e.logger.WithFields(logging.Fields{
		"period": p,
		"count":  count,
		"rows":   len(rows),
	}).Debug("Refreshed bits leaderboard")
	return rows, nil
}

// DistinctIDs returns the non-empty user ids of entries, each once, in order
// of first appearance.
func DistinctIDs(entries []helix.BitsEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		id := strings.TrimSpace(entry.UserID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ResolveDisplayName picks the best name for entry: looked-up display name,
// looked-up login, the page's user name, the page's login, then the raw id.
func ResolveDisplayName(users map[string]helix.User, entry helix.BitsEntry) string {
	u := users[strings.TrimSpace(entry.UserID)]
	for _, candidate := range []string{u.DisplayName, u.Login, entry.UserName, entry.UserLogin} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return entry.UserID
}

func describe(what string, err error) error {
	switch clients.KindOf(err) {
	case clients.KindConfigurationAbsent:
		return fmt.Errorf("%s: %w", what, ErrMissingCredentials)
	default:
		return fmt.Errorf("%s failed: %w", what, err)
	}
}
