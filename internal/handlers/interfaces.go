package handlers

import (
	"context"

	"github.com/ordinaryYT/jacweb1/internal/dashboard"
	"github.com/ordinaryYT/jacweb1/internal/leaderboard"
	"github.com/ordinaryYT/jacweb1/internal/links"
)

// Dashboard is the read surface the handlers serve from.
type Dashboard interface {
	Reload(ctx context.Context)
	Snapshot() dashboard.Snapshot
	RefreshBits(ctx context.Context, count int, period string) ([]leaderboard.Row, error)
}

// LinkLister lists the operator's social links.
type LinkLister interface {
	List(ctx context.Context) ([]links.Link, error)
}
