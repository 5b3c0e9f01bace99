// Package handlers serves the dashboard's read-only JSON endpoints.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ordinaryYT/jacweb1/internal/leaderboard"
	"github.com/ordinaryYT/jacweb1/pkg/cache"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
	"github.com/ordinaryYT/jacweb1/pkg/middleware"
)

type Handlers struct {
	dash          Dashboard
	links         LinkLister
	discordUserID string
	logger        logging.Logger
	bits          *cache.Cache[[]leaderboard.Row]
}

func New(dash Dashboard, links LinkLister, discordUserID string, logger logging.Logger) *Handlers {
	return &Handlers{
		dash:          dash,
		links:         links,
		discordUserID: strings.TrimSpace(discordUserID),
		logger:        logger,
	}
}

// WithBitsCache serves repeated /api/bits queries from memory for ttl.
// Failed refreshes are never cached.
func (h *Handlers) WithBitsCache(ttl time.Duration, hooks cache.MetricsHooks) *Handlers {
	if ttl <= 0 {
		h.bits = nil
		return h
	}
	h.bits = cache.New[[]leaderboard.Row](cache.Options{TTL: ttl, MaxEntries: 64}, hooks)
	return h
}

// Register mounts the /api routes.
func (h *Handlers) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/status", h.Status)
	api.GET("/config", h.Config)
	api.GET("/subs", h.Subs)
	api.GET("/bits", h.Bits)
	api.GET("/links", h.Links)
}

// Status re-reads the operator-edited state and returns the full display
// snapshot. The subs read may call the site's /api/subs, which here only
// serves the snapshot, so a self-pointing SITE_URL does not recurse.
func (h *Handlers) Status(c *gin.Context) {
	h.dash.Reload(c.Request.Context())
	c.JSON(http.StatusOK, h.dash.Snapshot())
}

// Config serves the presence subject in the shape the site exposes, so this
// service can stand in for the site's /api/config.
func (h *Handlers) Config(c *gin.Context) {
	var id *string
	if h.discordUserID != "" {
		id = &h.discordUserID
	}
	c.JSON(http.StatusOK, gin.H{"discord_user_id": id})
}

// Subs returns the last loaded gifted-subs rows. It never triggers a reload,
// so pointing SITE_URL at this service cannot recurse; the dashboard's
// background reload keeps the rows current.
func (h *Handlers) Subs(c *gin.Context) {
	snap := h.dash.Snapshot()
	if snap.SubsSource != "" {
		c.Header("X-Subs-Source", string(snap.SubsSource))
	}
	c.JSON(http.StatusOK, snap.Subs)
}

// Bits refreshes the bits leaderboard. Upstream failures are returned with
// their status and body text for display.
func (h *Handlers) Bits(c *gin.Context) {
	count := leaderboard.DefaultCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be a number"})
			return
		}
		count = n
	}

	rows, err := h.refreshBits(c.Request.Context(), count, c.Query("period"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"rows": rows})
	case errors.Is(err, leaderboard.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, leaderboard.ErrMissingCredentials):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	default:
		middleware.GetContextLogger(c, h.logger).WithError(err).Warn("Bits leaderboard refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func (h *Handlers) refreshBits(ctx context.Context, count int, period string) ([]leaderboard.Row, error) {
	if h.bits == nil {
		return h.dash.RefreshBits(ctx, count, period)
	}
	key := fmt.Sprintf("%d|%s", leaderboard.ClampCount(count), strings.ToLower(strings.TrimSpace(period)))
	return h.bits.Get(ctx, key, func(ctx context.Context, _ string) ([]leaderboard.Row, error) {
		return h.dash.RefreshBits(ctx, count, period)
	})
}

// Links lists the social links.
func (h *Handlers) Links(c *gin.Context) {
	list, err := h.links.List(c.Request.Context())
	if err != nil {
		middleware.GetContextLogger(c, h.logger).WithError(err).Error("Failed to read links")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read links"})
		return
	}
	c.JSON(http.StatusOK, list)
}
