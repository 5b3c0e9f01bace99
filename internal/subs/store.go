package subs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ordinaryYT/jacweb1/internal/dualpath"
	"github.com/ordinaryYT/jacweb1/internal/localstore"
	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/clients/site"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// LocalKey is where the fallback collection lives in the local store.
const LocalKey = "gifted_subs_alltime_v1"

// Store is the dual-path gifted-subs store.
type Store = dualpath.Store[SubEntry]

// NewStore wires the site's /api/subs resource to a local collection.
func NewStore(remote *site.Client, local localstore.Store, logger logging.Logger, m *metrics.Metrics) *Store {
	return dualpath.New(dualpath.Config[SubEntry]{
		Name:    "subs",
		Remote:  &siteRemote{client: remote},
		Local:   &localCollection{store: local, key: LocalKey},
		Merge:   Merge,
		Logger:  logger,
		Metrics: m,
	})
}

type siteRemote struct {
	client *site.Client
}

func (r *siteRemote) List(ctx context.Context) ([]SubEntry, error) {
	remote, err := r.client.ListSubs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SubEntry, len(remote))
	for i, s := range remote {
		out[i] = SubEntry{Username: s.Username, Gifts: s.Gifts}
	}
	return out, nil
}

func (r *siteRemote) Upsert(ctx context.Context, entry SubEntry) error {
	return r.client.UpsertSub(ctx, site.Sub{Username: entry.Username, Gifts: entry.Gifts})
}

func (r *siteRemote) Delete(ctx context.Context, entry SubEntry) error {
	return r.client.DeleteSub(ctx, entry.Username)
}

// localCollection keeps the whole collection as one JSON array value.
type localCollection struct {
	store localstore.Store
	key   string
}

func (l *localCollection) Load(ctx context.Context) ([]SubEntry, error) {
	raw, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []SubEntry{}, nil
	}
	var entries []SubEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.key, err)
	}
	return entries, nil
}

func (l *localCollection) Save(ctx context.Context, entries []SubEntry) error {
	if entries == nil {
		entries = []SubEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", l.key, err)
	}
	return l.store.Set(ctx, l.key, string(raw))
}

func (l *localCollection) Clear(ctx context.Context) error {
	return l.store.Remove(ctx, l.key)
}
