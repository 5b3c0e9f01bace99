// Package dualpath reconciles a resource between a remote authoritative
// store and a local fallback. Remote failures are never returned to callers;
// they select the local path.
package dualpath

import (
	"context"
	"sync"

	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// Source says which path served an operation.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Remote is the authoritative side. Errors should be *clients.Error so the
// store can classify them.
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Upsert(ctx context.Context, entry T) error
	Delete(ctx context.Context, entry T) error
}

// Local is the fallback side. It is always read and written whole.
type Local[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, entries []T) error
	Clear(ctx context.Context) error
}

// MergeFunc folds entry into a local collection and returns the result.
type MergeFunc[T any] func(existing []T, entry T) []T

// Config configures a Store.
type Config[T any] struct {
	// Name labels logs and metrics, e.g. "subs".
	Name    string
	Remote  Remote[T]
	Local   Local[T]
	Merge   MergeFunc[T]
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Store is a dual-path store for one resource.
type Store[T any] struct {
	name    string
	remote  Remote[T]
	local   Local[T]
	merge   MergeFunc[T]
	logger  logging.Logger
	metrics *metrics.Metrics

	// serialises local read-modify-write cycles
	mu sync.Mutex
}

// New creates a Store. A nil Remote means every operation takes the local
// path.
func New[T any](cfg Config[T]) *Store[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	merge := cfg.Merge
	if merge == nil {
		merge = func(existing []T, entry T) []T { return append(existing, entry) }
	}
	return &Store[T]{
		name:    cfg.Name,
		remote:  cfg.Remote,
		local:   cfg.Local,
		merge:   merge,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Read returns the remote collection, or the local one if the remote read
// fails. A successful remote read is returned even when empty. A failing
// local read yields an empty collection.
func (s *Store[T]) Read(ctx context.Context) ([]T, Source) {
	if s.remote != nil {
		items, err := s.remote.List(ctx)
		if err == nil {
			s.metrics.StoreOperation(s.name, "read", string(SourceRemote))
			if items == nil {
				items = []T{}
			}
			return items, SourceRemote
		}
		s.fallback("read", err)
	}

	s.metrics.StoreOperation(s.name, "read", string(SourceLocal))
	items, err := s.local.Load(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("resource", s.name).Warn("Local read failed; showing empty collection")
		return []T{}, SourceLocal
	}
	if items == nil {
		items = []T{}
	}
	return items, SourceLocal
}

// Upsert writes entry remotely, or merges it into the local collection if
// the remote write fails. The error is non-nil only when the local write
// itself fails.
func (s *Store[T]) Upsert(ctx context.Context, entry T) (Source, error) {
	if s.remote != nil {
		err := s.remote.Upsert(ctx, entry)
		if err == nil {
			s.metrics.StoreOperation(s.name, "upsert", string(SourceRemote))
			return SourceRemote, nil
		}
		s.fallback("upsert", err)
	}

	s.metrics.StoreOperation(s.name, "upsert", string(SourceLocal))
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.local.Load(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("resource", s.name).Warn("Local collection unreadable; starting a new one")
		items = nil
	}
	if err := s.local.Save(ctx, s.merge(items, entry)); err != nil {
		return SourceLocal, err
	}
	return SourceLocal, nil
}

// DeleteAll removes every remote entry one by one. If the remote collection
// cannot be listed, or the remote becomes unreachable mid-way, the local
// collection is cleared instead. Entries already deleted remotely stay
// deleted; a delete refused with an error status is logged and skipped.
func (s *Store[T]) DeleteAll(ctx context.Context) (Source, error) {
	if s.remote != nil {
		err := s.deleteRemote(ctx)
		if err == nil {
			s.metrics.StoreOperation(s.name, "delete_all", string(SourceRemote))
			return SourceRemote, nil
		}
		s.fallback("delete_all", err)
	}

	s.metrics.StoreOperation(s.name, "delete_all", string(SourceLocal))
	s.mu.Lock()
	defer s.mu.Unlock()
	return SourceLocal, s.local.Clear(ctx)
}

// deleteRemote returns an error only when the collection cannot be listed
// or the remote stops answering at the transport level.
func (s *Store[T]) deleteRemote(ctx context.Context) error {
	items, err := s.remote.List(ctx)
	if err != nil {
		return err
	}
	deleted := 0
	for _, item := range items {
		err := s.remote.Delete(ctx, item)
		if err == nil {
			deleted++
			continue
		}
		if unreachable(err) {
			return err
		}
		s.logger.WithError(err).WithField("resource", s.name).Warn("Remote delete refused; continuing")
	}
	s.logger.WithFields(logging.Fields{
		"resource": s.name,
		"deleted":  deleted,
		"total":    len(items),
	}).Info("Cleared remote collection")
	return nil
}

// unreachable reports a failure with no upstream response at all.
func unreachable(err error) bool {
	return clients.KindOf(err) == clients.KindTransient && clients.StatusCode(err) == 0
}

func (s *Store[T]) fallback(op string, err error) {
	entry := s.logger.WithFields(logging.Fields{
		"resource":  s.name,
		"operation": op,
	}).WithError(err)

	switch kind := clients.KindOf(err); kind {
	case clients.KindConfigurationAbsent:
		entry.Debug("Remote not configured; using local store")
	case clients.KindTransient, clients.KindAuthorization, clients.KindMalformed:
		entry.WithField("kind", kind.String()).Warn("Remote unavailable; using local store")
	default:
		entry.Warn("Remote failed; using local store")
	}
}
