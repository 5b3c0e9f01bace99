package dualpath

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
	"github.com/ordinaryYT/jacweb1/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeRemote struct {
	items     []string
	listErr   error
	upsertErr error
	// deleteErrs is keyed by item
	deleteErrs map[string]error

	upserts []string
	deletes []string
}

func (f *fakeRemote) List(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.items...), nil
}

func (f *fakeRemote) Upsert(_ context.Context, entry string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, entry)
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, entry string) error {
	if err := f.deleteErrs[entry]; err != nil {
		return err
	}
	f.deletes = append(f.deletes, entry)
	return nil
}

type fakeLocal struct {
	items   []string
	loadErr error
	saves   int
	clears  int
	loads   int
}

func (f *fakeLocal) Load(context.Context) ([]string, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]string(nil), f.items...), nil
}

func (f *fakeLocal) Save(_ context.Context, entries []string) error {
	f.saves++
	f.items = entries
	return nil
}

func (f *fakeLocal) Clear(context.Context) error {
	f.clears++
	f.items = nil
	return nil
}

var (
	errNetwork  = clients.Transient("list", errors.New("connection refused"))
	errStatus   = &clients.Error{Kind: clients.KindTransient, StatusCode: http.StatusInternalServerError, Body: "boom"}
	errMalform  = clients.Malformed("list", errors.New("unexpected token"))
	errNotSetUp = clients.ConfigurationAbsent("list", "site url")
)

func newStore(remote Remote[string], local Local[string], m *metrics.Metrics) *Store[string] {
	return New(Config[string]{
		Name:    "test",
		Remote:  remote,
		Local:   local,
		Logger:  logging.NewDiscardLogger(),
		Metrics: m,
	})
}

func TestReadPrefersRemoteEvenWhenEmpty(t *testing.T) {
	local := &fakeLocal{items: []string{"stale"}}
	s := newStore(&fakeRemote{}, local, nil)

	items, src := s.Read(context.Background())
	if src != SourceRemote {
		t.Fatalf("expected remote source, got %s", src)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", items)
	}
	if local.loads != 0 {
		t.Fatalf("local store must not be consulted after a remote success")
	}
}

func TestReadFallsBackOnEveryFailureKind(t *testing.T) {
	for name, err := range map[string]error{
		"network":      errNetwork,
		"status":       errStatus,
		"malformed":    errMalform,
		"unconfigured": errNotSetUp,
		"plain":        errors.New("unclassified"),
	} {
		t.Run(name, func(t *testing.T) {
			s := newStore(&fakeRemote{listErr: err}, &fakeLocal{items: []string{"a", "b"}}, nil)
			items, src := s.Read(context.Background())
			if src != SourceLocal || len(items) != 2 {
				t.Fatalf("expected local fallback, got %v from %s", items, src)
			}
		})
	}
}

func TestReadLocalFailureYieldsEmpty(t *testing.T) {
	s := newStore(nil, &fakeLocal{loadErr: errors.New("disk gone")}, nil)
	items, src := s.Read(context.Background())
	if src != SourceLocal || items == nil || len(items) != 0 {
		t.Fatalf("expected empty local collection, got %#v from %s", items, src)
	}
}

func TestUpsertRemoteSuccessSkipsLocal(t *testing.T) {
	remote := &fakeRemote{}
	local := &fakeLocal{}
	s := newStore(remote, local, nil)

	src, err := s.Upsert(context.Background(), "x")
	if err != nil || src != SourceRemote {
		t.Fatalf("expected remote upsert, got %s, %v", src, err)
	}
	if len(remote.upserts) != 1 || local.saves != 0 || local.loads != 0 {
		t.Fatalf("expected only a remote write, got remote=%v local saves=%d", remote.upserts, local.saves)
	}
}

func TestUpsertFallbackMergesAndPersists(t *testing.T) {
	local := &fakeLocal{items: []string{"a"}}
	s := New(Config[string]{
		Name:   "test",
		Remote: &fakeRemote{upsertErr: errStatus},
		Local:  local,
		Merge: func(existing []string, entry string) []string {
			for _, e := range existing {
				if e == entry {
					return existing
				}
			}
			return append(existing, entry)
		},
		Logger: logging.NewDiscardLogger(),
	})

	for _, e := range []string{"b", "a", "b"} {
		if src, err := s.Upsert(context.Background(), e); err != nil || src != SourceLocal {
			t.Fatalf("expected local upsert, got %s, %v", src, err)
		}
	}
	if len(local.items) != 2 || local.items[0] != "a" || local.items[1] != "b" {
		t.Fatalf("unexpected local collection %v", local.items)
	}
	if local.saves != 3 {
		t.Fatalf("expected a full save per upsert, got %d", local.saves)
	}
}

func TestUpsertUnreadableLocalStartsFresh(t *testing.T) {
	local := &fakeLocal{loadErr: errors.New("corrupt")}
	s := newStore(nil, local, nil)
	if _, err := s.Upsert(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(local.items) != 1 || local.items[0] != "x" {
		t.Fatalf("unexpected local collection %v", local.items)
	}
}

func TestDeleteAllRemote(t *testing.T) {
	remote := &fakeRemote{items: []string{"a", "b", "c"}, deleteErrs: map[string]error{"b": errStatus}}
	local := &fakeLocal{items: []string{"keep"}}
	s := newStore(remote, local, nil)

	src, err := s.DeleteAll(context.Background())
	if err != nil || src != SourceRemote {
		t.Fatalf("expected remote delete, got %s, %v", src, err)
	}
	if len(remote.deletes) != 2 || remote.deletes[0] != "a" || remote.deletes[1] != "c" {
		t.Fatalf("expected refused delete to be skipped, got %v", remote.deletes)
	}
	if local.clears != 0 {
		t.Fatalf("local must not be cleared when the remote answered")
	}
}

func TestDeleteAllListFailureClearsLocal(t *testing.T) {
	local := &fakeLocal{items: []string{"x"}}
	s := newStore(&fakeRemote{listErr: errNetwork}, local, nil)

	src, err := s.DeleteAll(context.Background())
	if err != nil || src != SourceLocal {
		t.Fatalf("expected local clear, got %s, %v", src, err)
	}
	if local.clears != 1 || len(local.items) != 0 {
		t.Fatalf("expected local collection to be cleared")
	}
}

func TestDeleteAllUnreachableMidwayIsNotRolledBack(t *testing.T) {
	remote := &fakeRemote{items: []string{"a", "b", "c"}, deleteErrs: map[string]error{"b": errNetwork}}
	local := &fakeLocal{items: []string{"x"}}
	s := newStore(remote, local, nil)

	src, _ := s.DeleteAll(context.Background())
	if src != SourceLocal {
		t.Fatalf("expected local fallback, got %s", src)
	}
	if len(remote.deletes) != 1 || remote.deletes[0] != "a" {
		t.Fatalf("expected the first delete to stand and the loop to stop, got %v", remote.deletes)
	}
	if local.clears != 1 {
		t.Fatalf("expected local clear after the remote went away")
	}
}

func TestStoreMetrics(t *testing.T) {
	m := metrics.New(monitoring.NewMetricsCollector("legendboard", "test", "none"))
	s := newStore(&fakeRemote{listErr: errNetwork}, &fakeLocal{}, m)

	s.Read(context.Background())
	s.Read(context.Background())

	if got := testutil.ToFloat64(m.StoreOperations.WithLabelValues("test", "read", "local")); got != 2 {
		t.Fatalf("expected 2 local reads, got %v", got)
	}
}
