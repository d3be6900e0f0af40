// Package recordstest holds the behavioural suite every records.Store backend
// must pass.
package recordstest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

// Run exercises store. newPartition must return a partition name not used by
// any earlier call so backends with persistent state stay isolated.
func Run(t *testing.T, store records.Store, newPartition func() string) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		partition := newPartition()
		at := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
		id, err := store.Insert(ctx, partition, records.Fields{"idLogin": "e1", "horaPonto": at})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if id == "" {
			t.Fatal("expected store-assigned id")
		}
		got, err := store.Get(ctx, partition, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.String("idLogin") != "e1" {
			t.Fatalf("unexpected idLogin %v", got["idLogin"])
		}
		when, ok := got.Time("horaPonto")
		if !ok || !when.Equal(at) {
			t.Fatalf("expected %s, got %v", at, got["horaPonto"])
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		partition := newPartition()
		if _, err := store.Get(ctx, partition, "does-not-exist"); !errors.Is(err, records.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update merges", func(t *testing.T) {
		partition := newPartition()
		id, err := store.Insert(ctx, partition, records.Fields{"idLogin": "e1", "usuario": "Ana"})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := store.Update(ctx, partition, id, records.Fields{"status": "Aprovado", "aprovadoPor": "sup"}); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := store.Get(ctx, partition, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.String("usuario") != "Ana" || got.String("status") != "Aprovado" || got.String("aprovadoPor") != "sup" {
			t.Fatalf("unexpected fields after merge: %#v", got)
		}
	})

	t.Run("update unknown id", func(t *testing.T) {
		partition := newPartition()
		if err := store.Update(ctx, partition, "does-not-exist", records.Fields{"status": "x"}); !errors.Is(err, records.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete removes only the named document", func(t *testing.T) {
		partition := newPartition()
		keep, err := store.Insert(ctx, partition, records.Fields{"idLogin": "keep"})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		gone, err := store.Insert(ctx, partition, records.Fields{"idLogin": "gone"})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := store.Delete(ctx, partition, gone); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := store.Get(ctx, partition, gone); !errors.Is(err, records.ErrNotFound) {
			t.Fatalf("expected deleted document to be gone, got %v", err)
		}
		if _, err := store.Get(ctx, partition, keep); err != nil {
			t.Fatalf("sibling document lost: %v", err)
		}
		if err := store.Delete(ctx, partition, gone); !errors.Is(err, records.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		if err := store.Delete(ctx, partition, "does-not-exist"); !errors.Is(err, records.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("query equals", func(t *testing.T) {
		partition := newPartition()
		for _, login := range []string{"a", "b", "a"} {
			if _, err := store.Insert(ctx, partition, records.Fields{"idLogin": login}); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		docs, err := store.QueryEquals(ctx, partition, "idLogin", "a")
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(docs) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(docs))
		}
	})

	t.Run("query range is half open", func(t *testing.T) {
		partition := newPartition()
		low := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
		high := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		stamps := map[string]time.Time{
			"before": low.Add(-time.Second),
			"low":    low,
			"inside": time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			"high":   high,
		}
		for label, at := range stamps {
			if _, err := store.Insert(ctx, partition, records.Fields{"label": label, "dataAprovacao": at}); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		docs, err := store.QueryRange(ctx, partition, "dataAprovacao", low, high)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		var labels []string
		for _, doc := range docs {
			labels = append(labels, doc.Fields.String("label"))
		}
		sort.Strings(labels)
		if len(labels) != 2 || labels[0] != "inside" || labels[1] != "low" {
			t.Fatalf("unexpected range result %v", labels)
		}
	})

	t.Run("list all is scoped to partition", func(t *testing.T) {
		first, second := newPartition(), newPartition()
		if _, err := store.Insert(ctx, first, records.Fields{"n": "1"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if _, err := store.Insert(ctx, second, records.Fields{"n": "2"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
		docs, err := store.ListAll(ctx, first)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(docs) != 1 || docs[0].Fields.String("n") != "1" {
			t.Fatalf("unexpected documents %#v", docs)
		}
		empty, err := store.ListAll(ctx, newPartition())
		if err != nil {
			t.Fatalf("list empty: %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("expected empty partition, got %d", len(empty))
		}
	})

	t.Run("concurrent inserts get distinct ids", func(t *testing.T) {
		partition := newPartition()
		const n = 16
		ids := make([]string, n)
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := store.Insert(ctx, partition, records.Fields{"i": i})
				if err != nil {
					errs <- err
					return
				}
				ids[i] = id
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("insert: %v", err)
		}
		seen := map[string]bool{}
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = true
		}
	})
}
