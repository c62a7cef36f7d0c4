package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hotelpro/internal/remote"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "remote.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Upsert(ctx, "income", "inc-1", []byte(`{"id":"inc-1","amount":"100"}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, "income", "inc-1", []byte(`{"id":"inc-1","amount":"150"}`)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err := repo.Get(ctx, "income", "inc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"id":"inc-1","amount":"150"}` {
		t.Fatalf("unexpected payload %s", got)
	}

	if err := repo.Delete(ctx, "income", "inc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "income", "inc-1"); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "income", "inc-1"); err != nil {
		t.Fatalf("deleting a missing row should succeed: %v", err)
	}
}

func TestSQLiteRepository_UpsertAtKeepsNewest(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	newer := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	if err := repo.UpsertAt(ctx, "staff", "s1", []byte(`"new"`), newer); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertAt(ctx, "staff", "s1", []byte(`"old"`), older); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.Get(ctx, "staff", "s1")
	if string(got) != `"new"` {
		t.Fatalf("stale write overwrote newer row: %s", got)
	}
}

func TestSQLiteRepository_TombstoneBeatsStaleUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	t0 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	_ = repo.UpsertAt(ctx, "income", "inc-1", []byte(`"v1"`), t0)
	if err := repo.DeleteAt(ctx, "income", "inc-1", t0.Add(time.Minute)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"older upsert", t0.Add(30 * time.Second), false},
		{"same instant", t0.Add(time.Minute), false},
		{"newer upsert", t0.Add(2 * time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.UpsertAt(ctx, "income", "inc-1", []byte(`"v2"`), tt.at); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			_, err := repo.Get(ctx, "income", "inc-1")
			if got := err == nil; got != tt.want {
				t.Fatalf("visible = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}

	// a delete older than the stored row loses too
	if err := repo.DeleteAt(ctx, "income", "inc-1", t0); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(ctx, "income", "inc-1"); err != nil {
		t.Fatalf("stale delete removed a newer row: %v", err)
	}
}

func TestSQLiteRepository_TombstonesAreHidden(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_ = repo.Upsert(ctx, "staff", "s1", []byte(`{}`))
	_ = repo.Upsert(ctx, "staff", "s2", []byte(`{}`))
	_ = repo.Delete(ctx, "staff", "s1")
	_ = repo.Delete(ctx, "staff", "never-stored")

	rows, err := repo.List(ctx, "staff")
	if err != nil || len(rows) != 1 || rows[0].ID != "s2" {
		t.Fatalf("unexpected rows %+v %v", rows, err)
	}
	if counts, _ := repo.Count(ctx); counts["staff"] != 1 {
		t.Fatalf("tombstones counted: %v", counts)
	}
	n, err := repo.PruneTombstones(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("expected two pruned tombstones, got %d %v", n, err)
	}
}

func TestSQLiteRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, id := range []string{"b", "a", "c"} {
		if err := repo.Upsert(ctx, "expenses", id, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	_ = repo.Upsert(ctx, "staff", "s1", []byte(`{}`))

	rows, err := repo.List(ctx, "expenses")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != "a" || rows[2].ID != "c" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	counts, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["expenses"] != 3 || counts["staff"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestSQLiteRepository_UnknownTable(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Upsert(context.Background(), "rooms", "r1", []byte(`{}`)); !errors.Is(err, remote.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestSQLiteRepository_MarkApplied(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	first, err := repo.MarkApplied(ctx, "m-1")
	if err != nil || !first {
		t.Fatalf("expected first mark to succeed, got %v %v", first, err)
	}
	if seen, _ := repo.Applied(ctx, "m-1"); !seen {
		t.Fatal("expected m-1 to be recorded")
	}
	again, err := repo.MarkApplied(ctx, "m-1")
	if err != nil || again {
		t.Fatalf("expected duplicate mark to report false, got %v %v", again, err)
	}
	n, err := repo.PruneApplied(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected one pruned id, got %d %v", n, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remote.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()
	v, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second migration run: %v", err)
	}
	if v != SchemaVersion {
		t.Fatalf("schema version = %d, want %d", v, SchemaVersion)
	}
}

func TestMigrateToRollsBackAndForward(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "remote.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()

	if err := MigrateTo(path, 1); err != nil {
		t.Fatalf("migrate down to 1: %v", err)
	}
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen after rollback: %v", err)
	}
	defer repo.Close()
	// reopening re-applies the dropped dedupe table and tombstone column
	if _, err := repo.MarkApplied(ctx, "m-1"); err != nil {
		t.Fatalf("applied_mutations missing after reopen: %v", err)
	}
	if err := repo.Delete(ctx, "staff", "s1"); err != nil {
		t.Fatalf("tombstone column missing after reopen: %v", err)
	}
}
