package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/config"
	"hotelpro/internal/core"
	applog "hotelpro/internal/log"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Output: &bytes.Buffer{}, Component: applog.ComponentApp})
}

func TestOpenLedger_EmptyWithoutFile(t *testing.T) {
	cfg := &config.Config{SnapshotPath: filepath.Join(t.TempDir(), "ledger.json")}
	store, err := OpenLedger(cfg, time.Now(), testLogger())
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	if snap := store.Snapshot(); len(snap.Income) != 0 || len(snap.Staff) != 0 {
		t.Fatalf("expected empty ledger, got %+v", snap)
	}
}

func TestOpenLedger_SeedDemo(t *testing.T) {
	cfg := &config.Config{SnapshotPath: filepath.Join(t.TempDir(), "ledger.json"), SeedDemo: true}
	store, err := OpenLedger(cfg, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), testLogger())
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	if len(store.Snapshot().Staff) == 0 {
		t.Fatal("expected demo staff")
	}
}

func TestOpenLedger_PersistsMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	cfg := &config.Config{SnapshotPath: path}
	store, err := OpenLedger(cfg, time.Now(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddIncome(core.IncomeEntry{
		Date: "2024-03-15", Source: core.SourceRoomRent, Amount: decimal.NewFromInt(900),
	}); err != nil {
		t.Fatalf("add income: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	reopened, err := OpenLedger(cfg, time.Now(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Snapshot().Income; len(got) != 1 || !got[0].Amount.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected reloaded income %+v", got)
	}
}

func TestOpenLedger_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenLedger(&config.Config{SnapshotPath: path}, time.Now(), testLogger()); err == nil {
		t.Fatal("expected an error for a corrupt snapshot")
	}
}
