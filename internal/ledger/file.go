package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hotelpro/internal/core"
)

// StorageKey is the top-level key of the persisted document.
const StorageKey = "hotelpro-ledger"

// document mirrors Snapshot with optional collections, so that a missing
// key can be told apart from an empty one.
type document struct {
	Income             *[]core.IncomeEntry       `json:"income,omitempty"`
	Expenses           *[]core.ExpenseEntry      `json:"expenses,omitempty"`
	Staff              *[]core.StaffMember       `json:"staff,omitempty"`
	Attendance         *[]core.AttendanceRecord  `json:"attendance,omitempty"`
	SalaryTransactions *[]core.SalaryTransaction `json:"salaryTransactions,omitempty"`
}

// SnapshotFile persists snapshots as one JSON document on disk.
type SnapshotFile struct {
	path string
}

func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

func (f *SnapshotFile) Path() string { return f.path }

// Load rehydrates state over defaults. Each collection present in the
// document replaces the default one; absent collections keep the default.
// A missing file yields the defaults unchanged.
func (f *SnapshotFile) Load(defaults Snapshot) (Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("read snapshot: %w", err)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return defaults, fmt.Errorf("decode snapshot: %w", err)
	}
	body, ok := wrapper[StorageKey]
	if !ok {
		return defaults, nil
	}
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return defaults, fmt.Errorf("decode snapshot %s: %w", StorageKey, err)
	}

	out := defaults.clone()
	if doc.Income != nil {
		out.Income = *doc.Income
	}
	if doc.Expenses != nil {
		out.Expenses = *doc.Expenses
	}
	if doc.Staff != nil {
		out.Staff = *doc.Staff
	}
	if doc.Attendance != nil {
		out.Attendance = *doc.Attendance
	}
	if doc.SalaryTransactions != nil {
		out.SalaryTransactions = *doc.SalaryTransactions
	}
	return out, nil
}

// Save writes the snapshot atomically through a temp file and rename.
func (f *SnapshotFile) Save(s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	body, err := json.MarshalIndent(map[string]Snapshot{StorageKey: nonNil(s)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// nonNil makes every collection encode as [] rather than null.
func nonNil(s Snapshot) Snapshot {
	if s.Income == nil {
		s.Income = []core.IncomeEntry{}
	}
	if s.Expenses == nil {
		s.Expenses = []core.ExpenseEntry{}
	}
	if s.Staff == nil {
		s.Staff = []core.StaffMember{}
	}
	if s.Attendance == nil {
		s.Attendance = []core.AttendanceRecord{}
	}
	if s.SalaryTransactions == nil {
		s.SalaryTransactions = []core.SalaryTransaction{}
	}
	return s
}
