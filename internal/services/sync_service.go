package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hotelpro/internal/core"
	"hotelpro/internal/remote"
)

// SyncStatus is the remote state of one local record.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
	StatusFailed  SyncStatus = "failed"
)

// Remote operations tracked per record.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

const DefaultSyncTimeout = 5 * time.Second

var errNoRemote = errors.New("remote store not configured")

// RecordStatus describes the last sync attempt for a record.
type RecordStatus struct {
	Table     string     `json:"table"`
	ID        string     `json:"id"`
	Op        string     `json:"op"`
	Status    SyncStatus `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"lastError,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SyncSummary counts tracked records by status.
type SyncSummary struct {
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// RetryReport is the outcome of one RetryFailed pass.
type RetryReport struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RecordSource resolves the current local version of a record.
type RecordSource interface {
	Lookup(table, id string) (core.Record, bool)
}

type recordKey struct {
	table string
	id    string
}

// SyncService pushes committed local records to the remote store and keeps
// a per-record status. A failed push never touches local state.
type SyncService struct {
	remote  remote.Store
	source  RecordSource
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	status map[recordKey]*RecordStatus
}

func NewSyncService(store remote.Store, source RecordSource, timeout time.Duration) *SyncService {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &SyncService{
		remote:  store,
		source:  source,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		status:  make(map[recordKey]*RecordStatus),
	}
}

// SyncToCloud upserts rec under table and reports whether the remote write
// succeeded.
func (s *SyncService) SyncToCloud(ctx context.Context, table string, rec core.Record) bool {
	id := rec.RecordID()
	payload, err := json.Marshal(rec)
	if err != nil {
		s.finish(ctx, table, id, OpUpsert, fmt.Errorf("marshal record: %w", err))
		return false
	}
	s.begin(table, id, OpUpsert)
	err = s.call(ctx, func(ctx context.Context) error {
		return s.remote.Upsert(ctx, table, id, payload)
	})
	return s.finish(ctx, table, id, OpUpsert, err)
}

// DeleteFromCloud removes table/id remotely and reports whether it succeeded.
func (s *SyncService) DeleteFromCloud(ctx context.Context, table, id string) bool {
	s.begin(table, id, OpDelete)
	err := s.call(ctx, func(ctx context.Context) error {
		return s.remote.Delete(ctx, table, id)
	})
	return s.finish(ctx, table, id, OpDelete, err)
}

func (s *SyncService) call(ctx context.Context, fn func(context.Context) error) error {
	if s.remote == nil {
		return errNoRemote
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func (s *SyncService) begin(table, id, op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{table, id}
	st, ok := s.status[k]
	if !ok || st.Op != op {
		st = &RecordStatus{Table: table, ID: id, Op: op}
		s.status[k] = st
	}
	st.Status = StatusPending
	st.Attempts++
	st.UpdatedAt = s.now()
}

func (s *SyncService) finish(ctx context.Context, table, id, op string, err error) bool {
	s.mu.Lock()
	k := recordKey{table, id}
	st, ok := s.status[k]
	if !ok {
		st = &RecordStatus{Table: table, ID: id, Op: op, Attempts: 1}
		s.status[k] = st
	}
	st.UpdatedAt = s.now()
	attempts := st.Attempts
	if err == nil {
		if op == OpDelete {
			// nothing left to track once the remote copy is gone
			delete(s.status, k)
		} else {
			st.Status = StatusSynced
			st.LastError = ""
		}
	} else {
		st.Status = StatusFailed
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		slog.WarnContext(ctx, "Remote sync failed",
			"table", table,
			"record_id", id,
			"op", op,
			"attempts", attempts,
			"sync_status", StatusFailed,
			"error", err)
		return false
	}
	slog.DebugContext(ctx, "Remote sync succeeded",
		"table", table,
		"record_id", id,
		"op", op,
		"sync_status", StatusSynced)
	return true
}

// Status returns the tracked state of one record.
func (s *SyncService) Status(table, id string) (RecordStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[recordKey{table, id}]
	if !ok {
		return RecordStatus{}, false
	}
	return *st, true
}

// Failed lists records whose last attempt failed, ordered by table and id.
func (s *SyncService) Failed() []RecordStatus {
	s.mu.Lock()
	out := make([]RecordStatus, 0)
	for _, st := range s.status {
		if st.Status == StatusFailed {
			out = append(out, *st)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *SyncService) Summary() SyncSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum SyncSummary
	for _, st := range s.status {
		switch st.Status {
		case StatusPending:
			sum.Pending++
		case StatusSynced:
			sum.Synced++
		case StatusFailed:
			sum.Failed++
		}
	}
	return sum
}

// RetryFailed re-issues the failed operation of every failed record. Upserts
// are retried with the current local version; a record that no longer
// exists locally is deleted remotely instead.
func (s *SyncService) RetryFailed(ctx context.Context) RetryReport {
	var report RetryReport
	for _, st := range s.Failed() {
		if ctx.Err() != nil {
			break
		}
		report.Attempted++

		var ok bool
		switch {
		case st.Op == OpDelete:
			ok = s.DeleteFromCloud(ctx, st.Table, st.ID)
		case s.source == nil:
			// upserts cannot be rebuilt without the local records
		default:
			if rec, found := s.source.Lookup(st.Table, st.ID); found {
				ok = s.SyncToCloud(ctx, st.Table, rec)
			} else {
				ok = s.DeleteFromCloud(ctx, st.Table, st.ID)
			}
		}

		if ok {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	if report.Attempted > 0 {
		slog.InfoContext(ctx, "Retried failed syncs",
			"attempted", report.Attempted,
			"succeeded", report.Succeeded,
			"failed", report.Failed)
	}
	return report
}
