package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
)

// cascadeSyncLimit caps concurrent remote deletes for a staff cascade.
const cascadeSyncLimit = 4

// LedgerService commits mutations to the local store and then mirrors them
// to the remote store. Local writes are never rolled back on sync failure.
type LedgerService struct {
	store *ledger.Store
	sync  *SyncService
}

func NewLedgerService(store *ledger.Store, sync *SyncService) *LedgerService {
	return &LedgerService{store: store, sync: sync}
}

func (s *LedgerService) Store() *ledger.Store { return s.store }

func (s *LedgerService) Sync() *SyncService { return s.sync }

func (s *LedgerService) Snapshot() ledger.Snapshot { return s.store.Snapshot() }

func (s *LedgerService) AddIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, bool, error) {
	saved, err := s.store.AddIncome(e)
	if err != nil {
		return core.IncomeEntry{}, false, fmt.Errorf("add income: %w", err)
	}
	return saved, s.sync.SyncToCloud(ctx, core.TableIncome, saved), nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, bool, error) {
	saved, err := s.store.UpdateIncome(e)
	if err != nil {
		return core.IncomeEntry{}, false, fmt.Errorf("update income: %w", err)
	}
	return saved, s.sync.SyncToCloud(ctx, core.TableIncome, saved), nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id string) (bool, error) {
	if err := s.store.DeleteIncome(id); err != nil {
		return false, fmt.Errorf("delete income: %w", err)
	}
	return s.sync.DeleteFromCloud(ctx, core.TableIncome, id), nil
}

func (s *LedgerService) AddExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, bool, error) {
	saved, err := s.store.AddExpense(e)
	if err != nil {
		return core.ExpenseEntry{}, false, fmt.Errorf("add expense: %w", err)
	}
	return saved, s.sync.SyncToCloud(ctx, core.TableExpenses, saved), nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, bool, error) {
	saved, err := s.store.UpdateExpense(e)
	if err != nil {
		return core.ExpenseEntry{}, false, fmt.Errorf("update expense: %w", err)
	}
	return saved, s.sync.SyncToCloud(ctx, core.TableExpenses, saved), nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) (bool, error) {
	if err := s.store.DeleteExpense(id); err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	return s.sync.DeleteFromCloud(ctx, core.TableExpenses, id), nil
}

func (s *LedgerService) AddStaff(ctx context.Context, m core.StaffMember) (core.StaffMember, bool, error) {
	saved, err := s.store.AddStaff(m)
	if err != nil {
		return core.StaffMember{}, false, fmt.Errorf("add staff: %w", err)
	}
	return saved, s.sync.SyncToCloud(ctx, core.TableStaff, saved), nil
}

func (s *LedgerService) UpdateStaff(ctx context.Context, m core.StaffMember) (core.StaffMember, bool, error) {
	saved, mirrors, err := s.store.UpdateStaff(m)
	if err != nil {
		return core.StaffMember{}, false, fmt.Errorf("update staff: %w", err)
	}
	synced := s.sync.SyncToCloud(ctx, core.TableStaff, saved)
	for _, e := range mirrors {
		if !s.sync.SyncToCloud(ctx, core.TableExpenses, e) {
			synced = false
		}
	}
	return saved, synced, nil
}

// StaffRemoval is the outcome of a staff delete and its remote cascade.
type StaffRemoval struct {
	ledger.Removal
	FailedSyncs int
}

func (r StaffRemoval) Synced() bool { return r.FailedSyncs == 0 }

// DeleteStaff removes a member with all dependent records and deletes every
// removed record remotely.
func (s *LedgerService) DeleteStaff(ctx context.Context, id string) (StaffRemoval, error) {
	rm, err := s.store.DeleteStaff(id)
	if err != nil {
		return StaffRemoval{}, fmt.Errorf("delete staff: %w", err)
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeSyncLimit)
	del := func(table, id string) {
		g.Go(func() error {
			if !s.sync.DeleteFromCloud(gctx, table, id) {
				failed.Add(1)
			}
			return nil
		})
	}
	for _, a := range rm.Attendance {
		del(core.TableAttendance, a)
	}
	for _, t := range rm.SalaryTransactions {
		del(core.TableSalaryTransactions, t)
	}
	for _, e := range rm.Mirrors {
		del(core.TableExpenses, e)
	}
	del(core.TableStaff, rm.Staff.ID)
	_ = g.Wait()

	out := StaffRemoval{Removal: rm, FailedSyncs: int(failed.Load())}
	if !out.Synced() {
		slog.WarnContext(ctx, "Staff cascade partially synced",
			"staff_id", id,
			"failed", out.FailedSyncs)
	}
	return out, nil
}

func (s *LedgerService) MarkAttendance(ctx context.Context, staffID, date string, status core.AttendanceStatus) (core.AttendanceRecord, bool, error) {
	rec, err := s.store.MarkAttendance(staffID, date, status)
	if err != nil {
		return core.AttendanceRecord{}, false, fmt.Errorf("mark attendance: %w", err)
	}
	return rec, s.sync.SyncToCloud(ctx, core.TableAttendance, rec), nil
}

func (s *LedgerService) DeleteAttendance(ctx context.Context, id string) (bool, error) {
	if err := s.store.DeleteAttendance(id); err != nil {
		return false, fmt.Errorf("delete attendance: %w", err)
	}
	return s.sync.DeleteFromCloud(ctx, core.TableAttendance, id), nil
}

// PayrollResult reports the remote outcome of the two payroll records.
type PayrollResult struct {
	ledger.Payroll
	TransactionSynced bool
	MirrorSynced      bool
}

func (r PayrollResult) Synced() bool { return r.TransactionSynced && r.MirrorSynced }

// PartialFailure is true when exactly one of the two records reached the
// remote store.
func (r PayrollResult) PartialFailure() bool { return r.TransactionSynced != r.MirrorSynced }

func (s *LedgerService) AddSalaryTransaction(ctx context.Context, tx core.SalaryTransaction) (PayrollResult, error) {
	p, err := s.store.AddSalaryTransaction(tx)
	if err != nil {
		return PayrollResult{}, fmt.Errorf("add salary transaction: %w", err)
	}
	return s.syncPayroll(ctx, p, false), nil
}

func (s *LedgerService) UpdateSalaryTransaction(ctx context.Context, tx core.SalaryTransaction) (PayrollResult, error) {
	p, err := s.store.UpdateSalaryTransaction(tx)
	if err != nil {
		return PayrollResult{}, fmt.Errorf("update salary transaction: %w", err)
	}
	return s.syncPayroll(ctx, p, false), nil
}

func (s *LedgerService) DeleteSalaryTransaction(ctx context.Context, id string) (PayrollResult, error) {
	p, err := s.store.DeleteSalaryTransaction(id)
	if err != nil {
		return PayrollResult{}, fmt.Errorf("delete salary transaction: %w", err)
	}
	return s.syncPayroll(ctx, p, true), nil
}

// syncPayroll writes the transaction and its mirror as two independent
// concurrent remote calls.
func (s *LedgerService) syncPayroll(ctx context.Context, p ledger.Payroll, remove bool) PayrollResult {
	res := PayrollResult{Payroll: p}
	var g errgroup.Group
	g.Go(func() error {
		if remove {
			res.TransactionSynced = s.sync.DeleteFromCloud(ctx, core.TableSalaryTransactions, p.Transaction.ID)
		} else {
			res.TransactionSynced = s.sync.SyncToCloud(ctx, core.TableSalaryTransactions, p.Transaction)
		}
		return nil
	})
	g.Go(func() error {
		mirrorID := ledger.MirrorExpenseID(p.Transaction.ID)
		if remove {
			res.MirrorSynced = s.sync.DeleteFromCloud(ctx, core.TableExpenses, mirrorID)
		} else {
			res.MirrorSynced = s.sync.SyncToCloud(ctx, core.TableExpenses, p.Mirror)
		}
		return nil
	})
	_ = g.Wait()

	if res.PartialFailure() {
		slog.WarnContext(ctx, "Payroll partially synced",
			"record_id", p.Transaction.ID,
			"staff_id", p.Transaction.StaffID,
			"transaction_synced", res.TransactionSynced,
			"mirror_synced", res.MirrorSynced)
	}
	return res
}
