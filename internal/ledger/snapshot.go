package ledger

import (
	"strings"

	"hotelpro/internal/core"
)

// MirrorPrefix marks expenses owned by a salary transaction.
const MirrorPrefix = "pay-sync-"

// Snapshot is an immutable copy of every collection held by the Store.
type Snapshot struct {
	Income             []core.IncomeEntry       `json:"income"`
	Expenses           []core.ExpenseEntry      `json:"expenses"`
	Staff              []core.StaffMember       `json:"staff"`
	Attendance         []core.AttendanceRecord  `json:"attendance"`
	SalaryTransactions []core.SalaryTransaction `json:"salaryTransactions"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Income:             append([]core.IncomeEntry(nil), s.Income...),
		Expenses:           append([]core.ExpenseEntry(nil), s.Expenses...),
		Staff:              append([]core.StaffMember(nil), s.Staff...),
		Attendance:         append([]core.AttendanceRecord(nil), s.Attendance...),
		SalaryTransactions: append([]core.SalaryTransaction(nil), s.SalaryTransactions...),
	}
}

// StaffByID looks a roster member up by id.
func (s Snapshot) StaffByID(id string) (core.StaffMember, bool) {
	for _, m := range s.Staff {
		if m.ID == id {
			return m, true
		}
	}
	return core.StaffMember{}, false
}

// HasStaff reports whether id is on the roster.
func (s Snapshot) HasStaff(id string) bool {
	_, ok := s.StaffByID(id)
	return ok
}

// Lookup finds the current version of a record by remote table and id.
func (s Snapshot) Lookup(table, id string) (core.Record, bool) {
	switch table {
	case core.TableIncome:
		for _, e := range s.Income {
			if e.ID == id {
				return e, true
			}
		}
	case core.TableExpenses:
		for _, e := range s.Expenses {
			if e.ID == id {
				return e, true
			}
		}
	case core.TableStaff:
		if m, ok := s.StaffByID(id); ok {
			return m, true
		}
	case core.TableAttendance:
		for _, a := range s.Attendance {
			if a.ID == id {
				return a, true
			}
		}
	case core.TableSalaryTransactions:
		for _, t := range s.SalaryTransactions {
			if t.ID == id {
				return t, true
			}
		}
	}
	return nil, false
}

// MirrorExpenseID derives the id of the expense mirroring a transaction.
func MirrorExpenseID(txID string) string { return MirrorPrefix + txID }

// IsMirror reports whether an expense id belongs to a salary transaction.
func IsMirror(expenseID string) bool { return strings.HasPrefix(expenseID, MirrorPrefix) }

// MirrorTransactionID returns the owning transaction id of a mirror expense.
func MirrorTransactionID(expenseID string) (string, bool) {
	if !IsMirror(expenseID) {
		return "", false
	}
	return strings.TrimPrefix(expenseID, MirrorPrefix), true
}

// MirrorExpense builds the expense that mirrors tx on the ledger.
func MirrorExpense(tx core.SalaryTransaction, staffName string) core.ExpenseEntry {
	memo := tx.Notes
	if memo == "" {
		memo = "None"
	}
	return core.ExpenseEntry{
		ID:          MirrorExpenseID(tx.ID),
		Date:        tx.Date,
		Category:    core.CategorySalary,
		Amount:      tx.Amount,
		PaymentMode: core.PaymentOnline,
		Notes:       "[PAYROLL-AUTO] " + string(tx.Type) + " for " + staffName + ". Memo: " + memo,
	}
}
