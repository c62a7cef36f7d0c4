// Package ledger holds the local record store: the five collections of the
// back office plus the rules that keep them consistent with each other.
//
// Every mutation is applied under a single write lock and is visible to
// readers only as a whole. Readers work on Snapshot copies.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"hotelpro/internal/core"
)

var (
	ErrNotFound     = core.ErrNotFound
	ErrUnknownStaff = errors.New("unknown staff member")
	ErrMirrorOwned  = errors.New("expense is owned by a salary transaction")
)

// Persister saves a full snapshot after each mutation.
type Persister interface {
	Save(Snapshot) error
}

// IDFunc returns a fresh record id for the given prefix.
type IDFunc func(prefix string) string

// NewID returns prefix-<uuid v7>. Version 7 ids sort by creation time.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithIDFunc(f IDFunc) Option {
	return func(s *Store) { s.newID = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

type Store struct {
	mu        sync.RWMutex
	data      Snapshot
	version   uint64
	persister Persister
	newID     IDFunc
	logger    *slog.Logger
}

// New creates a store seeded with initial.
func New(initial Snapshot, opts ...Option) *Store {
	s := &Store{
		data:   initial.clone(),
		newID:  NewID,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// Version increases by one on every committed mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Lookup returns the current version of a record by table and id.
func (s *Store) Lookup(table, id string) (core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Lookup(table, id)
}

// Flush writes the current state through the persister.
func (s *Store) Flush() error {
	if s.persister == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persister.Save(s.data)
}

// commit must be called with the write lock held.
func (s *Store) commit() {
	s.version++
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(s.data); err != nil {
		s.logger.Error("Failed to persist ledger snapshot", "version", s.version, "error", err)
	}
}

func (s *Store) assignID(id, prefix string) string {
	if id != "" {
		return id
	}
	return s.newID(prefix)
}

// taken reports whether id is already used in items.
func taken[T any](items []T, id string, idOf func(T) string) bool {
	for _, it := range items {
		if idOf(it) == id {
			return true
		}
	}
	return false
}

func duplicateID() error { return core.NewValidationError("id", "unique") }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// AddIncome validates and appends an income entry.
func (s *Store) AddIncome(e core.IncomeEntry) (core.IncomeEntry, error) {
	e.ID = s.assignID(e.ID, "inc")
	e.Date = core.NormalizeDay(e.Date)
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if taken(s.data.Income, e.ID, func(x core.IncomeEntry) string { return x.ID }) {
		return core.IncomeEntry{}, duplicateID()
	}
	s.data.Income = append(s.data.Income, e)
	s.commit()
	return e, nil
}

// UpdateIncome replaces the entry with the same id.
func (s *Store) UpdateIncome(e core.IncomeEntry) (core.IncomeEntry, error) {
	e.Date = core.NormalizeDay(e.Date)
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Income {
		if s.data.Income[i].ID == e.ID {
			s.data.Income[i] = e
			s.commit()
			return e, nil
		}
	}
	return core.IncomeEntry{}, notFound("income", e.ID)
}

func (s *Store) DeleteIncome(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Income {
		if s.data.Income[i].ID == id {
			s.data.Income = append(s.data.Income[:i:i], s.data.Income[i+1:]...)
			s.commit()
			return nil
		}
	}
	return notFound("income", id)
}

// AddExpense validates and appends a ledger expense. Mirror ids are reserved
// for salary transactions.
func (s *Store) AddExpense(e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if IsMirror(e.ID) {
		return core.ExpenseEntry{}, ErrMirrorOwned
	}
	e.ID = s.assignID(e.ID, "exp")
	e.Date = core.NormalizeDay(e.Date)
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if taken(s.data.Expenses, e.ID, func(x core.ExpenseEntry) string { return x.ID }) {
		return core.ExpenseEntry{}, duplicateID()
	}
	s.data.Expenses = append(s.data.Expenses, e)
	s.commit()
	return e, nil
}

// UpdateExpense replaces the expense with the same id. Mirrors change only
// through their salary transaction.
func (s *Store) UpdateExpense(e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if IsMirror(e.ID) {
		return core.ExpenseEntry{}, ErrMirrorOwned
	}
	e.Date = core.NormalizeDay(e.Date)
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Expenses {
		if s.data.Expenses[i].ID == e.ID {
			s.data.Expenses[i] = e
			s.commit()
			return e, nil
		}
	}
	return core.ExpenseEntry{}, notFound("expense", e.ID)
}

func (s *Store) DeleteExpense(id string) error {
	if IsMirror(id) {
		return ErrMirrorOwned
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.removeExpense(id) {
		return notFound("expense", id)
	}
	s.commit()
	return nil
}

func (s *Store) removeExpense(id string) bool {
	for i := range s.data.Expenses {
		if s.data.Expenses[i].ID == id {
			s.data.Expenses = append(s.data.Expenses[:i:i], s.data.Expenses[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) AddStaff(m core.StaffMember) (core.StaffMember, error) {
	m.ID = s.assignID(m.ID, "staff")
	m.JoiningDate = core.NormalizeDay(m.JoiningDate)
	if err := m.Validate(); err != nil {
		return core.StaffMember{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.HasStaff(m.ID) {
		return core.StaffMember{}, duplicateID()
	}
	s.data.Staff = append(s.data.Staff, m)
	s.commit()
	return m, nil
}

// UpdateStaff replaces a roster entry. A rename rewrites the notes of every
// payroll mirror of that member in the same commit; the rewritten mirrors
// are returned.
func (s *Store) UpdateStaff(m core.StaffMember) (core.StaffMember, []core.ExpenseEntry, error) {
	m.JoiningDate = core.NormalizeDay(m.JoiningDate)
	if err := m.Validate(); err != nil {
		return core.StaffMember{}, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Staff {
		if s.data.Staff[i].ID != m.ID {
			continue
		}
		var mirrors []core.ExpenseEntry
		if s.data.Staff[i].Name != m.Name {
			mirrors = s.renameMirrors(m)
		}
		s.data.Staff[i] = m
		s.commit()
		return m, mirrors, nil
	}
	return core.StaffMember{}, nil, notFound("staff", m.ID)
}

func (s *Store) renameMirrors(m core.StaffMember) []core.ExpenseEntry {
	byID := make(map[string]core.SalaryTransaction)
	for _, t := range s.data.SalaryTransactions {
		if t.StaffID == m.ID {
			byID[t.ID] = t
		}
	}
	var out []core.ExpenseEntry
	for i, e := range s.data.Expenses {
		txID, ok := MirrorTransactionID(e.ID)
		if !ok {
			continue
		}
		tx, ok := byID[txID]
		if !ok {
			continue
		}
		mirror := MirrorExpense(tx, m.Name)
		s.data.Expenses[i] = mirror
		out = append(out, mirror)
	}
	return out
}

// Removal lists everything a cascading delete took out of the store.
type Removal struct {
	Staff              core.StaffMember
	Attendance         []string
	SalaryTransactions []string
	Mirrors            []string
}

// DeleteStaff removes a roster member together with its attendance, salary
// transactions and their mirrored expenses.
func (s *Store) DeleteStaff(id string) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.data.Staff {
		if s.data.Staff[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Removal{}, notFound("staff", id)
	}

	rm := Removal{Staff: s.data.Staff[idx]}
	s.data.Staff = append(s.data.Staff[:idx:idx], s.data.Staff[idx+1:]...)

	att := s.data.Attendance[:0:0]
	for _, a := range s.data.Attendance {
		if a.StaffID == id {
			rm.Attendance = append(rm.Attendance, a.ID)
			continue
		}
		att = append(att, a)
	}
	s.data.Attendance = att

	txs := s.data.SalaryTransactions[:0:0]
	mirrors := make(map[string]struct{})
	for _, t := range s.data.SalaryTransactions {
		if t.StaffID == id {
			rm.SalaryTransactions = append(rm.SalaryTransactions, t.ID)
			mirrors[MirrorExpenseID(t.ID)] = struct{}{}
			continue
		}
		txs = append(txs, t)
	}
	s.data.SalaryTransactions = txs

	exps := s.data.Expenses[:0:0]
	for _, e := range s.data.Expenses {
		if _, ok := mirrors[e.ID]; ok {
			rm.Mirrors = append(rm.Mirrors, e.ID)
			continue
		}
		exps = append(exps, e)
	}
	s.data.Expenses = exps

	s.commit()
	return rm, nil
}

// MarkAttendance records the status of a staff member for a day, replacing
// any earlier mark for the same pair.
func (s *Store) MarkAttendance(staffID, date string, status core.AttendanceStatus) (core.AttendanceRecord, error) {
	rec := core.AttendanceRecord{StaffID: staffID, Date: core.NormalizeDay(date), Status: status}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.data.HasStaff(staffID) {
		return core.AttendanceRecord{}, fmt.Errorf("%w: %s", ErrUnknownStaff, staffID)
	}
	for i, a := range s.data.Attendance {
		if a.StaffID == staffID && a.Date == rec.Date {
			rec.ID = a.ID
			if err := rec.Validate(); err != nil {
				return core.AttendanceRecord{}, err
			}
			s.data.Attendance[i] = rec
			s.commit()
			return rec, nil
		}
	}
	rec.ID = s.newID("att")
	if err := rec.Validate(); err != nil {
		return core.AttendanceRecord{}, err
	}
	s.data.Attendance = append(s.data.Attendance, rec)
	s.commit()
	return rec, nil
}

func (s *Store) DeleteAttendance(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Attendance {
		if s.data.Attendance[i].ID == id {
			s.data.Attendance = append(s.data.Attendance[:i:i], s.data.Attendance[i+1:]...)
			s.commit()
			return nil
		}
	}
	return notFound("attendance", id)
}

// Payroll pairs a salary transaction with its mirrored expense.
type Payroll struct {
	Transaction core.SalaryTransaction
	Mirror      core.ExpenseEntry
}

func (s *Store) preparePayroll(tx core.SalaryTransaction) (Payroll, error) {
	member, ok := s.data.StaffByID(tx.StaffID)
	if !ok {
		return Payroll{}, fmt.Errorf("%w: %s", ErrUnknownStaff, tx.StaffID)
	}
	if err := tx.Validate(); err != nil {
		return Payroll{}, err
	}
	mirror := MirrorExpense(tx, member.Name)
	if err := mirror.Validate(); err != nil {
		return Payroll{}, err
	}
	return Payroll{Transaction: tx, Mirror: mirror}, nil
}

// AddSalaryTransaction stores a transaction and its mirror together. If
// either one is invalid neither is stored.
func (s *Store) AddSalaryTransaction(tx core.SalaryTransaction) (Payroll, error) {
	tx.ID = s.assignID(tx.ID, "sal")
	tx.Date = core.NormalizeDay(tx.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.preparePayroll(tx)
	if err != nil {
		return Payroll{}, err
	}
	if taken(s.data.SalaryTransactions, tx.ID, func(x core.SalaryTransaction) string { return x.ID }) {
		return Payroll{}, duplicateID()
	}
	s.data.SalaryTransactions = append(s.data.SalaryTransactions, p.Transaction)
	s.data.Expenses = append(s.data.Expenses, p.Mirror)
	s.commit()
	return p, nil
}

// UpdateSalaryTransaction replaces a transaction and rewrites its mirror.
func (s *Store) UpdateSalaryTransaction(tx core.SalaryTransaction) (Payroll, error) {
	tx.Date = core.NormalizeDay(tx.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.data.SalaryTransactions {
		if s.data.SalaryTransactions[i].ID == tx.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Payroll{}, notFound("salary transaction", tx.ID)
	}
	p, err := s.preparePayroll(tx)
	if err != nil {
		return Payroll{}, err
	}
	s.data.SalaryTransactions[idx] = p.Transaction
	replaced := false
	for i := range s.data.Expenses {
		if s.data.Expenses[i].ID == p.Mirror.ID {
			s.data.Expenses[i] = p.Mirror
			replaced = true
			break
		}
	}
	if !replaced {
		s.data.Expenses = append(s.data.Expenses, p.Mirror)
	}
	s.commit()
	return p, nil
}

// DeleteSalaryTransaction removes a transaction and its mirror.
func (s *Store) DeleteSalaryTransaction(id string) (Payroll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.data.SalaryTransactions {
		if t.ID != id {
			continue
		}
		p := Payroll{Transaction: t}
		mirrorID := MirrorExpenseID(id)
		for _, e := range s.data.Expenses {
			if e.ID == mirrorID {
				p.Mirror = e
				break
			}
		}
		s.data.SalaryTransactions = append(s.data.SalaryTransactions[:i:i], s.data.SalaryTransactions[i+1:]...)
		s.removeExpense(mirrorID)
		s.commit()
		return p, nil
	}
	return Payroll{}, notFound("salary transaction", id)
}
