package http

import (
	"net/http"
	"strings"

	"hotelpro/internal/core"
	applog "hotelpro/internal/log"
	"hotelpro/internal/report"
)

type expenseInput struct {
	Date        string               `json:"date"`
	Category    core.ExpenseCategory `json:"category"`
	Amount      Amount               `json:"amount"`
	PaymentMode core.PaymentMode     `json:"payment_mode"`
	Notes       string               `json:"notes"`
}

func (in expenseInput) entry(id string) (core.ExpenseEntry, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	mode := in.PaymentMode
	if mode == "" {
		mode = core.PaymentCash
	}
	return core.ExpenseEntry{
		ID:          id,
		Date:        strings.TrimSpace(in.Date),
		Category:    in.Category,
		Amount:      amount,
		PaymentMode: mode,
		Notes:       sanitizeInput(in.Notes),
	}, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDay(q, "date", s.now(), false)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	list := report.FilterExpenses(s.ledger.Snapshot(), report.Filter{Date: date, Search: q.Get("search")})
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := in.entry("")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	saved, synced, err := s.ledger.AddExpense(r.Context(), e)
	if err != nil {
		s.writeMutationError(w, r, core.TableExpenses, err)
		return
	}
	s.logMutation(r, applog.OpCreate, core.TableExpenses, saved.ID, synced)
	MutationResponse(http.StatusCreated, saved, synced).Write(w)
}

// handleUpdateExpense answers 409 for payroll mirrors; those change through
// their salary transaction.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := in.entry(r.PathValue("id"))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	saved, synced, err := s.ledger.UpdateExpense(r.Context(), e)
	if err != nil {
		s.writeMutationError(w, r, core.TableExpenses, err)
		return
	}
	s.logMutation(r, applog.OpUpdate, core.TableExpenses, saved.ID, synced)
	MutationResponse(http.StatusOK, saved, synced).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	synced, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, r, core.TableExpenses, err)
		return
	}
	s.logMutation(r, applog.OpDelete, core.TableExpenses, id, synced)
	MutationResponse(http.StatusOK, nil, synced).Write(w)
}
