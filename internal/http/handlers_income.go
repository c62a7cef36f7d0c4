package http

import (
	"net/http"
	"strings"

	"hotelpro/internal/core"
	applog "hotelpro/internal/log"
	"hotelpro/internal/report"
)

type incomeInput struct {
	Date   string            `json:"date"`
	Source core.IncomeSource `json:"source"`
	Amount Amount            `json:"amount"`
	Notes  string            `json:"notes"`
}

func (in incomeInput) entry(id string) (core.IncomeEntry, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return core.IncomeEntry{}, err
	}
	return core.IncomeEntry{
		ID:     id,
		Date:   strings.TrimSpace(in.Date),
		Source: in.Source,
		Amount: amount,
		Notes:  sanitizeInput(in.Notes),
	}, nil
}

// handleListIncome filters by ?date= and ?search=.
func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDay(q, "date", s.now(), false)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	list := report.FilterIncome(s.ledger.Snapshot(), report.Filter{Date: date, Search: q.Get("search")})
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in incomeInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := in.entry("")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	saved, synced, err := s.ledger.AddIncome(r.Context(), e)
	if err != nil {
		s.writeMutationError(w, r, core.TableIncome, err)
		return
	}
	s.logMutation(r, applog.OpCreate, core.TableIncome, saved.ID, synced)
	MutationResponse(http.StatusCreated, saved, synced).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var in incomeInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := in.entry(r.PathValue("id"))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	saved, synced, err := s.ledger.UpdateIncome(r.Context(), e)
	if err != nil {
		s.writeMutationError(w, r, core.TableIncome, err)
		return
	}
	s.logMutation(r, applog.OpUpdate, core.TableIncome, saved.ID, synced)
	MutationResponse(http.StatusOK, saved, synced).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	synced, err := s.ledger.DeleteIncome(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, r, core.TableIncome, err)
		return
	}
	s.logMutation(r, applog.OpDelete, core.TableIncome, id, synced)
	MutationResponse(http.StatusOK, nil, synced).Write(w)
}

// writeMutationError answers a rejected write. Only unexpected errors are
// logged; validation and lookup failures are the client's.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, table string, err error) {
	resp := ErrorFrom(err)
	if resp.StatusCode() >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger mutation failed",
			applog.FieldTable, table,
			applog.FieldError, err)
	}
	resp.Write(w)
}

func (s *Server) logMutation(r *http.Request, op, table, id string, synced bool) {
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Ledger mutation applied",
		applog.FieldOperation, op,
		applog.FieldTable, table,
		applog.FieldRecordID, id,
		"synced", synced)
}
