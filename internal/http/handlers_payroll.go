package http

import (
	"net/http"
	"strings"

	"hotelpro/internal/core"
	applog "hotelpro/internal/log"
	"hotelpro/internal/services"
)

type salaryInput struct {
	StaffID string                     `json:"staff_id"`
	Date    string                     `json:"date"`
	Type    core.SalaryTransactionType `json:"type"`
	Amount  Amount                     `json:"amount"`
	Notes   string                     `json:"notes"`
}

func (in salaryInput) transaction(id string) (core.SalaryTransaction, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return core.SalaryTransaction{}, err
	}
	return core.SalaryTransaction{
		ID:      id,
		StaffID: strings.TrimSpace(in.StaffID),
		Date:    strings.TrimSpace(in.Date),
		Type:    in.Type,
		Amount:  amount,
		Notes:   sanitizeInput(in.Notes),
	}, nil
}

// payrollResponse reports both halves of a payroll write. PartialFailure
// means exactly one of the two records reached the remote store.
type payrollResponse struct {
	Transaction       core.SalaryTransaction `json:"transaction"`
	Mirror            core.ExpenseEntry      `json:"mirror"`
	TransactionSynced bool                   `json:"transactionSynced"`
	MirrorSynced      bool                   `json:"mirrorSynced"`
	Synced            bool                   `json:"synced"`
	PartialFailure    bool                   `json:"partialFailure"`
}

func newPayrollResponse(p services.PayrollResult) payrollResponse {
	return payrollResponse{
		Transaction:       p.Transaction,
		Mirror:            p.Mirror,
		TransactionSynced: p.TransactionSynced,
		MirrorSynced:      p.MirrorSynced,
		Synced:            p.Synced(),
		PartialFailure:    p.PartialFailure(),
	}
}

func (s *Server) handleCreateSalaryTransaction(w http.ResponseWriter, r *http.Request) {
	var in salaryInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := in.transaction("")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	res, err := s.ledger.AddSalaryTransaction(r.Context(), tx)
	if err != nil {
		s.writeMutationError(w, r, core.TableSalaryTransactions, err)
		return
	}
	s.logMutation(r, applog.OpCreate, core.TableSalaryTransactions, res.Transaction.ID, res.Synced())
	NewJSONResponse().Status(http.StatusCreated).Body(newPayrollResponse(res)).Write(w)
}

func (s *Server) handleUpdateSalaryTransaction(w http.ResponseWriter, r *http.Request) {
	var in salaryInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := in.transaction(r.PathValue("id"))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	res, err := s.ledger.UpdateSalaryTransaction(r.Context(), tx)
	if err != nil {
		s.writeMutationError(w, r, core.TableSalaryTransactions, err)
		return
	}
	s.logMutation(r, applog.OpUpdate, core.TableSalaryTransactions, res.Transaction.ID, res.Synced())
	NewJSONResponse().Body(newPayrollResponse(res)).Write(w)
}

// handleDeleteSalaryTransaction removes the transaction and its mirrored
// expense.
func (s *Server) handleDeleteSalaryTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.ledger.DeleteSalaryTransaction(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, r, core.TableSalaryTransactions, err)
		return
	}
	s.logMutation(r, applog.OpDelete, core.TableSalaryTransactions, id, res.Synced())
	NewJSONResponse().Body(newPayrollResponse(res)).Write(w)
}
