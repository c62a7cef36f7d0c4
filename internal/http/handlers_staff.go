package http

import (
	"net/http"
	"strings"

	"hotelpro/internal/core"
	applog "hotelpro/internal/log"
	"hotelpro/internal/report"
)

type staffInput struct {
	Name          string         `json:"name"`
	Role          core.StaffRole `json:"role"`
	MonthlySalary Amount         `json:"monthly_salary"`
	JoiningDate   string         `json:"joining_date"`
}

func (in staffInput) member(id string) (core.StaffMember, error) {
	salary, err := in.MonthlySalary.Decimal()
	if err != nil {
		return core.StaffMember{}, core.NewValidationError("monthly_salary", "format")
	}
	return core.StaffMember{
		ID:            id,
		Name:          sanitizeInput(in.Name),
		Role:          in.Role,
		MonthlySalary: salary,
		JoiningDate:   strings.TrimSpace(in.JoiningDate),
	}, nil
}

type staffRemovalResponse struct {
	StaffID            string   `json:"staff_id"`
	Attendance         []string `json:"attendance"`
	SalaryTransactions []string `json:"salaryTransactions"`
	Mirrors            []string `json:"mirroredExpenses"`
	FailedSyncs        int      `json:"failedSyncs"`
	Synced             bool     `json:"synced"`
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// handleListStaff returns the roster filtered by ?search= over name and
// role.
func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"staff": report.SearchStaff(s.ledger.Snapshot(), r.URL.Query().Get("search")),
	}).Write(w)
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var in staffInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m, err := in.member("")
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	saved, synced, err := s.ledger.AddStaff(r.Context(), m)
	if err != nil {
		s.writeMutationError(w, r, core.TableStaff, err)
		return
	}
	s.logMutation(r, applog.OpCreate, core.TableStaff, saved.ID, synced)
	MutationResponse(http.StatusCreated, saved, synced).Write(w)
}

func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	var in staffInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m, err := in.member(r.PathValue("id"))
	if err != nil {
		ErrorFrom(err).Write(w)
		return
	}
	saved, synced, err := s.ledger.UpdateStaff(r.Context(), m)
	if err != nil {
		s.writeMutationError(w, r, core.TableStaff, err)
		return
	}
	s.logMutation(r, applog.OpUpdate, core.TableStaff, saved.ID, synced)
	MutationResponse(http.StatusOK, saved, synced).Write(w)
}

// handleDeleteStaff removes the member with its attendance and payroll.
func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rm, err := s.ledger.DeleteStaff(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, r, core.TableStaff, err)
		return
	}
	s.logMutation(r, applog.OpDelete, core.TableStaff, id, rm.Synced())
	NewJSONResponse().Body(staffRemovalResponse{
		StaffID:            rm.Staff.ID,
		Attendance:         nonNilIDs(rm.Attendance),
		SalaryTransactions: nonNilIDs(rm.SalaryTransactions),
		Mirrors:            nonNilIDs(rm.Mirrors),
		FailedSyncs:        rm.FailedSyncs,
		Synced:             rm.Synced(),
	}).Write(w)
}

func (s *Server) handleStaffStats(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	stats, ok := report.StaffMonthStats(s.ledger.Snapshot(), r.PathValue("id"), p.Year, p.Month)
	if !ok {
		NotFoundError("staff member not found").Write(w)
		return
	}
	NewJSONResponse().Body(stats).Write(w)
}

func (s *Server) handleStaffHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap := s.ledger.Snapshot()
	if !snap.HasStaff(id) {
		NotFoundError("staff member not found").Write(w)
		return
	}
	NewJSONResponse().Body(report.HistoryFor(snap, id)).Write(w)
}

type attendanceInput struct {
	StaffID string                `json:"staff_id"`
	Date    string                `json:"date"`
	Status  core.AttendanceStatus `json:"status"`
}

// handleDayAttendance lists the roster with each member's mark for ?date=
// (today by default).
func (s *Server) handleDayAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(r.URL.Query(), "date", s.now(), true)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"date":  date,
		"marks": report.DayAttendance(s.ledger.Snapshot(), date),
	}).Write(w)
}

// handleMarkAttendance creates or replaces the mark of a member for a day.
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var in attendanceInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, synced, err := s.ledger.MarkAttendance(r.Context(), strings.TrimSpace(in.StaffID), strings.TrimSpace(in.Date), in.Status)
	if err != nil {
		s.writeMutationError(w, r, core.TableAttendance, err)
		return
	}
	s.logMutation(r, applog.OpUpdate, core.TableAttendance, rec.ID, synced)
	MutationResponse(http.StatusOK, rec, synced).Write(w)
}

func (s *Server) handleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	synced, err := s.ledger.DeleteAttendance(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, r, core.TableAttendance, err)
		return
	}
	s.logMutation(r, applog.OpDelete, core.TableAttendance, id, synced)
	MutationResponse(http.StatusOK, nil, synced).Write(w)
}
