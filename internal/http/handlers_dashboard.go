package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
	"hotelpro/internal/report"
	"hotelpro/internal/services"
)

type dashboardResponse struct {
	Daily   report.Daily         `json:"daily"`
	Summary []report.MonthBucket `json:"monthlySummary"`
	Growth  float64              `json:"monthOverMonthGrowth"`
	Sync    services.SyncSummary `json:"sync"`
}

// handleDashboard serves the day figures for ?date= (today by default) and
// the rolling summary ending in that day's month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(r.URL.Query(), "date", s.now(), true)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, _ := core.ParseBucket(date)
	snap := s.ledger.Snapshot()

	resp := dashboardResponse{
		Daily:   report.DailyMetrics(snap, date),
		Summary: report.MonthlySummary(snap, b.Year, b.Month, s.summaryWindow),
		Sync:    s.ledger.Sync().Summary(),
	}
	if n := len(resp.Summary); n >= 2 {
		resp.Growth = report.MonthOverMonthGrowth(resp.Summary[n-1], resp.Summary[n-2])
	}
	NewJSONResponse().Body(resp).Write(w)
}

type trajectoryResponse struct {
	Year   int                 `json:"year"`
	Months []report.MonthPoint `json:"months"`
}

func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(trajectoryResponse{Year: year, Months: s.trajectoryFor(year)}).Write(w)
}

func (s *Server) handleMonthlyLedger(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(s.ledgerFor(p.Year, p.Month)).Write(w)
}

type mixResponse struct {
	Year      int                        `json:"year"`
	Month     time.Month                 `json:"month"`
	Dimension report.Dimension           `json:"by"`
	Totals    map[string]decimal.Decimal `json:"totals"`
}

// handleCategoryMix groups the month by ?by=income-source (default) or
// expense-category.
func (s *Server) handleCategoryMix(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := ParseMonthParams(q, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	dim := report.Dimension(q.Get("by"))
	if dim == "" {
		dim = report.ByIncomeSource
	}
	if !dim.IsValid() {
		BadRequestError("by must be income-source or expense-category").Write(w)
		return
	}
	NewJSONResponse().Body(mixResponse{
		Year:      p.Year,
		Month:     p.Month,
		Dimension: dim,
		Totals:    report.CategoryMix(s.ledger.Snapshot(), p.Year, p.Month, dim),
	}).Write(w)
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(report.MonthReportFor(s.ledger.Snapshot(), p.Year, p.Month)).Write(w)
}

func (s *Server) handleAvailableYears(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string][]int{
		"years": report.AvailableYears(s.ledger.Snapshot(), s.now()),
	}).Write(w)
}
