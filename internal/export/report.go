// Package export turns ledger aggregates into tabular reports for
// spreadsheet formats.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
	"hotelpro/internal/report"
)

// Sheet names shared by every exporter.
const (
	SummarySheet    = "Financial Summary"
	TrajectorySheet = "Annual Trajectory"
)

// Report is everything an exporter writes for one month.
type Report struct {
	Year        int
	Month       time.Month
	Summary     report.MonthReport
	Trajectory  []report.MonthPoint
	IncomeMix   map[string]decimal.Decimal
	ExpenseMix  map[string]decimal.Decimal
	GeneratedAt time.Time
}

// Build computes the report of a month and the trajectory of its year.
func Build(s ledger.Snapshot, year int, month time.Month, now time.Time) Report {
	return Report{
		Year:        year,
		Month:       month,
		Summary:     report.MonthReportFor(s, year, month),
		Trajectory:  report.AnnualTrajectory(s, year),
		IncomeMix:   report.CategoryMix(s, year, month, report.ByIncomeSource),
		ExpenseMix:  report.CategoryMix(s, year, month, report.ByExpenseCategory),
		GeneratedAt: now.UTC(),
	}
}

// Period is the human label of the reported month, e.g. "March 2024".
func (r Report) Period() string {
	return fmt.Sprintf("%s %d", core.MonthName(int(r.Month)-1), r.Year)
}

// Filename is the default file name of the xlsx export.
func (r Report) Filename() string {
	return fmt.Sprintf("hotelpro-report-%04d-%02d.xlsx", r.Year, int(r.Month))
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// SummaryRows is the Financial Summary sheet content, header first.
func (r Report) SummaryRows() [][]any {
	rows := [][]any{
		{"HotelPro Financial Summary", r.Period()},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{},
		{"Metric", "Amount"},
		{"Total Income", amount(r.Summary.Income)},
		{"Total Expenses", amount(r.Summary.Expenses)},
		{"Staff Salaries", amount(r.Summary.Salaries)},
		{"Net Profit", amount(r.Summary.NetProfit)},
	}
	rows = append(rows, mixRows("Income Source", r.IncomeMix)...)
	rows = append(rows, mixRows("Expense Category", r.ExpenseMix)...)
	return rows
}

func mixRows(title string, mix map[string]decimal.Decimal) [][]any {
	if len(mix) == 0 {
		return nil
	}
	keys := make([]string, 0, len(mix))
	for k := range mix {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := [][]any{{}, {title, "Amount"}}
	for _, k := range keys {
		rows = append(rows, []any{k, amount(mix[k])})
	}
	return rows
}

// TrajectoryRows is the Annual Trajectory sheet content, header first.
func (r Report) TrajectoryRows() [][]any {
	rows := make([][]any, 0, len(r.Trajectory)+1)
	rows = append(rows, []any{"Month", "Income", "Expenses", "Profit"})
	for _, p := range r.Trajectory {
		rows = append(rows, []any{p.Label, amount(p.Income), amount(p.Expenses), amount(p.Profit)})
	}
	return rows
}
