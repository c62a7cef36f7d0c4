// Package report folds ledger snapshots into dashboard and report views.
//
// Every function is pure: it reads a snapshot and never fails. Records with a
// malformed date are left out of date-bucketed results, and attendance rows
// pointing at a missing staff member are not counted.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
)

// Daily is the dashboard view of a single day.
type Daily struct {
	Date         string          `json:"date"`
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	Profit       decimal.Decimal `json:"profit"`
	StaffPresent int             `json:"staffPresentCount"`
	TotalStaff   int             `json:"totalStaff"`
	Margin       float64         `json:"margin"`
}

// DailyMetrics sums the income and expenses recorded on date and counts the
// staff marked present.
func DailyMetrics(s ledger.Snapshot, date string) Daily {
	out := Daily{Date: date, TotalStaff: len(s.Staff)}
	day, ok := core.ParseBucket(date)
	if !ok {
		return out
	}
	out.Date = day.DayKey()

	for _, e := range s.Income {
		if b, ok := core.ParseBucket(e.Date); ok && b == day {
			out.Income = out.Income.Add(e.Amount)
		}
	}
	for _, e := range s.Expenses {
		if b, ok := core.ParseBucket(e.Date); ok && b == day {
			out.Expenses = out.Expenses.Add(e.Amount)
		}
	}
	for _, a := range s.Attendance {
		if a.Status != core.Present || !s.HasStaff(a.StaffID) {
			continue
		}
		if b, ok := core.ParseBucket(a.Date); ok && b == day {
			out.StaffPresent++
		}
	}
	out.Profit = out.Income.Sub(out.Expenses)
	out.Margin = core.Percent(out.Profit, out.Income)
	return out
}

// monthKey identifies a calendar month.
type monthKey struct {
	year  int
	month time.Month
}

// totals accumulates income and expenses per month.
//
// Every expense entry counts, payroll mirrors included, and salary
// transaction amounts are added on top (ledger plus salaries).
type totals map[monthKey]*monthTotals

type monthTotals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Salaries decimal.Decimal
}

func monthlyTotals(s ledger.Snapshot, keep func(monthKey) bool) totals {
	out := totals{}
	at := func(b core.Bucket) *monthTotals {
		k := monthKey{b.Year, b.Month}
		if !keep(k) {
			return nil
		}
		t, ok := out[k]
		if !ok {
			t = &monthTotals{}
			out[k] = t
		}
		return t
	}

	for _, e := range s.Income {
		if b, ok := core.ParseBucket(e.Date); ok {
			if t := at(b); t != nil {
				t.Income = t.Income.Add(e.Amount)
			}
		}
	}
	for _, e := range s.Expenses {
		if b, ok := core.ParseBucket(e.Date); ok {
			if t := at(b); t != nil {
				t.Expenses = t.Expenses.Add(e.Amount)
			}
		}
	}
	for _, tx := range s.SalaryTransactions {
		if b, ok := core.ParseBucket(tx.Date); ok {
			if t := at(b); t != nil {
				t.Expenses = t.Expenses.Add(tx.Amount)
				t.Salaries = t.Salaries.Add(tx.Amount)
			}
		}
	}
	return out
}

func (t totals) get(year int, month time.Month) monthTotals {
	if v, ok := t[monthKey{year, month}]; ok {
		return *v
	}
	return monthTotals{}
}

// MonthBucket is one month of the rolling dashboard summary.
type MonthBucket struct {
	Label    string          `json:"label"`
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// MonthlySummary returns window consecutive months ending at (year, month),
// oldest first.
func MonthlySummary(s ledger.Snapshot, year int, month time.Month, window int) []MonthBucket {
	if window <= 0 {
		return []MonthBucket{}
	}
	startY, startM := core.ShiftMonth(year, month, -(window - 1))
	first := monthKey{startY, startM}
	last := monthKey{year, month}
	t := monthlyTotals(s, func(k monthKey) bool {
		return !before(k, first) && !before(last, k)
	})

	out := make([]MonthBucket, 0, window)
	for i := 0; i < window; i++ {
		y, m := core.ShiftMonth(startY, startM, i)
		v := t.get(y, m)
		out = append(out, MonthBucket{
			Label:    core.MonthLabel(int(m) - 1),
			Year:     y,
			Month:    m,
			Income:   v.Income,
			Expenses: v.Expenses,
		})
	}
	return out
}

func before(a, b monthKey) bool {
	if a.year != b.year {
		return a.year < b.year
	}
	return a.month < b.month
}

// MonthOverMonthGrowth is the percentage change in income between two
// buckets, 0 when the previous month had no income.
func MonthOverMonthGrowth(current, previous MonthBucket) float64 {
	return core.Growth(current.Income, previous.Income)
}

// MonthPoint is one month of the annual trajectory.
type MonthPoint struct {
	Label    string          `json:"name"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

// AnnualTrajectory always returns twelve points, January first.
func AnnualTrajectory(s ledger.Snapshot, year int) []MonthPoint {
	t := monthlyTotals(s, func(k monthKey) bool { return k.year == year })
	out := make([]MonthPoint, 12)
	for i := range out {
		v := t.get(year, time.Month(i+1))
		out[i] = MonthPoint{
			Label:    core.MonthLabel(i),
			Income:   v.Income,
			Expenses: v.Expenses,
			Profit:   v.Income.Sub(v.Expenses),
		}
	}
	return out
}

// MonthReport is the headline figures of a month, ready for exporters.
type MonthReport struct {
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	Income    decimal.Decimal `json:"monthlyIncome"`
	Expenses  decimal.Decimal `json:"monthlyExpenses"`
	Salaries  decimal.Decimal `json:"monthlySalaries"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

// MonthReportFor returns income, ledger expenses plus salaries, salaries alone
// and the resulting net profit.
func MonthReportFor(s ledger.Snapshot, year int, month time.Month) MonthReport {
	t := monthlyTotals(s, func(k monthKey) bool { return k == monthKey{year, month} })
	v := t.get(year, month)
	return MonthReport{
		Year:      year,
		Month:     month,
		Income:    v.Income,
		Expenses:  v.Expenses,
		Salaries:  v.Salaries,
		NetProfit: v.Income.Sub(v.Expenses),
	}
}
