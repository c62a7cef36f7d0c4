package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
)

type EntryKind string

const (
	Credit EntryKind = "CR"
	Debit  EntryKind = "DR"
)

// LedgerItem is one row of the monthly statement.
type LedgerItem struct {
	ID          string           `json:"id"`
	Date        string           `json:"date"`
	Kind        EntryKind        `json:"type"`
	Label       string           `json:"label"`
	Amount      decimal.Decimal  `json:"amount"`
	Notes       string           `json:"notes,omitempty"`
	PaymentMode core.PaymentMode `json:"payment_mode,omitempty"`
	Payroll     bool             `json:"payroll,omitempty"`
}

type Ledger struct {
	Year         int             `json:"year"`
	Month        time.Month      `json:"month"`
	Items        []LedgerItem    `json:"items"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
}

// MonthlyLedger lists every income (CR) and expense (DR) of the month,
// mirrored payroll included, newest first. Rows sharing a date keep their
// stored order, income before expenses.
func MonthlyLedger(s ledger.Snapshot, year int, month time.Month) Ledger {
	out := Ledger{Year: year, Month: month, Items: []LedgerItem{}}
	for _, e := range s.Income {
		b, ok := core.ParseBucket(e.Date)
		if !ok || !b.In(year, month) {
			continue
		}
		out.Items = append(out.Items, LedgerItem{
			ID: e.ID, Date: b.DayKey(), Kind: Credit, Label: string(e.Source), Amount: e.Amount, Notes: e.Notes,
		})
		out.TotalIncome = out.TotalIncome.Add(e.Amount)
	}
	for _, e := range s.Expenses {
		b, ok := core.ParseBucket(e.Date)
		if !ok || !b.In(year, month) {
			continue
		}
		out.Items = append(out.Items, LedgerItem{
			ID: e.ID, Date: b.DayKey(), Kind: Debit, Label: string(e.Category), Amount: e.Amount,
			Notes: e.Notes, PaymentMode: e.PaymentMode, Payroll: ledger.IsMirror(e.ID),
		})
		out.TotalExpense = out.TotalExpense.Add(e.Amount)
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].Date > out.Items[j].Date
	})
	return out
}

// Dimension selects the grouping of CategoryMix.
type Dimension string

const (
	ByIncomeSource    Dimension = "income-source"
	ByExpenseCategory Dimension = "expense-category"
)

func (d Dimension) IsValid() bool {
	return d == ByIncomeSource || d == ByExpenseCategory
}

// CategoryMix sums the month's amounts per source or category. Unknown
// dimensions and empty months give an empty map.
func CategoryMix(s ledger.Snapshot, year int, month time.Month, dim Dimension) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	in := func(date string) bool {
		b, ok := core.ParseBucket(date)
		return ok && b.In(year, month)
	}
	switch dim {
	case ByIncomeSource:
		for _, e := range s.Income {
			if in(e.Date) {
				out[string(e.Source)] = out[string(e.Source)].Add(e.Amount)
			}
		}
	case ByExpenseCategory:
		for _, e := range s.Expenses {
			if in(e.Date) {
				out[string(e.Category)] = out[string(e.Category)].Add(e.Amount)
			}
		}
	}
	return out
}

// AvailableYears lists the years holding income, expenses or payroll,
// newest first. The current year stands in when nothing is recorded.
func AvailableYears(s ledger.Snapshot, now time.Time) []int {
	seen := map[int]struct{}{}
	add := func(date string) {
		if b, ok := core.ParseBucket(date); ok {
			seen[b.Year] = struct{}{}
		}
	}
	for _, e := range s.Income {
		add(e.Date)
	}
	for _, e := range s.Expenses {
		add(e.Date)
	}
	for _, t := range s.SalaryTransactions {
		add(t.Date)
	}
	if len(seen) == 0 {
		return []int{now.UTC().Year()}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
