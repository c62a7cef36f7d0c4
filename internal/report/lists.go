package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
)

// Filter narrows a list view. An empty Date lists every day.
type Filter struct {
	Date   string
	Search string
}

type IncomeList struct {
	Entries []core.IncomeEntry `json:"entries"`
	Total   decimal.Decimal    `json:"total"`
}

type ExpenseList struct {
	Entries []core.ExpenseEntry `json:"entries"`
	Total   decimal.Decimal     `json:"total"`
}

func (f Filter) day() (string, bool) {
	if strings.TrimSpace(f.Date) == "" {
		return "", true
	}
	d := dayKey(f.Date)
	return d, d != ""
}

func matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// FilterIncome returns the matching income entries, newest first, and their
// total. Search looks at notes, source and amount.
func FilterIncome(s ledger.Snapshot, f Filter) IncomeList {
	out := IncomeList{Entries: []core.IncomeEntry{}}
	day, ok := f.day()
	if !ok {
		return out
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, e := range s.Income {
		if day != "" && dayKey(e.Date) != day {
			continue
		}
		if !matches(term, e.Notes, string(e.Source), e.Amount.String()) {
			continue
		}
		out.Entries = append(out.Entries, e)
		out.Total = out.Total.Add(e.Amount)
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return dayKey(out.Entries[i].Date) > dayKey(out.Entries[j].Date)
	})
	return out
}

// FilterExpenses is FilterIncome for the expense ledger, mirrors included.
// Search looks at notes, category and amount.
func FilterExpenses(s ledger.Snapshot, f Filter) ExpenseList {
	out := ExpenseList{Entries: []core.ExpenseEntry{}}
	day, ok := f.day()
	if !ok {
		return out
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, e := range s.Expenses {
		if day != "" && dayKey(e.Date) != day {
			continue
		}
		if !matches(term, e.Notes, string(e.Category), e.Amount.String()) {
			continue
		}
		out.Entries = append(out.Entries, e)
		out.Total = out.Total.Add(e.Amount)
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return dayKey(out.Entries[i].Date) > dayKey(out.Entries[j].Date)
	})
	return out
}
