package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
)

// StaffStats summarises one member's month.
type StaffStats struct {
	StaffID         string          `json:"staff_id"`
	TotalPaid       decimal.Decimal `json:"totalPaidThisMonth"`
	Balance         decimal.Decimal `json:"balance"`
	Presents        int             `json:"presents"`
	TotalDays       int             `json:"totalDays"`
	AttendanceScore int             `json:"attendanceScore"`
}

// StaffMonthStats reports what was paid to a member in the month, what is
// left of the monthly salary and how often they were present. The second
// result is false when the member is not on the roster.
func StaffMonthStats(s ledger.Snapshot, staffID string, year int, month time.Month) (StaffStats, bool) {
	member, ok := s.StaffByID(staffID)
	if !ok {
		return StaffStats{StaffID: staffID}, false
	}
	out := StaffStats{StaffID: staffID}
	for _, tx := range s.SalaryTransactions {
		if tx.StaffID != staffID {
			continue
		}
		if b, ok := core.ParseBucket(tx.Date); ok && b.In(year, month) {
			out.TotalPaid = out.TotalPaid.Add(tx.Amount)
		}
	}
	out.Balance = core.MaxZero(member.MonthlySalary.Sub(out.TotalPaid))

	for _, a := range s.Attendance {
		if a.StaffID != staffID {
			continue
		}
		if b, ok := core.ParseBucket(a.Date); ok && b.In(year, month) {
			out.TotalDays++
			if a.Status == core.Present {
				out.Presents++
			}
		}
	}
	if out.TotalDays > 0 {
		out.AttendanceScore = int(math.Round(float64(out.Presents) / float64(out.TotalDays) * 100))
	}
	return out, true
}

// StaffHistory is every payroll movement and attendance mark of a member.
type StaffHistory struct {
	Transactions []core.SalaryTransaction `json:"transactions"`
	Attendance   []core.AttendanceRecord  `json:"attendance"`
}

// HistoryFor returns a member's history, newest first.
func HistoryFor(s ledger.Snapshot, staffID string) StaffHistory {
	out := StaffHistory{Transactions: []core.SalaryTransaction{}, Attendance: []core.AttendanceRecord{}}
	for _, tx := range s.SalaryTransactions {
		if tx.StaffID == staffID {
			out.Transactions = append(out.Transactions, tx)
		}
	}
	for _, a := range s.Attendance {
		if a.StaffID == staffID {
			out.Attendance = append(out.Attendance, a)
		}
	}
	sort.SliceStable(out.Transactions, func(i, j int) bool {
		return dayKey(out.Transactions[i].Date) > dayKey(out.Transactions[j].Date)
	})
	sort.SliceStable(out.Attendance, func(i, j int) bool {
		return dayKey(out.Attendance[i].Date) > dayKey(out.Attendance[j].Date)
	})
	return out
}

// DayMark is the attendance of one roster member on a given day.
type DayMark struct {
	Staff  core.StaffMember      `json:"staff"`
	Status core.AttendanceStatus `json:"status,omitempty"`
	Marked bool                  `json:"marked"`
}

// DayAttendance lists the roster with each member's mark for date.
func DayAttendance(s ledger.Snapshot, date string) []DayMark {
	day := dayKey(date)
	byStaff := map[string]core.AttendanceStatus{}
	if day != "" {
		for _, a := range s.Attendance {
			if dayKey(a.Date) == day {
				byStaff[a.StaffID] = a.Status
			}
		}
	}
	out := make([]DayMark, 0, len(s.Staff))
	for _, m := range s.Staff {
		status, ok := byStaff[m.ID]
		out = append(out, DayMark{Staff: m, Status: status, Marked: ok})
	}
	return out
}

// SearchStaff filters the roster by name or role, case-insensitively.
func SearchStaff(s ledger.Snapshot, term string) []core.StaffMember {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []core.StaffMember{}
	for _, m := range s.Staff {
		if term == "" || strings.Contains(strings.ToLower(m.Name), term) || strings.Contains(strings.ToLower(string(m.Role)), term) {
			out = append(out, m)
		}
	}
	return out
}

// dayKey returns the normalised day of date, or "" when malformed. Malformed
// dates sort last in newest-first order.
func dayKey(date string) string {
	b, ok := core.ParseBucket(date)
	if !ok {
		return ""
	}
	return b.DayKey()
}
