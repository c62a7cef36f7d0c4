package report

import (
	"testing"
	"time"

	"hotelpro/internal/core"
	"hotelpro/internal/ledger"
)

func staffSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Staff: []core.StaffMember{
			{ID: "s1", Name: "Asha Rao", Role: core.RoleCook, MonthlySalary: amt(20000)},
			{ID: "s2", Name: "Ravi", Role: core.RoleSecurity, MonthlySalary: amt(15000)},
		},
		SalaryTransactions: []core.SalaryTransaction{
			{ID: "t1", StaffID: "s1", Date: "2024-03-05", Type: core.TxAdvance, Amount: amt(5000)},
			{ID: "t2", StaffID: "s1", Date: "2024-03-28", Type: core.TxSalary, Amount: amt(17000)},
			{ID: "t3", StaffID: "s1", Date: "2024-02-28", Type: core.TxSalary, Amount: amt(20000)},
			{ID: "t4", StaffID: "s2", Date: "2024-03-28", Type: core.TxSalary, Amount: amt(6000)},
		},
		Attendance: []core.AttendanceRecord{
			{ID: "a1", StaffID: "s1", Date: "2024-03-01", Status: core.Present},
			{ID: "a2", StaffID: "s1", Date: "2024-03-02", Status: core.Present},
			{ID: "a3", StaffID: "s1", Date: "2024-03-03", Status: core.Absent},
			{ID: "a4", StaffID: "s1", Date: "2024-02-27", Status: core.Absent},
			{ID: "a5", StaffID: "s2", Date: "2024-03-01", Status: core.Present},
		},
	}
}

func TestStaffMonthStats(t *testing.T) {
	s := staffSnapshot()
	got, ok := StaffMonthStats(s, "s1", 2024, time.March)
	if !ok {
		t.Fatal("expected member")
	}
	if !got.TotalPaid.Equal(amt(22000)) || !got.Balance.IsZero() {
		t.Fatalf("overpaid month should clamp balance to zero: %+v", got)
	}
	if got.Presents != 2 || got.TotalDays != 3 || got.AttendanceScore != 67 {
		t.Fatalf("unexpected attendance stats %+v", got)
	}

	s2, _ := StaffMonthStats(s, "s2", 2024, time.March)
	if !s2.Balance.Equal(amt(9000)) || s2.AttendanceScore != 100 {
		t.Fatalf("unexpected stats %+v", s2)
	}

	empty, _ := StaffMonthStats(s, "s2", 2024, time.January)
	if empty.AttendanceScore != 0 || !empty.Balance.Equal(amt(15000)) {
		t.Fatalf("unexpected empty month %+v", empty)
	}

	if _, ok := StaffMonthStats(s, "ghost", 2024, time.March); ok {
		t.Fatal("unknown member should report false")
	}
}

func TestHistoryForNewestFirst(t *testing.T) {
	h := HistoryFor(staffSnapshot(), "s1")
	if len(h.Transactions) != 3 || h.Transactions[0].ID != "t2" || h.Transactions[2].ID != "t3" {
		t.Fatalf("unexpected transactions %+v", h.Transactions)
	}
	if len(h.Attendance) != 4 || h.Attendance[0].ID != "a3" || h.Attendance[3].ID != "a4" {
		t.Fatalf("unexpected attendance %+v", h.Attendance)
	}
}

func TestDayAttendance(t *testing.T) {
	marks := DayAttendance(staffSnapshot(), "2024-03-03")
	if len(marks) != 2 {
		t.Fatalf("expected whole roster, got %d", len(marks))
	}
	if !marks[0].Marked || marks[0].Status != core.Absent {
		t.Fatalf("unexpected mark for s1 %+v", marks[0])
	}
	if marks[1].Marked {
		t.Fatalf("s2 should be unmarked %+v", marks[1])
	}
}

func TestSearchStaff(t *testing.T) {
	s := staffSnapshot()
	cases := []struct {
		term string
		want int
	}{
		{"", 2},
		{"asha", 1},
		{"SECURITY", 1},
		{"manager", 0},
	}
	for _, tc := range cases {
		if got := len(SearchStaff(s, tc.term)); got != tc.want {
			t.Fatalf("search %q: got %d, want %d", tc.term, got, tc.want)
		}
	}
}

func TestFilterLists(t *testing.T) {
	s := ledger.Snapshot{
		Income: []core.IncomeEntry{
			{ID: "i1", Date: "2024-03-01", Source: core.SourceRoomRent, Amount: amt(1000), Notes: "Room 101"},
			{ID: "i2", Date: "2024-03-02", Source: core.SourceRestaurant, Amount: amt(250)},
			{ID: "i3", Date: "2024-03-01", Source: core.SourceExtraServices, Amount: amt(75), Notes: "laundry"},
		},
		Expenses: []core.ExpenseEntry{
			{ID: "e1", Date: "2024-03-01", Category: core.CategoryElectricity, Amount: amt(800)},
			{ID: "e2", Date: "2024-03-03", Category: core.CategoryMaintenance, Amount: amt(120), Notes: "Plumbing"},
		},
	}

	all := FilterIncome(s, Filter{})
	if len(all.Entries) != 3 || all.Entries[0].ID != "i2" || !all.Total.Equal(amt(1325)) {
		t.Fatalf("unexpected full list %+v", all)
	}
	day := FilterIncome(s, Filter{Date: "2024-03-01"})
	if len(day.Entries) != 2 || !day.Total.Equal(amt(1075)) {
		t.Fatalf("unexpected day list %+v", day)
	}
	if got := FilterIncome(s, Filter{Search: "LAUNDRY"}); len(got.Entries) != 1 || got.Entries[0].ID != "i3" {
		t.Fatalf("unexpected search result %+v", got)
	}
	if got := FilterIncome(s, Filter{Search: "250"}); len(got.Entries) != 1 || got.Entries[0].ID != "i2" {
		t.Fatalf("amount search failed %+v", got)
	}
	if got := FilterIncome(s, Filter{Date: "garbage"}); len(got.Entries) != 0 {
		t.Fatal("malformed filter date should match nothing")
	}

	exp := FilterExpenses(s, Filter{Search: "maint"})
	if len(exp.Entries) != 1 || exp.Entries[0].ID != "e2" || !exp.Total.Equal(amt(120)) {
		t.Fatalf("unexpected expense search %+v", exp)
	}
}
