package ledger

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
)

// DemoSnapshot returns a small hotel with a few days of activity around
// today. Salary transactions come with their mirrors.
func DemoSnapshot(today time.Time) Snapshot {
	day := func(offset int) string { return core.Today(today.AddDate(0, 0, offset)) }
	lastMonth := core.Today(today.AddDate(0, -1, 0))
	y, m, _ := today.UTC().Date()
	midMonth := time.Date(y, m, 15, 0, 0, 0, 0, time.UTC).Format(core.DayLayout)
	amt := decimal.NewFromInt

	s := Snapshot{
		Staff: []core.StaffMember{
			{ID: "staff-1", Name: "John Doe", Role: core.RoleManager, MonthlySalary: amt(50000), JoiningDate: "2023-01-15"},
			{ID: "staff-2", Name: "Jane Smith", Role: core.RoleReceptionist, MonthlySalary: amt(25000), JoiningDate: "2023-03-01"},
			{ID: "staff-3", Name: "Peter Jones", Role: core.RoleCook, MonthlySalary: amt(30000), JoiningDate: "2023-02-20"},
			{ID: "staff-4", Name: "Mary Williams", Role: core.RoleCleaner, MonthlySalary: amt(18000), JoiningDate: "2023-05-10"},
			{ID: "staff-5", Name: "David Brown", Role: core.RoleSecurity, MonthlySalary: amt(22000), JoiningDate: "2023-04-01"},
		},
		Income: []core.IncomeEntry{
			{ID: "inc-1", Date: day(0), Source: core.SourceRoomRent, Amount: amt(15000), Notes: "Rooms 101, 102"},
			{ID: "inc-2", Date: day(0), Source: core.SourceRestaurant, Amount: amt(4500)},
			{ID: "inc-3", Date: day(-1), Source: core.SourceRoomRent, Amount: amt(12000)},
			{ID: "inc-4", Date: day(-2), Source: core.SourceExtraServices, Amount: amt(2000), Notes: "Laundry service"},
			{ID: "inc-5", Date: lastMonth, Source: core.SourceRoomRent, Amount: amt(18000)},
		},
		Expenses: []core.ExpenseEntry{
			{ID: "exp-1", Date: day(0), Category: core.CategoryFoodGrocery, Amount: amt(3000), PaymentMode: core.PaymentCash, Notes: "Vegetables"},
			{ID: "exp-2", Date: day(-1), Category: core.CategoryMaintenance, Amount: amt(1500), PaymentMode: core.PaymentOnline, Notes: "Plumbing repair"},
			{ID: "exp-3", Date: day(-2), Category: core.CategoryElectricity, Amount: amt(8000), PaymentMode: core.PaymentOnline},
		},
		SalaryTransactions: []core.SalaryTransaction{
			{ID: "sal-1", StaffID: "staff-2", Date: midMonth, Type: core.TxAdvance, Amount: amt(5000), Notes: "Urgent need"},
			{ID: "sal-2", StaffID: "staff-1", Date: lastMonth, Type: core.TxSalary, Amount: amt(50000)},
			{ID: "sal-3", StaffID: "staff-2", Date: lastMonth, Type: core.TxSalary, Amount: amt(25000)},
		},
	}

	statuses := []core.AttendanceStatus{core.Present, core.Present, core.Absent, core.Present, core.Present}
	n := 1
	for _, offset := range []int{0, -1} {
		for i, member := range s.Staff {
			status := core.Present
			if offset == 0 {
				status = statuses[i]
			}
			s.Attendance = append(s.Attendance, core.AttendanceRecord{
				ID:      "att-" + strconv.Itoa(n),
				StaffID: member.ID,
				Date:    day(offset),
				Status:  status,
			})
			n++
		}
	}

	for _, tx := range s.SalaryTransactions {
		member, _ := s.StaffByID(tx.StaffID)
		s.Expenses = append(s.Expenses, MirrorExpense(tx, member.Name))
	}
	return s
}
