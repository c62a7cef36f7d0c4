package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Remote table names, one per collection.
const (
	TableIncome             = "income"
	TableExpenses           = "expenses"
	TableStaff              = "staff"
	TableAttendance         = "attendance"
	TableSalaryTransactions = "salary_transactions"
)

const (
	SourceRoomRent      IncomeSource = "Room Rent"
	SourceRestaurant    IncomeSource = "Restaurant"
	SourceExtraServices IncomeSource = "Extra Services"
	SourceOthers        IncomeSource = "Others"
)

const (
	CategoryFoodGrocery ExpenseCategory = "Food & Grocery"
	CategoryElectricity ExpenseCategory = "Electricity"
	CategoryMaintenance ExpenseCategory = "Maintenance"
	CategorySalary      ExpenseCategory = "Salary"
	CategoryOthers      ExpenseCategory = "Others"
)

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentOnline PaymentMode = "Online"
)

const (
	RoleManager      StaffRole = "Manager"
	RoleReceptionist StaffRole = "Receptionist"
	RoleCook         StaffRole = "Cook"
	RoleCleaner      StaffRole = "Cleaner"
	RoleSecurity     StaffRole = "Security"
)

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
)

const (
	TxSalary  SalaryTransactionType = "Salary"
	TxAdvance SalaryTransactionType = "Advance"
)

type (
	IncomeSource          string
	ExpenseCategory       string
	PaymentMode           string
	StaffRole             string
	AttendanceStatus      string
	SalaryTransactionType string

	IncomeEntry struct {
		ID     string          `json:"id" validate:"required"`
		Date   string          `json:"date" validate:"required,isodate"`
		Source IncomeSource    `json:"source" validate:"required,enum"`
		Amount decimal.Decimal `json:"amount" validate:"gte=0"`
		Notes  string          `json:"notes,omitempty" validate:"max=500"`
	}

	ExpenseEntry struct {
		ID          string          `json:"id" validate:"required"`
		Date        string          `json:"date" validate:"required,isodate"`
		Category    ExpenseCategory `json:"category" validate:"required,enum"`
		Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
		PaymentMode PaymentMode     `json:"payment_mode" validate:"required,enum"`
		Notes       string          `json:"notes,omitempty" validate:"max=500"`
	}

	StaffMember struct {
		ID            string          `json:"id" validate:"required"`
		Name          string          `json:"name" validate:"required,max=120"`
		Role          StaffRole       `json:"role" validate:"required,enum"`
		MonthlySalary decimal.Decimal `json:"monthly_salary" validate:"gte=0"`
		JoiningDate   string          `json:"joining_date" validate:"required,isodate"`
	}

	AttendanceRecord struct {
		ID      string           `json:"id" validate:"required"`
		StaffID string           `json:"staff_id" validate:"required"`
		Date    string           `json:"date" validate:"required,isodate"`
		Status  AttendanceStatus `json:"status" validate:"required,enum"`
	}

	SalaryTransaction struct {
		ID      string                `json:"id" validate:"required"`
		StaffID string                `json:"staff_id" validate:"required"`
		Date    string                `json:"date" validate:"required,isodate"`
		Type    SalaryTransactionType `json:"type" validate:"required,enum"`
		Amount  decimal.Decimal       `json:"amount" validate:"gte=0"`
		Notes   string                `json:"notes,omitempty" validate:"max=500"`
	}
)

// Record is anything that can be mirrored to the remote store.
type Record interface {
	RecordID() string
}

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
)

func IncomeSources() []IncomeSource {
	return []IncomeSource{SourceRoomRent, SourceRestaurant, SourceExtraServices, SourceOthers}
}

func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{CategoryFoodGrocery, CategoryElectricity, CategoryMaintenance, CategorySalary, CategoryOthers}
}

func StaffRoles() []StaffRole {
	return []StaffRole{RoleManager, RoleReceptionist, RoleCook, RoleCleaner, RoleSecurity}
}

func (s IncomeSource) Valid() bool {
	for _, v := range IncomeSources() {
		if s == v {
			return true
		}
	}
	return false
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range ExpenseCategories() {
		if c == v {
			return true
		}
	}
	return false
}

func (m PaymentMode) Valid() bool { return m == PaymentCash || m == PaymentOnline }

func (r StaffRole) Valid() bool {
	for _, v := range StaffRoles() {
		if r == v {
			return true
		}
	}
	return false
}

func (s AttendanceStatus) Valid() bool { return s == Present || s == Absent }

func (t SalaryTransactionType) Valid() bool { return t == TxSalary || t == TxAdvance }

func (e IncomeEntry) RecordID() string       { return e.ID }
func (e ExpenseEntry) RecordID() string      { return e.ID }
func (m StaffMember) RecordID() string       { return m.ID }
func (a AttendanceRecord) RecordID() string  { return a.ID }
func (t SalaryTransaction) RecordID() string { return t.ID }

func (e IncomeEntry) Validate() error       { return validateStruct(e) }
func (e ExpenseEntry) Validate() error      { return validateStruct(e) }
func (m StaffMember) Validate() error       { return validateStruct(m) }
func (a AttendanceRecord) Validate() error  { return validateStruct(a) }
func (t SalaryTransaction) Validate() error { return validateStruct(t) }
