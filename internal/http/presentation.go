package http

import "hotelpro/internal/core"

// Badge is how a client renders an enum value. Icons are lucide names.
type Badge struct {
	Value string `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

const (
	colorIncome  = "#10b981"
	colorExpense = "#ef4444"
	colorNeutral = "#6b7280"
)

var (
	sourceIcons = map[core.IncomeSource]string{
		core.SourceRoomRent:      "bed-double",
		core.SourceRestaurant:    "utensils",
		core.SourceExtraServices: "sparkles",
		core.SourceOthers:        "more-horizontal",
	}
	categoryIcons = map[core.ExpenseCategory]string{
		core.CategoryFoodGrocery: "shopping-cart",
		core.CategoryElectricity: "zap",
		core.CategoryMaintenance: "wrench",
		core.CategorySalary:      "user",
		core.CategoryOthers:      "coffee",
	}
	roleColors = map[core.StaffRole]string{
		core.RoleManager:      "#8b5cf6",
		core.RoleReceptionist: "#3b82f6",
		core.RoleCook:         "#f59e0b",
		core.RoleCleaner:      "#14b8a6",
		core.RoleSecurity:     "#64748b",
	}
)

// Catalog lists every enum value with its badge, in display order.
type Catalog struct {
	IncomeSources     []Badge  `json:"incomeSources"`
	ExpenseCategories []Badge  `json:"expenseCategories"`
	StaffRoles        []Badge  `json:"staffRoles"`
	PaymentModes      []string `json:"paymentModes"`
}

func buildCatalog() Catalog {
	c := Catalog{PaymentModes: []string{string(core.PaymentCash), string(core.PaymentOnline)}}
	for _, s := range core.IncomeSources() {
		c.IncomeSources = append(c.IncomeSources, Badge{Value: string(s), Icon: sourceIcons[s], Color: colorIncome})
	}
	for _, cat := range core.ExpenseCategories() {
		c.ExpenseCategories = append(c.ExpenseCategories, Badge{Value: string(cat), Icon: categoryIcons[cat], Color: colorExpense})
	}
	for _, r := range core.StaffRoles() {
		color, ok := roleColors[r]
		if !ok {
			color = colorNeutral
		}
		c.StaffRoles = append(c.StaffRoles, Badge{Value: string(r), Icon: "user", Color: color})
	}
	return c
}
