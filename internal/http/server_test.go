package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"hotelpro/internal/auth"
	"hotelpro/internal/core"
	"hotelpro/internal/export"
	"hotelpro/internal/ledger"
	"hotelpro/internal/middleware/ratelimit"
	"hotelpro/internal/remote/memory"
	"hotelpro/internal/services"
	sheetsmem "hotelpro/internal/sheets/memory"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

var errOffline = errors.New("network offline")

type fixture struct {
	srv    *Server
	remote *memory.Store

	mu      sync.Mutex
	offline bool
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{remote: memory.New()}
	f.remote.SetFailFunc(func(_, _, _ string) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.offline {
			return errOffline
		}
		return nil
	})

	store := ledger.New(ledger.Snapshot{})
	opts := Options{
		Ledger: services.NewLedgerService(store, services.NewSyncService(f.remote, store, time.Second)),
		Now:    func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := NewServer(":0", opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	f.srv = srv
	return f
}

func (f *fixture) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fixture) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type incomeMutation struct {
	Record core.IncomeEntry `json:"record"`
	Synced bool             `json:"synced"`
}

func (f *fixture) addStaff(t *testing.T) core.StaffMember {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/staff", map[string]any{
		"name": "Asha", "role": "Cook", "monthly_salary": 20000, "joining_date": "2023-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create staff status=%d body=%s", rec.Code, rec.Body)
	}
	return decode[struct {
		Record core.StaffMember `json:"record"`
	}](t, rec).Record
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := f.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing request id", path)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}
	ready := decode[map[string]any](t, f.do(t, http.MethodGet, "/readyz", nil))
	if ready["status"] != "ready" {
		t.Errorf("unexpected readiness %v", ready)
	}
}

func TestIncomeLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Room Rent","amount":"1500","notes":"Suite 4"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body)
	}
	created := decode[incomeMutation](t, rec)
	if !created.Synced || created.Record.ID == "" {
		t.Fatalf("unexpected mutation %+v", created)
	}

	list := decode[struct {
		Entries []core.IncomeEntry `json:"entries"`
		Total   decimal.Decimal    `json:"total"`
	}](t, f.do(t, http.MethodGet, "/api/income?date=2024-03-15&search=suite", nil))
	if len(list.Entries) != 1 || !list.Total.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = f.do(t, http.MethodPut, "/api/income/"+created.Record.ID, map[string]any{
		"date": "2024-03-15", "source": "Restaurant", "amount": "1750,50",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body)
	}
	if got := decode[incomeMutation](t, rec).Record.Amount; !got.Equal(decimal.RequireFromString("1750.50")) {
		t.Errorf("amount = %s", got)
	}

	if rec := f.do(t, http.MethodDelete, "/api/income/"+created.Record.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, "/api/income/"+created.Record.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rec.Code)
	}
}

func TestMutationErrors(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/income", `{"date":`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/income", ``, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Others","amount":1,"tip":2}`, http.StatusBadRequest},
		{"invalid source", http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Casino","amount":1}`, http.StatusUnprocessableEntity},
		{"negative amount", http.MethodPost, "/api/expenses", `{"date":"2024-03-15","category":"Others","amount":-5}`, http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/api/expenses", `{"date":"15/03/2024","category":"Others","amount":5}`, http.StatusUnprocessableEntity},
		{"payroll for unknown staff", http.MethodPost, "/api/salary-transactions", `{"staff_id":"ghost","date":"2024-03-15","type":"Salary","amount":100}`, http.StatusUnprocessableEntity},
		{"attendance for unknown staff", http.MethodPut, "/api/attendance", `{"staff_id":"ghost","date":"2024-03-15","status":"Present"}`, http.StatusUnprocessableEntity},
		{"update missing expense", http.MethodPut, "/api/expenses/nope", `{"date":"2024-03-15","category":"Others","amount":5}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.want, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("error body missing: %s", rec.Body)
			}
		})
	}

	rec := f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Casino","amount":1}`)
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	if _, ok := body.Fields["source"]; !ok {
		t.Errorf("expected source field error, got %v", body.Fields)
	}
}

func TestPayrollEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	m := f.addStaff(t)

	rec := f.do(t, http.MethodPost, "/api/salary-transactions", map[string]any{
		"staff_id": m.ID, "date": "2024-03-05", "type": "Salary", "amount": 20000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create payroll status=%d body=%s", rec.Code, rec.Body)
	}
	pr := decode[payrollResponse](t, rec)
	if !pr.Synced || pr.PartialFailure || pr.Mirror.ID != ledger.MirrorExpenseID(pr.Transaction.ID) {
		t.Fatalf("unexpected payroll response %+v", pr)
	}

	// the mirror is owned by its transaction
	rec = f.do(t, http.MethodPut, "/api/expenses/"+pr.Mirror.ID, `{"date":"2024-03-05","category":"Salary","amount":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("mirror update status=%d, want 409", rec.Code)
	}

	stmt := decode[struct {
		Items []struct {
			ID      string `json:"id"`
			Payroll bool   `json:"payroll"`
		} `json:"items"`
		TotalExpense decimal.Decimal `json:"totalExpense"`
	}](t, f.do(t, http.MethodGet, "/api/reports/ledger?year=2024&month=3", nil))
	if len(stmt.Items) != 1 || !stmt.Items[0].Payroll || !stmt.TotalExpense.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected statement %+v", stmt)
	}

	month := decode[struct {
		Salaries  decimal.Decimal `json:"monthlySalaries"`
		NetProfit decimal.Decimal `json:"netProfit"`
	}](t, f.do(t, http.MethodGet, "/api/reports/month?year=2024&month=3", nil))
	if !month.Salaries.Equal(decimal.NewFromInt(20000)) || !month.NetProfit.Equal(decimal.NewFromInt(-40000)) {
		t.Fatalf("unexpected month report %+v", month)
	}

	stats := decode[struct {
		TotalPaid decimal.Decimal `json:"totalPaidThisMonth"`
		Balance   decimal.Decimal `json:"balance"`
	}](t, f.do(t, http.MethodGet, "/api/staff/"+m.ID+"/stats?year=2024&month=3", nil))
	if !stats.TotalPaid.Equal(decimal.NewFromInt(20000)) || !stats.Balance.IsZero() {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = f.do(t, http.MethodDelete, "/api/salary-transactions/"+pr.Transaction.ID, nil)
	if rec.Code != http.StatusOK || !decode[payrollResponse](t, rec).Synced {
		t.Fatalf("delete payroll status=%d body=%s", rec.Code, rec.Body)
	}
	if _, err := f.remote.Get(context.Background(), core.TableExpenses, pr.Mirror.ID); err == nil {
		t.Error("mirror should be deleted remotely")
	}
}

func TestStaffEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	m := f.addStaff(t)

	rec := f.do(t, http.MethodPut, "/api/attendance", map[string]string{
		"staff_id": m.ID, "date": "2024-03-15", "status": "Present",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark attendance status=%d body=%s", rec.Code, rec.Body)
	}

	day := decode[struct {
		Marks []struct {
			Marked bool   `json:"marked"`
			Status string `json:"status"`
		} `json:"marks"`
	}](t, f.do(t, http.MethodGet, "/api/attendance", nil))
	if len(day.Marks) != 1 || !day.Marks[0].Marked || day.Marks[0].Status != "Present" {
		t.Fatalf("unexpected day attendance %+v", day)
	}

	dash := decode[struct {
		Daily struct {
			StaffPresent int `json:"staffPresentCount"`
			TotalStaff   int `json:"totalStaff"`
		} `json:"daily"`
	}](t, f.do(t, http.MethodGet, "/api/dashboard", nil))
	if dash.Daily.StaffPresent != 1 || dash.Daily.TotalStaff != 1 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	found := decode[struct {
		Staff []core.StaffMember `json:"staff"`
	}](t, f.do(t, http.MethodGet, "/api/staff?search=cook", nil))
	if len(found.Staff) != 1 {
		t.Fatalf("search by role found %d", len(found.Staff))
	}

	if rec := f.do(t, http.MethodGet, "/api/staff/"+m.ID+"/history", nil); rec.Code != http.StatusOK {
		t.Fatalf("history status=%d", rec.Code)
	}

	rm := decode[staffRemovalResponse](t, f.do(t, http.MethodDelete, "/api/staff/"+m.ID, nil))
	if !rm.Synced || len(rm.Attendance) != 1 {
		t.Fatalf("unexpected removal %+v", rm)
	}
	for _, path := range []string{"/api/staff/" + m.ID + "/history", "/api/staff/" + m.ID + "/stats"} {
		if rec := f.do(t, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s status=%d, want 404", path, rec.Code)
		}
	}
}

func TestDashboardAndReports(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/income", `{"date":"2024-02-10","source":"Room Rent","amount":1000}`)
	f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Room Rent","amount":1500}`)
	f.do(t, http.MethodPost, "/api/expenses", `{"date":"2024-03-15","category":"Electricity","amount":300,"payment_mode":"Online"}`)

	dash := decode[struct {
		Daily struct {
			Income decimal.Decimal `json:"income"`
			Profit decimal.Decimal `json:"profit"`
			Margin float64         `json:"margin"`
		} `json:"daily"`
		Summary []struct {
			Label string `json:"label"`
		} `json:"monthlySummary"`
		Growth float64 `json:"monthOverMonthGrowth"`
	}](t, f.do(t, http.MethodGet, "/api/dashboard?date=2024-03-15", nil))
	if !dash.Daily.Profit.Equal(decimal.NewFromInt(1200)) || dash.Daily.Margin != 80 {
		t.Fatalf("unexpected daily %+v", dash.Daily)
	}
	if len(dash.Summary) != 6 || dash.Summary[5].Label != "Mar" || dash.Growth != 50 {
		t.Fatalf("unexpected summary %+v growth=%v", dash.Summary, dash.Growth)
	}

	mix := decode[struct {
		Totals map[string]decimal.Decimal `json:"totals"`
	}](t, f.do(t, http.MethodGet, "/api/reports/mix?year=2024&month=3&by=expense-category", nil))
	if !mix.Totals["Electricity"].Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected mix %+v", mix)
	}

	years := decode[struct {
		Years []int `json:"years"`
	}](t, f.do(t, http.MethodGet, "/api/reports/years", nil))
	if len(years.Years) != 1 || years.Years[0] != 2024 {
		t.Fatalf("unexpected years %v", years.Years)
	}

	for _, target := range []string{
		"/api/reports/ledger?month=13",
		"/api/reports/trajectory?year=abc",
		"/api/reports/mix?by=weekday",
		"/api/dashboard?date=yesterday",
	} {
		if rec := f.do(t, http.MethodGet, target, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status=%d, want 400", target, rec.Code)
		}
	}
}

func TestTrajectoryIsMemoizedPerVersion(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Room Rent","amount":1500}`)

	get := func() trajectoryResponse {
		return decode[trajectoryResponse](t, f.do(t, http.MethodGet, "/api/reports/trajectory?year=2024", nil))
	}
	first := get()
	second := get()
	if len(first.Months) != 12 || !second.Months[2].Income.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected trajectory %+v", second)
	}
	if st := f.srv.trajectory.Stats(); st.Hits != 1 {
		t.Fatalf("expected one cache hit, got %+v", st)
	}

	f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-16","source":"Room Rent","amount":500}`)
	if got := get().Months[2].Income; !got.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("stale trajectory after a write: %s", got)
	}
}

func TestSyncEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.setOffline(true)

	rec := f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Others","amount":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create during outage status=%d", rec.Code)
	}
	created := decode[incomeMutation](t, rec)
	if created.Synced {
		t.Fatal("expected synced=false during an outage")
	}

	failed := decode[struct {
		Records []services.RecordStatus `json:"records"`
	}](t, f.do(t, http.MethodGet, "/api/sync/failed", nil))
	if len(failed.Records) != 1 || failed.Records[0].ID != created.Record.ID {
		t.Fatalf("unexpected failed list %+v", failed)
	}
	if ready := decode[map[string]any](t, f.do(t, http.MethodGet, "/readyz", nil)); ready["status"] != "degraded" {
		t.Errorf("expected degraded readiness, got %v", ready["status"])
	}

	f.setOffline(false)
	retry := decode[struct {
		Report  services.RetryReport `json:"report"`
		Summary services.SyncSummary `json:"summary"`
	}](t, f.do(t, http.MethodPost, "/api/sync/retry", nil))
	if retry.Report.Succeeded != 1 || retry.Summary.Failed != 0 {
		t.Fatalf("unexpected retry %+v", retry)
	}
	if _, err := f.remote.Get(context.Background(), core.TableIncome, created.Record.ID); err != nil {
		t.Fatalf("record missing remotely after retry: %v", err)
	}
}

func TestAuthRequired(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	monitor := auth.NewMonitor()
	f := newFixture(t, func(o *Options) {
		o.Verifier = verifier
		o.Monitor = monitor
		o.AuthRequired = true
	})

	if rec := f.do(t, http.MethodGet, "/api/dashboard", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d, want 401", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rec.Code)
	}

	token, err := verifier.Issue("user-1", "desk@hotel.test", "manager", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if rec := f.do(t, http.MethodGet, "/api/dashboard", nil, "Authorization", "Bearer "+token); rec.Code != http.StatusOK {
		t.Fatalf("authenticated status=%d body=%s", rec.Code, rec.Body)
	}
	if !monitor.Authenticated() {
		t.Error("monitor should observe the session")
	}
}

func TestNewServerRequiresVerifierWhenAuthRequired(t *testing.T) {
	store := ledger.New(ledger.Snapshot{})
	_, err := NewServer(":0", Options{
		Ledger:       services.NewLedgerService(store, services.NewSyncService(nil, store, time.Second)),
		AuthRequired: true,
	})
	if err == nil {
		t.Fatal("expected error without a verifier")
	}
	if _, err := NewServer(":0", Options{}); err == nil {
		t.Fatal("expected error without a ledger")
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.RateLimit = ratelimit.Config{RequestsPerMinute: 2, MutationsOnly: true}
	})
	body := `{"date":"2024-03-15","source":"Others","amount":1}`
	for i := 0; i < 2; i++ {
		if rec := f.do(t, http.MethodPost, "/api/income", body); rec.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i+1, rec.Code)
		}
	}
	rec := f.do(t, http.MethodPost, "/api/income", body)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("status=%d, want 429 with Retry-After", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/income", nil); rec.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", rec.Code)
	}
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	f := newFixture(t, nil)
	if rec := f.do(t, http.MethodGet, "/.env", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/income", `{"date":"2024-03-15","source":"Room Rent","amount":1500}`)

	rec := f.do(t, http.MethodGet, "/api/export/xlsx?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.XLSXContentType {
		t.Errorf("content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "hotelpro-report-2024-03.xlsx") {
		t.Errorf("content disposition %q", cd)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()
	v, err := wb.GetCellValue(export.SummarySheet, "B5")
	if err != nil || v != "1500" {
		t.Fatalf("B5 = %q, %v", v, err)
	}
}

func TestExportSheets(t *testing.T) {
	f := newFixture(t, nil)
	if rec := f.do(t, http.MethodPost, "/api/export/sheets?year=2024&month=3", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured status=%d, want 503", rec.Code)
	}

	writer := sheetsmem.New()
	f = newFixture(t, func(o *Options) { o.Reports = writer })
	rec := f.do(t, http.MethodPost, "/api/export/sheets?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	body := decode[map[string]string](t, rec)
	if body["ref"] != "mem:1:March 2024" || body["period"] != "March 2024" {
		t.Fatalf("unexpected body %v", body)
	}
	if len(writer.Reports()) != 1 {
		t.Fatal("report not written")
	}
}

func TestCatalogAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	cat := decode[Catalog](t, f.do(t, http.MethodGet, "/api/catalog", nil))
	if len(cat.IncomeSources) != 4 || len(cat.ExpenseCategories) != 5 || len(cat.StaffRoles) != 5 {
		t.Fatalf("unexpected catalog %+v", cat)
	}
	for _, b := range cat.ExpenseCategories {
		if b.Icon == "" {
			t.Errorf("category %s has no icon", b.Value)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/metrics", nil)
	m := decode[metricsResponse](t, rec)
	if m.Requests.TotalRequests < 1 {
		t.Errorf("expected traced requests, got %+v", m.Requests)
	}
}
