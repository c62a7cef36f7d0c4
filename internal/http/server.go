package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"hotelpro/internal/auth"
	"hotelpro/internal/cache"
	applog "hotelpro/internal/log"
	"hotelpro/internal/middleware/ratelimit"
	"hotelpro/internal/middleware/security"
	"hotelpro/internal/middleware/trace"
	"hotelpro/internal/report"
	"hotelpro/internal/services"
	"hotelpro/internal/sheets"
)

// Options configures NewServer. Ledger is required, everything else is
// optional.
type Options struct {
	Ledger *services.LedgerService
	// Reports receives Sheets exports; nil disables the endpoint.
	Reports sheets.ReportWriter

	Verifier     *auth.Verifier
	Monitor      *auth.Monitor
	AuthRequired bool

	SummaryWindow int
	RateLimit     ratelimit.Config
	Logger        *applog.Logger
	Now           func() time.Time
}

type Server struct {
	http.Server

	ledger        *services.LedgerService
	reports       sheets.ReportWriter
	logger        *applog.Logger
	now           func() time.Time
	summaryWindow int
	catalog       Catalog
	started       time.Time

	trajectory *cache.Memo[[]report.MonthPoint]
	statements *cache.Memo[report.Ledger]
	caches     *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Ledger == nil {
		return nil, errors.New("http server needs a ledger service")
	}
	if opts.AuthRequired && opts.Verifier == nil {
		return nil, errors.New("auth is required but no token verifier is configured")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SummaryWindow <= 0 {
		opts.SummaryWindow = 6
	}
	if opts.RateLimit.RequestsPerMinute <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})
	}

	s := &Server{
		ledger:        opts.Ledger,
		reports:       opts.Reports,
		logger:        opts.Logger,
		now:           opts.Now,
		summaryWindow: opts.SummaryWindow,
		catalog:       buildCatalog(),
		started:       opts.Now(),
		trajectory:    cache.NewMemo[[]report.MonthPoint](32, 10*time.Minute),
		statements:    cache.NewMemo[report.Ledger](64, 10*time.Minute),
		caches:        cache.NewManager(),
		limiter:       ratelimit.NewLimiter(opts.RateLimit),
		detector:      security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.caches.Register(s.trajectory, s.statements)
	s.caches.StartCleanup(10 * time.Minute)

	api := http.NewServeMux()
	s.routes(api)

	var apiHandler http.Handler = api
	if opts.Verifier != nil {
		apiHandler = auth.Middleware(opts.Verifier, opts.Monitor, opts.AuthRequired)(apiHandler)
	}
	apiHandler = s.limiter.Middleware(opts.RateLimit, s.detector.ExtractClientIP, s.onRateLimit)(apiHandler)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/api/", apiHandler)

	var handler http.Handler = root
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(s.onSuspicious)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/reports/trajectory", s.handleTrajectory)
	mux.HandleFunc("GET /api/reports/ledger", s.handleMonthlyLedger)
	mux.HandleFunc("GET /api/reports/mix", s.handleCategoryMix)
	mux.HandleFunc("GET /api/reports/month", s.handleMonthReport)
	mux.HandleFunc("GET /api/reports/years", s.handleAvailableYears)

	mux.HandleFunc("GET /api/income", s.handleListIncome)
	mux.HandleFunc("POST /api/income", s.handleCreateIncome)
	mux.HandleFunc("PUT /api/income/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/income/{id}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/staff", s.handleListStaff)
	mux.HandleFunc("POST /api/staff", s.handleCreateStaff)
	mux.HandleFunc("PUT /api/staff/{id}", s.handleUpdateStaff)
	mux.HandleFunc("DELETE /api/staff/{id}", s.handleDeleteStaff)
	mux.HandleFunc("GET /api/staff/{id}/stats", s.handleStaffStats)
	mux.HandleFunc("GET /api/staff/{id}/history", s.handleStaffHistory)

	mux.HandleFunc("GET /api/attendance", s.handleDayAttendance)
	mux.HandleFunc("PUT /api/attendance", s.handleMarkAttendance)
	mux.HandleFunc("DELETE /api/attendance/{id}", s.handleDeleteAttendance)

	mux.HandleFunc("POST /api/salary-transactions", s.handleCreateSalaryTransaction)
	mux.HandleFunc("PUT /api/salary-transactions/{id}", s.handleUpdateSalaryTransaction)
	mux.HandleFunc("DELETE /api/salary-transactions/{id}", s.handleDeleteSalaryTransaction)

	mux.HandleFunc("GET /api/sync", s.handleSyncSummary)
	mux.HandleFunc("GET /api/sync/failed", s.handleSyncFailed)
	mux.HandleFunc("POST /api/sync/retry", s.handleSyncRetry)

	mux.HandleFunc("GET /api/export/xlsx", s.handleExportXLSX)
	mux.HandleFunc("POST /api/export/sheets", s.handleExportSheets)
}

// Shutdown stops background cleanup and drains the HTTP server. It runs its
// body once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

func (s *Server) onSuspicious(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Suspicious request blocked",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.Header.Get("User-Agent"))
	BadRequestError("request rejected").Write(w)
}

// ledgerFor returns the monthly statement, computed once per store version.
func (s *Server) ledgerFor(year int, month time.Month) report.Ledger {
	store := s.ledger.Store()
	key := fmt.Sprintf("%04d-%02d", year, month)
	return s.statements.Get(key, store.Version(), func() report.Ledger {
		return report.MonthlyLedger(store.Snapshot(), year, month)
	})
}

// trajectoryFor returns the annual trajectory, computed once per store
// version.
func (s *Server) trajectoryFor(year int) []report.MonthPoint {
	store := s.ledger.Store()
	return s.trajectory.Get(strconv.Itoa(year), store.Version(), func() []report.MonthPoint {
		return report.AnnualTrajectory(store.Snapshot(), year)
	})
}
