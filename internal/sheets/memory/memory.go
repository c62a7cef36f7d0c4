package memory

import (
	"context"
	"fmt"
	"sync"

	"hotelpro/internal/export"
)

// Writer keeps published reports in memory. It stands in for a real
// spreadsheet in tests and local runs.
type Writer struct {
	mu      sync.Mutex
	reports []export.Report
}

func New() *Writer {
	return &Writer{}
}

// WriteReport stores the report and returns a synthetic reference.
func (w *Writer) WriteReport(ctx context.Context, r export.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, r)
	return fmt.Sprintf("mem:%d:%s", len(w.reports), r.Period()), nil
}

// Reports returns the reports written so far, oldest first.
func (w *Writer) Reports() []export.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]export.Report(nil), w.reports...)
}
