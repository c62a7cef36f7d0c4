package sheets

import (
	"context"

	"hotelpro/internal/export"
)

// Ports for outbound adapters.
type (
	// ReportWriter publishes a monthly report to a spreadsheet and returns a
	// reference to the written range.
	ReportWriter interface {
		WriteReport(ctx context.Context, r export.Report) (ref string, err error)
	}
)
