package http

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"hotelpro/internal/export"
	applog "hotelpro/internal/log"
)

const sheetsExportTimeout = 30 * time.Second

func (s *Server) buildReport(r *http.Request) (export.Report, error) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		return export.Report{}, err
	}
	return export.Build(s.ledger.Snapshot(), p.Year, p.Month, s.now()), nil
}

// handleExportXLSX streams the monthly workbook as an attachment.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := s.buildReport(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rep); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Workbook export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldYear, rep.Year,
			applog.FieldMonth, int(rep.Month),
			applog.FieldError, err)
		InternalServerError("could not build workbook").Write(w)
		return
	}

	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+rep.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExportSheets writes the monthly report to the configured
// spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		ServiceUnavailableError("sheets export is not configured").Write(w)
		return
	}
	rep, err := s.buildReport(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sheetsExportTimeout)
	defer cancel()
	ref, err := s.reports.WriteReport(ctx, rep)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Sheets export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldYear, rep.Year,
			applog.FieldMonth, int(rep.Month),
			applog.FieldError, err)
		ErrorResponse(http.StatusBadGateway, "sheets export failed").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"ref": ref, "period": rep.Period()}).Write(w)
}
