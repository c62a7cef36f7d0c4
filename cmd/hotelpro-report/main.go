package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hotelpro/internal/cli"
	"hotelpro/internal/export"
	applog "hotelpro/internal/log"
)

func main() {
	now := time.Now().UTC()
	year := flag.Int("year", now.Year(), "report year")
	month := flag.Int("month", int(now.Month()), "report month (1-12)")
	out := flag.String("out", "", "output file (default hotelpro-report-YYYY-MM.xlsx)")
	flag.Parse()

	cfg, logger := cli.Bootstrap(applog.ComponentExport)

	if *month < 1 || *month > 12 {
		fmt.Fprintf(os.Stderr, "invalid month %d: must be 1-12\n", *month)
		os.Exit(2)
	}

	store, err := cli.OpenLedger(cfg, now, logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err)
		os.Exit(1)
	}

	rep := export.Build(store.Snapshot(), *year, time.Month(*month), now)
	path := *out
	if path == "" {
		path = rep.Filename()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("Failed to create output directory", applog.FieldError, err, "dir", dir)
			os.Exit(1)
		}
	}
	if err := export.SaveXLSX(path, rep); err != nil {
		logger.Error("Failed to write report", applog.FieldError, err, "path", path)
		os.Exit(1)
	}
	logger.Info("Report written", "path", path, "period", rep.Period(),
		"net_profit", rep.Summary.NetProfit.StringFixed(2))
}
