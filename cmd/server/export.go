package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/config"
	"salesreports/internal/infrastructure/export"
	"salesreports/internal/infrastructure/http/v1/dto"
	"salesreports/internal/infrastructure/http/v1/handlers"
	"salesreports/pkg/logger"
)

var exportFlags struct {
	channel string
	date    string
	from    string
	to      string
	out     string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the sales overview of one channel and window as XLSX",
	Example: `  salesreports export --channel WEB --date 2024-03-05
  salesreports export --channel WEB --from 2024-03-01 --to 2024-03-31 --out march.xlsx`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.channel, "channel", "", "channel code (required)")
	f.StringVar(&exportFlags.date, "date", "", "single day, YYYY-MM-DD")
	f.StringVar(&exportFlags.from, "from", "", "first day of the window, YYYY-MM-DD")
	f.StringVar(&exportFlags.to, "to", "", "last day of the window, YYYY-MM-DD")
	f.StringVarP(&exportFlags.out, "out", "o", "", "output file (default sales-<channel>-<from>-<to>.xlsx)")
	_ = exportCmd.MarkFlagRequired("channel")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx = logger.WithLogger(ctx, a.log)

	filter, err := dto.SalesReportRequest{
		Channel: exportFlags.channel,
		Date:    exportFlags.date,
		From:    exportFlags.from,
		To:      exportFlags.to,
	}.Filter(a.location)
	if err != nil {
		return err
	}

	report, err := a.service.Overview(ctx, filter)
	if err != nil {
		return err
	}

	path := exportFlags.out
	if path == "" {
		path = handlers.ExportFilename(report)
	}
	if err := writeWorkbook(path, report, cfg.Reports.CurrencyExponent); err != nil {
		return err
	}

	a.log.Infow("sales report exported", "path", path, "channel", report.Channel.Code)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func writeWorkbook(path string, report *reports.SalesReport, exponent int32) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.WriteSalesReport(f, report, exponent)
}
