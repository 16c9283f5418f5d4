package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/purse/internal/cli"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/ofx"
	"github.com/Veraticus/purse/internal/service"
	"github.com/spf13/cobra"
)

func importOFXCmd(a *app) *cobra.Command {
	var opts ofx.ImportOptions

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import operations from OFX/QFX statements",
		Long: `Import statement lines from OFX or QFX files exported from your bank.

Credits are recorded as income and debits as expense in the given categories,
which are created when missing. Lines already imported are skipped.

Examples:
  purse import-ofx ~/Downloads/checking_2026_01.qfx
  purse import-ofx --income-category Salary --expense-category Card ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			return a.withSession(cmd, true, func(ctx context.Context, svc *services, sess *model.Session) error {
				return runImportOFX(ctx, cmd, svc, sess, files, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.IncomeCategory, "income-category", "Imported income", "category for credits")
	cmd.Flags().StringVar(&opts.ExpenseCategory, "expense-category", "Imported expense", "category for debits")

	return cmd
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("No files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func runImportOFX(ctx context.Context, cmd *cobra.Command, svc *services, sess *model.Session, files []string, opts ofx.ImportOptions) error {
	parser := ofx.NewParser()

	var entries []ofx.Entry
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}

		slog.Info("Parsed statement", "file", filepath.Base(path), "entries", len(parsed))
		entries = append(entries, parsed...)
	}

	var progress func()
	if len(entries) > 0 {
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(entries), "Importing")
		progress = func() { _ = bar.Add(1) }
		defer func() {
			if !bar.IsFinished() {
				_ = bar.Finish()
			}
		}()
	}

	result, err := ofx.NewImporter(svc.ledger).Import(ctx, sess.Wallet, entries, opts, progress)
	if err != nil {
		return err
	}

	svc.afterSave(func() {
		for i, op := range result.Operations {
			var alerts []service.Alert
			if i == len(result.Operations)-1 {
				alerts = result.Alerts
			}
			svc.ledger.Committed(op, alerts)
		}
	})

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d operations, skipped %d", result.Imported, result.Skipped)))
	cli.WriteAlerts(out, result.Alerts)
	return nil
}
