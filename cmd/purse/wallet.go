package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/purse/internal/cli"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/model"
	"github.com/spf13/cobra"
)

func categoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage wallet categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return a.withSession(cmd, true, func(_ context.Context, svc *services, sess *model.Session) error {
				if err := svc.ledger.AddCategory(sess.Wallet, name); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Category added: "+strings.TrimSpace(name)))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, false, func(_ context.Context, _ *services, sess *model.Session) error {
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderList(sess.Wallet.Categories))
				return nil
			})
		},
	})

	return cmd
}

func budgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage category budgets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <category> <limit>",
		Short: "Set the spending limit of a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cli.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return a.withSession(cmd, true, func(_ context.Context, svc *services, sess *model.Session) error {
				if err := svc.ledger.SetBudget(sess.Wallet, args[0], limit); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget for %s set to %s", args[0], ledger.FormatAmount(limit))))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List budgets with their remaining amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, false, func(_ context.Context, svc *services, sess *model.Session) error {
				writeBudgets(cmd, svc.ledger, sess.Wallet)
				return nil
			})
		},
	})

	return cmd
}

func writeBudgets(cmd *cobra.Command, l *ledger.Service, w *model.Wallet) {
	lines := l.BuildStatsReport(w).Budgets
	if len(lines) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No budgets set. Use 'purse budget set' to add one."))
		return
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		cli.BoldStyle.Render("Category"),
		cli.BoldStyle.Render("Limit"),
		cli.BoldStyle.Render("Remaining"))
	for _, b := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Category, ledger.FormatAmount(b.Limit), ledger.FormatAmount(b.Remaining))
	}
}

// recordCmd builds the income and expense commands.
func recordCmd(a *app, kind string) *cobra.Command {
	typ := model.OperationIncome
	if kind == "expense" {
		typ = model.OperationExpense
	}

	return &cobra.Command{
		Use:   kind + " <category> <amount> [note...]",
		Short: "Record " + kind + " in a category",
		Long: `Record an operation in an existing category.

Amounts accept either "." or "," as the decimal separator. Budget and balance
alerts raised by the operation are printed as warnings.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := cli.ParseAmount(args[1])
			if err != nil {
				return err
			}
			note := strings.Join(args[2:], " ")

			return a.withSession(cmd, true, func(_ context.Context, svc *services, sess *model.Session) error {
				op, alerts, err := svc.ledger.Record(sess.Wallet, typ, args[0], amount, note, time.Time{})
				if err != nil {
					return err
				}
				svc.afterSave(func() { svc.ledger.Committed(op, alerts) })
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s %s in %s", kind, ledger.FormatAmount(op.Amount), op.Category)))
				cli.WriteAlerts(cmd.OutOrStdout(), alerts)
				return nil
			})
		},
	}
}

func sumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sum <income|expense> <categories>",
		Short: "Sum operations over a comma-separated list of categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseOperationType(args[0])
			if err != nil {
				return err
			}
			categories, err := ledger.ParseCategoriesCSV(args[1])
			if err != nil {
				return err
			}

			return a.withSession(cmd, false, func(_ context.Context, svc *services, sess *model.Session) error {
				total, err := svc.ledger.SumByCategories(sess.Wallet, typ, categories)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ledger.FormatAmount(total))
				return nil
			})
		},
	}
}

func transferCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <login> <amount> [note...]",
		Short: "Send money to another user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := cli.ParseAmount(args[1])
			if err != nil {
				return err
			}
			note := strings.Join(args[2:], " ")

			// Transfer saves both wallets itself.
			return a.withSession(cmd, false, func(ctx context.Context, svc *services, sess *model.Session) error {
				receipt, err := svc.transfers.Transfer(ctx, sess, args[0], amount, note)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Sent %s to %s", ledger.FormatAmount(receipt.Expense.Amount), args[0])))
				cli.WriteAlerts(cmd.OutOrStdout(), receipt.Alerts)
				return nil
			})
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show income, expense and budget statistics",
		Long: `Show totals and per-category statistics for the whole history, or for
the days from --from to --to inclusive.

With --output the plain report is also written to the given file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, false, func(_ context.Context, svc *services, sess *model.Session) error {
				report, err := buildReport(svc.ledger, sess.Wallet, from, to)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderReport(report))
				if output == "" {
					return nil
				}
				if err := os.WriteFile(output, []byte(ledger.RenderReport(report)), 0o600); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Report written to "+output))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the report to this file")

	return cmd
}
