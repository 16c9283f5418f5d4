package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/purse/internal/cli"
	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/model"
	"github.com/spf13/cobra"
)

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive wallet shell",
		Long: `Start a line-oriented shell. Log in with 'login <login> <password>'; the
wallet is saved on logout and on exit. Type 'help' for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(ctx context.Context, svc *services) error {
				sh := newShell(svc, cmd.OutOrStdout())
				return sh.run(ctx, cmd.InOrStdin())
			})
		},
	}
}

type shellCommand struct {
	run          func(s *shell, ctx context.Context, args []string) error
	name         string
	usage        string
	help         string
	minArgs      int
	needsSession bool
}

// shell holds the explicit session of one interactive run.
type shell struct {
	svc      *services
	sess     *model.Session
	out      io.Writer
	commands []shellCommand
}

func newShell(svc *services, out io.Writer) *shell {
	return &shell{
		svc:      svc,
		out:      out,
		commands: shellCommands(),
	}
}

func shellCommands() []shellCommand {
	return []shellCommand{
		{name: "help", help: "show this list", run: (*shell).help},
		{name: "register", usage: "<login> <password>", help: "create a user", minArgs: 2, run: (*shell).register},
		{name: "login", usage: "<login> <password>", help: "open a wallet session", minArgs: 2, run: (*shell).login},
		{name: "logout", help: "save the wallet and close the session", needsSession: true, run: (*shell).logout},
		{name: "whoami", help: "show the session login", needsSession: true, run: (*shell).whoami},
		{name: "add-category", usage: "<name>", help: "add a category", minArgs: 1, needsSession: true, run: (*shell).addCategory},
		{name: "set-budget", usage: "<category> <limit>", help: "set a category budget", minArgs: 2, needsSession: true, run: (*shell).setBudget},
		{name: "add-income", usage: "<category> <amount> [note]", help: "record income", minArgs: 2, needsSession: true, run: recordIn(model.OperationIncome)},
		{name: "add-expense", usage: "<category> <amount> [note]", help: "record expense", minArgs: 2, needsSession: true, run: recordIn(model.OperationExpense)},
		{name: "sum-income", usage: "<cat1,cat2,...>", help: "sum income over categories", minArgs: 1, needsSession: true, run: sumOf(model.OperationIncome)},
		{name: "sum-expense", usage: "<cat1,cat2,...>", help: "sum expense over categories", minArgs: 1, needsSession: true, run: sumOf(model.OperationExpense)},
		{name: "transfer", usage: "<login> <amount> [note]", help: "send money to another user", minArgs: 2, needsSession: true, run: (*shell).transfer},
		{name: "list-categories", help: "list categories", needsSession: true, run: (*shell).listCategories},
		{name: "list-budgets", help: "list budgets and remaining amounts", needsSession: true, run: (*shell).listBudgets},
		{name: "stats", help: "show all-time statistics", needsSession: true, run: (*shell).stats},
		{name: "stats-period", usage: "<from> <to>", help: "show statistics for YYYY-MM-DD days", minArgs: 2, needsSession: true, run: (*shell).statsPeriod},
		{name: "export-stats", usage: "<file> [<from> <to>]", help: "write statistics to a file", minArgs: 1, needsSession: true, run: (*shell).exportStats},
		{name: "exit", help: "save and quit"},
	}
}

func (s *shell) lookup(name string) (shellCommand, bool) {
	for _, c := range s.commands {
		if c.name == name {
			return c, true
		}
	}
	return shellCommand{}, false
}

func (s *shell) currentLogin() string {
	if s.sess == nil {
		return ""
	}
	return s.sess.Login
}

// run reads commands until exit, end of input or cancellation, then saves
// the session wallet.
func (s *shell) run(ctx context.Context, in io.Reader) error {
	reader := cli.NewLineReader(in)

	fmt.Fprintln(s.out, cli.FormatTitle("purse shell"))
	fmt.Fprintln(s.out, cli.FormatInfo("Type 'help' for commands, 'exit' to quit."))

	for {
		fmt.Fprint(s.out, cli.FormatPrompt(s.currentLogin()))

		line, err := reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) {
			fmt.Fprintln(s.out)
			return s.close(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return s.close(ctx)
		}

		if err := s.dispatch(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintln(s.out, cli.FormatError(err.Error()))
		}
	}
}

func (s *shell) dispatch(ctx context.Context, name string, args []string) error {
	c, ok := s.lookup(name)
	if !ok {
		return common.NewValidationError("", fmt.Sprintf("unknown command %q, type 'help'", name))
	}
	if c.needsSession && s.sess == nil {
		return &common.StateError{Reason: "login required"}
	}
	if len(args) < c.minArgs {
		return common.NewValidationError("", "usage: "+strings.TrimSpace(c.name+" "+c.usage))
	}
	return c.run(s, ctx, args)
}

// close saves the session wallet even when ctx has been canceled.
func (s *shell) close(ctx context.Context) error {
	if s.sess != nil {
		if err := s.svc.auth.Logout(context.WithoutCancel(ctx), s.sess); err != nil {
			return err
		}
		s.sess = nil
	}
	fmt.Fprintln(s.out, cli.FormatInfo("Bye"))
	return nil
}

func (s *shell) help(_ context.Context, _ []string) error {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, c := range s.commands {
		fmt.Fprintf(tw, "  %s %s\t%s\n", c.name, c.usage, c.help)
	}
	return tw.Flush()
}

func (s *shell) register(ctx context.Context, args []string) error {
	user, err := s.svc.auth.Register(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, cli.FormatSuccess("Registered "+user.Login))
	return nil
}

// login saves the current session before loading the new one, so logging in
// again as the same user sees the work done so far.
func (s *shell) login(ctx context.Context, args []string) error {
	if s.sess != nil {
		if err := s.svc.auth.Logout(ctx, s.sess); err != nil {
			return err
		}
	}
	sess, err := s.svc.auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	s.sess = sess
	fmt.Fprintln(s.out, cli.FormatSuccess("Logged in as "+sess.Login))
	return nil
}

func (s *shell) logout(ctx context.Context, _ []string) error {
	if err := s.svc.auth.Logout(ctx, s.sess); err != nil {
		return err
	}
	fmt.Fprintln(s.out, cli.FormatSuccess("Wallet saved, logged out "+s.sess.Login))
	s.sess = nil
	return nil
}

func (s *shell) whoami(_ context.Context, _ []string) error {
	fmt.Fprintln(s.out, s.sess.Login)
	return nil
}

func (s *shell) addCategory(_ context.Context, args []string) error {
	name := strings.Join(args, " ")
	if err := s.svc.ledger.AddCategory(s.sess.Wallet, name); err != nil {
		return err
	}
	fmt.Fprintln(s.out, cli.FormatSuccess("Category added: "+name))
	return nil
}

func (s *shell) setBudget(_ context.Context, args []string) error {
	limit, err := cli.ParseAmount(args[1])
	if err != nil {
		return err
	}
	if err := s.svc.ledger.SetBudget(s.sess.Wallet, args[0], limit); err != nil {
		return err
	}
	fmt.Fprintln(s.out, cli.FormatSuccess(fmt.Sprintf("Budget for %s set to %s", args[0], ledger.FormatAmount(limit))))
	return nil
}

func recordIn(typ model.OperationType) func(*shell, context.Context, []string) error {
	return func(s *shell, _ context.Context, args []string) error {
		amount, err := cli.ParseAmount(args[1])
		if err != nil {
			return err
		}
		op, alerts, err := s.svc.ledger.Record(s.sess.Wallet, typ, args[0], amount, strings.Join(args[2:], " "), time.Time{})
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, cli.FormatSuccess(fmt.Sprintf("Recorded %s %s in %s",
			strings.ToLower(string(typ)), ledger.FormatAmount(op.Amount), op.Category)))
		cli.WriteAlerts(s.out, alerts)
		return nil
	}
}

func sumOf(typ model.OperationType) func(*shell, context.Context, []string) error {
	return func(s *shell, _ context.Context, args []string) error {
		categories, err := ledger.ParseCategoriesCSV(strings.Join(args, " "))
		if err != nil {
			return err
		}
		total, err := s.svc.ledger.SumByCategories(s.sess.Wallet, typ, categories)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, ledger.FormatAmount(total))
		return nil
	}
}

func (s *shell) transfer(ctx context.Context, args []string) error {
	amount, err := cli.ParseAmount(args[1])
	if err != nil {
		return err
	}
	receipt, err := s.svc.transfers.Transfer(ctx, s.sess, args[0], amount, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, cli.FormatSuccess(fmt.Sprintf("Sent %s to %s", ledger.FormatAmount(receipt.Expense.Amount), args[0])))
	cli.WriteAlerts(s.out, receipt.Alerts)
	return nil
}

func (s *shell) listCategories(_ context.Context, _ []string) error {
	fmt.Fprintln(s.out, cli.RenderList(s.sess.Wallet.Categories))
	return nil
}

func (s *shell) listBudgets(_ context.Context, _ []string) error {
	lines := s.svc.ledger.BuildStatsReport(s.sess.Wallet).Budgets
	items := make([]string, 0, len(lines))
	for _, b := range lines {
		items = append(items, fmt.Sprintf("%s: limit %s, remaining %s",
			b.Category, ledger.FormatAmount(b.Limit), ledger.FormatAmount(b.Remaining)))
	}
	fmt.Fprintln(s.out, cli.RenderList(items))
	return nil
}

func (s *shell) stats(_ context.Context, _ []string) error {
	fmt.Fprintln(s.out, cli.RenderReport(s.svc.ledger.BuildStatsReport(s.sess.Wallet)))
	return nil
}

func (s *shell) statsPeriod(_ context.Context, args []string) error {
	report, err := buildReport(s.svc.ledger, s.sess.Wallet, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, cli.RenderReport(report))
	return nil
}

func (s *shell) exportStats(_ context.Context, args []string) error {
	var from, to string
	switch len(args) {
	case 1:
	case 3:
		from, to = args[1], args[2]
	default:
		return common.NewValidationError("", "usage: export-stats <file> [<from> <to>]")
	}

	report, err := buildReport(s.svc.ledger, s.sess.Wallet, from, to)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], []byte(ledger.RenderReport(report)), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintln(s.out, cli.FormatSuccess("Report written to "+args[0]))
	return nil
}
