package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/service"
)

// RenderReport renders a stats report inside a titled box.
func RenderReport(r service.Report) string {
	title := "Wallet statistics"
	if r.Period != nil {
		title = "Period statistics"
	}
	return renderReportBox(title, ledger.RenderReport(r))
}

// WriteAlerts prints each alert as a warning line.
func WriteAlerts(w io.Writer, alerts []service.Alert) {
	for _, a := range alerts {
		_, _ = fmt.Fprintln(w, FormatWarning(a.Message()))
	}
}

// RenderList renders names one per line with a fallback for an empty list.
func RenderList(items []string) string {
	if len(items) == 0 {
		return mutedStyle.Render("(none)")
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• " + item)
	}
	return b.String()
}
