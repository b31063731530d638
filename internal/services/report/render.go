package report

import (
	"fmt"
	"io"
	"strings"

	"binance-portfolio-tracker/internal/domain"
	"binance-portfolio-tracker/pkg/styles"
)

// Section writes an underlined section title.
func Section(w io.Writer, title string) {
	sep := strings.Repeat("-", len(title))
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", sep, title, sep)
}

// Summary writes one snapshot reference line for the endpoint overview.
func Summary(w io.Writer, label string, snap *domain.Snapshot, anchor string) {
	fmt.Fprintf(w, "%-9s %s - %17.8f %s - %s\n",
		label+":", snap.Time, snap.TotalFor(anchor).Total, anchor, snap.ID)
}

// Render writes the full comparison as a fixed-width table.
func Render(w io.Writer, title string, c Comparison) {
	Section(w, fmt.Sprintf("%s: %s to %s", title, c.OlderTime, c.NewerTime))

	for _, asset := range c.Assets {
		renderHeader(w, asset.Asset)
		for _, row := range asset.Rows {
			renderRow(w, row, c.Days)
		}
		for _, hint := range asset.Hints {
			fmt.Fprintln(w, styles.Warn.Render(hint))
		}
		if asset.Growth != "" {
			fmt.Fprintln(w, asset.Growth)
		}
	}

	renderHeader(w, " ")
	for _, anchor := range c.Anchors {
		renderRow(w, anchor.All, c.Days)
		renderRow(w, anchor.ExcludingDeposits, c.Days)
	}
}

func renderHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%-13s %17s %17s %17s %10s %6s %10s\n",
		title, "Newer", "Older", "Diff", "Percent", "Days", "%/day")
}

func renderRow(w io.Writer, row Row, days float64) {
	diff := row.Diff()
	style := styles.BySign(diff)

	trailer := ""
	if row.WithDays {
		flooredDays := days
		if flooredDays < 1 {
			flooredDays = 1
		}
		trailer = fmt.Sprintf(" %6d %9.4f%%", int(flooredDays), row.PercentPerDay(days))
	}

	fmt.Fprintf(w, "%-13s %17.8f %17.8f %s\n",
		row.Label, row.Newer, row.Older,
		style.Render(fmt.Sprintf("%17.8f %9.4f%%%s", diff, row.Percent(), trailer)))
}
