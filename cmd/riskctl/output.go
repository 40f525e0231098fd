package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/andresuchdata/stockrisk/internal/analysis"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func writeJSON(w io.Writer, run *domain.AnalysisRun, items []domain.AnalyzedItem) error {
	out := *run
	out.Items = items

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, run *domain.AnalysisRun, items []domain.AnalyzedItem) error {
	s := run.Summary
	source := run.Source
	if run.Degraded {
		source = fmt.Sprintf("%s (fallback: %s)", run.Source, run.FallbackReason)
	}
	fmt.Fprintf(w, "run %s  source %s  window %dd\n", run.ID, source, run.WindowDays)
	fmt.Fprintf(w, "items %d  critical %d  stockout %d  overstock %d  capital tied $%.2f\n\n",
		s.TotalItems, s.CriticalAlerts, s.StockoutRisks, s.OverstockRisks, s.TotalCapitalTied)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tSTOCK\tVELOCITY\tSTOCKOUT\tDAYS LEFT\tOVERSTOCK\tDAYS OF STOCK\tOVERALL\tBAND\tACTION")
	for _, item := range items {
		action := ""
		if len(item.Recommendations) > 0 {
			action = item.Recommendations[0].Action
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			item.SKU,
			item.Name,
			item.CurrentStock,
			item.DailyVelocity,
			item.StockoutRisk.Risk,
			formatDays(item.StockoutRisk.DaysUntilStockout),
			item.OverstockRisk.Risk,
			formatDays(item.OverstockRisk.DaysOfStock),
			item.OverallRisk,
			analysis.SeverityBand(item.OverallRisk),
			action,
		)
	}
	return tw.Flush()
}

func formatDays(days float64) string {
	if days >= domain.NoHorizon {
		return "-"
	}
	return strconv.FormatFloat(days, 'f', 1, 64)
}
