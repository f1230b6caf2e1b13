package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string, allowed ...string) error {
	for _, candidate := range allowed {
		if format == candidate {
			return nil
		}
	}

	return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported format %q (expected one of %s)",
		format, strings.Join(allowed, ", "))
}

// newTable creates a bordered table with the shared header and cell styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

func writeYAML(w io.Writer, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	_, err = w.Write(data)

	return err
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// CandleTable renders candles oldest first.
func CandleTable(candles []types.Candle) *table.Table {
	t := newTable("Open Time", "Open", "High", "Low", "Close", "Volume", "Trades")

	for _, candle := range candles {
		t.Row(
			candle.OpenTime.UTC().Format("2006-01-02 15:04"),
			formatFloat(candle.Open),
			formatFloat(candle.High),
			formatFloat(candle.Low),
			formatFloat(candle.Close),
			formatFloat(candle.Volume),
			strconv.FormatInt(candle.TradeCount, 10),
		)
	}

	return t
}

// PriceTable renders the latest snapshot of every symbol, sorted by symbol.
func PriceTable(prices map[string]types.TickerSnapshot) *table.Table {
	symbols := make([]string, 0, len(prices))
	for symbol := range prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	t := newTable("Symbol", "Price", "24h Change", "24h High", "24h Low", "24h Volume")

	for _, symbol := range symbols {
		snapshot := prices[symbol]
		t.Row(
			symbol,
			formatFloat(snapshot.Price),
			FormatSigned(snapshot.PriceChangePercent, "%"),
			formatFloat(snapshot.High24h),
			formatFloat(snapshot.Low24h),
			formatFloat(snapshot.Volume24h),
		)
	}

	return t
}

func summaryRow(name string, summary types.PerformanceSummary) []string {
	return []string{
		name,
		strconv.Itoa(summary.TotalTrades),
		strconv.Itoa(summary.Wins),
		strconv.Itoa(summary.Losses),
		fmt.Sprintf("%.2f%%", summary.WinRate),
		summary.ProfitFactor.String(),
		FormatSigned(summary.TotalPnL, ""),
		fmt.Sprintf("%.2f", summary.Expectancy),
	}
}

// RenderReport renders every section of a performance report as tables.
func RenderReport(report types.PerformanceReport) string {
	var b strings.Builder

	title := "Performance report"
	if report.Version != "" {
		title += " (" + report.Version + ")"
	}

	b.WriteString(TitleStyle.Render(title) + "\n")
	b.WriteString(HelpStyle.Render("generated at "+report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")) + "\n\n")

	overall := newTable("Scope", "Trades", "Wins", "Losses", "Win Rate", "Profit Factor", "Total PnL", "Expectancy")
	overall.Row(summaryRow("All trades", report.Summary)...)
	b.WriteString(overall.Render() + "\n")

	extremes := newTable("Avg Win", "Avg Loss", "Largest Win", "Largest Loss")
	extremes.Row(
		fmt.Sprintf("%.2f", report.Summary.AvgWin),
		fmt.Sprintf("%.2f", report.Summary.AvgLoss),
		fmt.Sprintf("%.2f", report.Summary.LargestWin),
		fmt.Sprintf("%.2f", report.Summary.LargestLoss),
	)
	b.WriteString(extremes.Render() + "\n\n")

	if len(report.Patterns) > 0 {
		b.WriteString(TitleStyle.Render("By pattern") + "\n")

		patterns := newTable("Pattern", "Trades", "Wins", "Losses", "Win Rate", "Profit Factor", "Total PnL", "Expectancy")
		for _, pattern := range report.Patterns {
			patterns.Row(summaryRow(pattern.PatternType, pattern.PerformanceSummary)...)
		}

		b.WriteString(patterns.Render() + "\n\n")
	}

	if len(report.Monthly) > 0 {
		b.WriteString(TitleStyle.Render("By month") + "\n")

		monthly := newTable("Month", "Trades", "Wins", "Losses", "Win Rate", "Total PnL")
		for _, month := range report.Monthly {
			monthly.Row(
				month.Month,
				strconv.Itoa(month.TotalTrades),
				strconv.Itoa(month.Wins),
				strconv.Itoa(month.Losses),
				fmt.Sprintf("%.2f%%", month.WinRate),
				FormatSigned(month.TotalPnL, ""),
			)
		}

		b.WriteString(monthly.Render() + "\n\n")
	}

	b.WriteString(TitleStyle.Render("Drawdown") + "\n")

	drawdown := newTable("Running Total", "Peak", "Current", "Max", "Current %")
	drawdown.Row(
		fmt.Sprintf("%.2f", report.Drawdown.RunningTotal),
		fmt.Sprintf("%.2f", report.Drawdown.Peak),
		fmt.Sprintf("%.2f", report.Drawdown.CurrentDrawdown),
		fmt.Sprintf("%.2f", report.Drawdown.MaxDrawdown),
		fmt.Sprintf("%.2f%%", report.Drawdown.DrawdownPercent),
	)
	b.WriteString(drawdown.Render() + "\n")

	return b.String()
}
