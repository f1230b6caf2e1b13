package types

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ProfitFactorKind tells whether a profit factor is a finite ratio or unbounded.
type ProfitFactorKind int

const (
	ProfitFactorFinite ProfitFactorKind = iota
	// ProfitFactorInfinite is used when there are winning trades and no losing amount.
	ProfitFactorInfinite
)

// InfinityLabel is how an infinite profit factor is encoded in JSON and YAML.
const InfinityLabel = "Infinity"

// ProfitFactor is the ratio of gross winning amount to gross losing amount.
// The zero value is a finite factor of 0.
type ProfitFactor struct {
	Kind  ProfitFactorKind
	Value float64
}

func FiniteProfitFactor(value float64) ProfitFactor {
	return ProfitFactor{Kind: ProfitFactorFinite, Value: value}
}

func InfiniteProfitFactor() ProfitFactor {
	return ProfitFactor{Kind: ProfitFactorInfinite, Value: 0}
}

func (p ProfitFactor) IsInfinite() bool {
	return p.Kind == ProfitFactorInfinite
}

// Float64 returns the factor as a float, using +Inf for the infinite case.
func (p ProfitFactor) Float64() float64 {
	if p.IsInfinite() {
		return math.Inf(1)
	}

	return p.Value
}

func (p ProfitFactor) String() string {
	if p.IsInfinite() {
		return InfinityLabel
	}

	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if p.IsInfinite() {
		return json.Marshal(InfinityLabel)
	}

	return json.Marshal(p.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProfitFactor) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		return p.parseLabel(label)
	}

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("invalid profit factor %s: %w", string(data), err)
	}

	*p = FiniteProfitFactor(value)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p ProfitFactor) MarshalYAML() (interface{}, error) {
	if p.IsInfinite() {
		return InfinityLabel, nil
	}

	return p.Value, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *ProfitFactor) UnmarshalYAML(value *yaml.Node) error {
	return p.parseLabel(value.Value)
}

func (p *ProfitFactor) parseLabel(label string) error {
	if label == InfinityLabel {
		*p = InfiniteProfitFactor()

		return nil
	}

	value, err := strconv.ParseFloat(label, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return fmt.Errorf("invalid profit factor %q", label)
	}

	*p = FiniteProfitFactor(value)

	return nil
}

// PerformanceSummary is the win/loss projection of a set of closed trades.
// Amounts and rates are rounded to 2 decimal places.
type PerformanceSummary struct {
	TotalTrades int `json:"totalTrades" yaml:"total_trades"`
	Wins        int `json:"wins" yaml:"wins"`
	Losses      int `json:"losses" yaml:"losses"`
	// WinRate in percent (0-100).
	WinRate float64 `json:"winRate" yaml:"win_rate"`
	AvgWin  float64 `json:"avgWin" yaml:"avg_win"`
	// AvgLoss is the average losing amount as a positive magnitude.
	AvgLoss      float64      `json:"avgLoss" yaml:"avg_loss"`
	ProfitFactor ProfitFactor `json:"profitFactor" yaml:"profit_factor"`
	TotalPnL     float64      `json:"totalPnL" yaml:"total_pnl"`
	LargestWin   float64      `json:"largestWin" yaml:"largest_win"`
	// LargestLoss is the most negative realized PnL (signed).
	LargestLoss float64 `json:"largestLoss" yaml:"largest_loss"`
	// Expectancy is the average realized PnL per closed trade.
	Expectancy float64 `json:"expectancy" yaml:"expectancy"`
}

type PatternPerformance struct {
	PatternType        string `json:"patternType" yaml:"pattern_type"`
	PerformanceSummary `yaml:",inline"`
}

type MonthlyPerformance struct {
	// Month is the UTC year-month key, e.g. "2024-03".
	Month       string  `json:"month" yaml:"month"`
	TotalTrades int     `json:"totalTrades" yaml:"total_trades"`
	Wins        int     `json:"wins" yaml:"wins"`
	Losses      int     `json:"losses" yaml:"losses"`
	WinRate     float64 `json:"winRate" yaml:"win_rate"`
	TotalPnL    float64 `json:"totalPnL" yaml:"total_pnl"`
}

// EquityPoint is the equity curve state right after one trade was folded in.
type EquityPoint struct {
	Time         time.Time `json:"time" yaml:"time"`
	RunningTotal float64   `json:"runningTotal" yaml:"running_total"`
	Peak         float64   `json:"peak" yaml:"peak"`
	Drawdown     float64   `json:"drawdown" yaml:"drawdown"`
}

// DrawdownState is the result of folding trades over the equity curve.
type DrawdownState struct {
	Peak            float64 `json:"peak" yaml:"peak"`
	RunningTotal    float64 `json:"runningTotal" yaml:"running_total"`
	CurrentDrawdown float64 `json:"currentDrawdown" yaml:"current_drawdown"`
	MaxDrawdown     float64 `json:"maxDrawdown" yaml:"max_drawdown"`
	// DrawdownPercent is CurrentDrawdown relative to Peak, 0 when Peak <= 0.
	DrawdownPercent float64       `json:"drawdownPercent" yaml:"drawdown_percent"`
	Curve           []EquityPoint `json:"curve,omitempty" yaml:"curve,omitempty"`
}

// PerformanceReport bundles every analytics projection of one trade list.
type PerformanceReport struct {
	// Version of the binary that wrote the report. Empty for in-memory reports.
	Version     string               `json:"version,omitempty" yaml:"version,omitempty"`
	GeneratedAt time.Time            `json:"generatedAt" yaml:"generated_at"`
	Summary     PerformanceSummary   `json:"summary" yaml:"summary"`
	Patterns    []PatternPerformance `json:"patterns" yaml:"patterns"`
	Monthly     []MonthlyPerformance `json:"monthly" yaml:"monthly"`
	Drawdown    DrawdownState        `json:"drawdown" yaml:"drawdown"`
}

// WritePerformanceReport writes the report as YAML to path.
func WritePerformanceReport(path string, report PerformanceReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal performance report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance report to file: %w", err)
	}

	return nil
}

// ReadPerformanceReport reads a report previously written by WritePerformanceReport.
func ReadPerformanceReport(path string) (PerformanceReport, error) {
	var report PerformanceReport

	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read performance report: %w", err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to unmarshal performance report: %w", err)
	}

	return report, nil
}
