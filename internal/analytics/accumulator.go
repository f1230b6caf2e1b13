package analytics

import (
	"math"

	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// statsAccumulator holds running win/loss totals for a set of closed trades.
// Amounts stay in decimal until summary() rounds them.
type statsAccumulator struct {
	totalTrades int
	wins        int
	losses      int
	winAmount   decimal.Decimal
	lossAmount  decimal.Decimal // positive magnitude
	totalPnL    decimal.Decimal
	largestWin  decimal.Decimal
	largestLoss decimal.Decimal // signed, <= 0
}

func newStatsAccumulator() *statsAccumulator {
	return &statsAccumulator{
		totalTrades: 0,
		wins:        0,
		losses:      0,
		winAmount:   decimal.Zero,
		lossAmount:  decimal.Zero,
		totalPnL:    decimal.Zero,
		largestWin:  decimal.Zero,
		largestLoss: decimal.Zero,
	}
}

func (a *statsAccumulator) add(pnl decimal.Decimal) {
	a.totalTrades++
	a.totalPnL = a.totalPnL.Add(pnl)

	switch {
	case pnl.IsPositive():
		a.wins++
		a.winAmount = a.winAmount.Add(pnl)

		if pnl.GreaterThan(a.largestWin) {
			a.largestWin = pnl
		}
	case pnl.IsNegative():
		a.losses++
		a.lossAmount = a.lossAmount.Add(pnl.Abs())

		if pnl.LessThan(a.largestLoss) {
			a.largestLoss = pnl
		}
	}
}

func (a *statsAccumulator) winRate() float64 {
	if a.totalTrades == 0 {
		return 0
	}

	return round(decimal.NewFromInt(int64(a.wins)).Div(decimal.NewFromInt(int64(a.totalTrades))).Mul(hundred))
}

func (a *statsAccumulator) profitFactor() types.ProfitFactor {
	if a.lossAmount.IsZero() {
		if a.wins > 0 {
			return types.InfiniteProfitFactor()
		}

		return types.FiniteProfitFactor(0)
	}

	return types.FiniteProfitFactor(round(a.winAmount.Div(a.lossAmount)))
}

func (a *statsAccumulator) summary() types.PerformanceSummary {
	summary := types.PerformanceSummary{
		TotalTrades:  a.totalTrades,
		Wins:         a.wins,
		Losses:       a.losses,
		WinRate:      a.winRate(),
		AvgWin:       0,
		AvgLoss:      0,
		ProfitFactor: a.profitFactor(),
		TotalPnL:     round(a.totalPnL),
		LargestWin:   round(a.largestWin),
		LargestLoss:  round(a.largestLoss),
		Expectancy:   0,
	}

	if a.wins > 0 {
		summary.AvgWin = round(a.winAmount.Div(decimal.NewFromInt(int64(a.wins))))
	}

	if a.losses > 0 {
		summary.AvgLoss = round(a.lossAmount.Div(decimal.NewFromInt(int64(a.losses))))
	}

	if a.totalTrades > 0 {
		summary.Expectancy = round(a.totalPnL.Div(decimal.NewFromInt(int64(a.totalTrades))))
	}

	return summary
}

// round converts to float64 at 2 decimal places.
func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// closedPnL returns the realized PnL of t as a decimal, or false when t is not a
// closing trade or its PnL is not a finite number.
func closedPnL(t types.ClosedTrade) (decimal.Decimal, bool) {
	if !t.IsClosed() {
		return decimal.Zero, false
	}

	if math.IsNaN(t.RealizedPnL) || math.IsInf(t.RealizedPnL, 0) {
		return decimal.Zero, false
	}

	return decimal.NewFromFloat(t.RealizedPnL), true
}
