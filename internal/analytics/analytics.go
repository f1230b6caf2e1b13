// Package analytics derives performance statistics from closed trades.
//
// Every function is pure: it reads the slice it is given, keeps no state and
// never fails. Only SELL records are considered; BUY records and records with a
// non-finite realized PnL are ignored.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/shopspring/decimal"
)

// monthLayout is the UTC year-month bucket key.
const monthLayout = "2006-01"

// WinLossStats summarizes wins, losses and profit ratios of the closed trades.
// A trade with zero PnL counts toward TotalTrades but is neither a win nor a loss.
func WinLossStats(trades []types.ClosedTrade) types.PerformanceSummary {
	acc := newStatsAccumulator()

	for _, trade := range trades {
		if pnl, ok := closedPnL(trade); ok {
			acc.add(pnl)
		}
	}

	return acc.summary()
}

// PatternPerformance groups closed trades by pattern type. Trades without a
// pattern fall into types.UnknownPattern. Results are ordered by total PnL,
// best first, then by pattern name.
func PatternPerformance(trades []types.ClosedTrade) []types.PatternPerformance {
	groups := make(map[string]*statsAccumulator)

	for _, trade := range trades {
		pnl, ok := closedPnL(trade)
		if !ok {
			continue
		}

		pattern := trade.Pattern()

		acc, exists := groups[pattern]
		if !exists {
			acc = newStatsAccumulator()
			groups[pattern] = acc
		}

		acc.add(pnl)
	}

	patterns := make([]string, 0, len(groups))
	for pattern := range groups {
		patterns = append(patterns, pattern)
	}

	slices.SortFunc(patterns, func(a, b string) int {
		if c := groups[b].totalPnL.Cmp(groups[a].totalPnL); c != 0 {
			return c
		}

		return cmp.Compare(a, b)
	})

	result := make([]types.PatternPerformance, 0, len(patterns))
	for _, pattern := range patterns {
		result = append(result, types.PatternPerformance{
			PatternType:        pattern,
			PerformanceSummary: groups[pattern].summary(),
		})
	}

	return result
}

// MonthlyPerformance buckets closed trades by the UTC month of their effective
// time, oldest month first.
func MonthlyPerformance(trades []types.ClosedTrade) []types.MonthlyPerformance {
	groups := make(map[string]*statsAccumulator)

	for _, trade := range trades {
		pnl, ok := closedPnL(trade)
		if !ok {
			continue
		}

		month := trade.EffectiveTime().UTC().Format(monthLayout)

		acc, exists := groups[month]
		if !exists {
			acc = newStatsAccumulator()
			groups[month] = acc
		}

		acc.add(pnl)
	}

	months := make([]string, 0, len(groups))
	for month := range groups {
		months = append(months, month)
	}

	slices.Sort(months)

	result := make([]types.MonthlyPerformance, 0, len(months))
	for _, month := range months {
		acc := groups[month]
		result = append(result, types.MonthlyPerformance{
			Month:       month,
			TotalTrades: acc.totalTrades,
			Wins:        acc.wins,
			Losses:      acc.losses,
			WinRate:     acc.winRate(),
			TotalPnL:    round(acc.totalPnL),
		})
	}

	return result
}

// Drawdown replays closed trades in chronological order over an equity curve
// starting at zero and reports the peak-to-trough decline. Trades with equal
// effective times keep their input order.
func Drawdown(trades []types.ClosedTrade) types.DrawdownState {
	type entry struct {
		at  time.Time
		pnl decimal.Decimal
	}

	entries := make([]entry, 0, len(trades))

	for _, trade := range trades {
		if pnl, ok := closedPnL(trade); ok {
			entries = append(entries, entry{at: trade.EffectiveTime(), pnl: pnl})
		}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return a.at.Compare(b.at)
	})

	var (
		running = decimal.Zero
		peak    = decimal.Zero
		maxDD   = decimal.Zero
		curve   = make([]types.EquityPoint, 0, len(entries))
	)

	for _, e := range entries {
		running = running.Add(e.pnl)
		peak = decimal.Max(peak, running)
		drawdown := peak.Sub(running)
		maxDD = decimal.Max(maxDD, drawdown)

		curve = append(curve, types.EquityPoint{
			Time:         e.at,
			RunningTotal: round(running),
			Peak:         round(peak),
			Drawdown:     round(drawdown),
		})
	}

	current := peak.Sub(running)
	percent := 0.0

	if peak.IsPositive() {
		percent = round(current.Div(peak).Mul(hundred))
	}

	return types.DrawdownState{
		Peak:            round(peak),
		RunningTotal:    round(running),
		CurrentDrawdown: round(current),
		MaxDrawdown:     round(maxDD),
		DrawdownPercent: percent,
		Curve:           curve,
	}
}

// BuildReport runs every projection over trades.
func BuildReport(trades []types.ClosedTrade, now time.Time) types.PerformanceReport {
	return types.PerformanceReport{
		GeneratedAt: now.UTC(),
		Summary:     WinLossStats(trades),
		Patterns:    PatternPerformance(trades),
		Monthly:     MonthlyPerformance(trades),
		Drawdown:    Drawdown(trades),
	}
}
