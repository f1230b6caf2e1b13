package tradesource

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pulse/internal/analytics"
	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const tradesCSV = `transaction_type,realized_pnl,pattern_type,transaction_at,created_at
SELL,100.5,Breakout,2024-01-05 10:00:00,2024-01-05 10:00:01
BUY,0,Breakout,2024-01-04 09:00:00,2024-01-04 09:00:00
sell,-20,,2024-02-01 00:00:00,2024-02-01 00:00:00
SELL,5,Flag,,2024-03-01 12:00:00
`

type TradeSourceTestSuite struct {
	suite.Suite
	source *Source
	dir    string
}

func TestTradeSourceSuite(t *testing.T) {
	suite.Run(t, new(TradeSourceTestSuite))
}

func (suite *TradeSourceTestSuite) SetupTest() {
	source, err := Open(nil)
	suite.Require().NoError(err)

	suite.source = source
	suite.dir = suite.T().TempDir()
}

func (suite *TradeSourceTestSuite) TearDownTest() {
	suite.NoError(suite.source.Close())
}

func (suite *TradeSourceTestSuite) writeFile(name string, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *TradeSourceTestSuite) TestLoadCSV() {
	path := suite.writeFile("trades.csv", tradesCSV)

	trades, err := suite.source.Load(context.Background(), path, LoadOptions{})
	suite.Require().NoError(err)
	suite.Require().Len(trades, 4)

	// ordered by effective time
	suite.Equal(types.TransactionTypeBuy, trades[0].TransactionType)

	suite.Equal(types.TransactionTypeSell, trades[1].TransactionType)
	suite.Equal(100.5, trades[1].RealizedPnL)
	suite.Equal("Breakout", trades[1].PatternType)
	suite.Equal(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), trades[1].TransactionAt)
	suite.Equal(time.Date(2024, 1, 5, 10, 0, 1, 0, time.UTC), trades[1].CreatedAt)

	suite.Equal(types.TransactionTypeSell, trades[2].TransactionType)
	suite.Equal(-20.0, trades[2].RealizedPnL)
	suite.Equal(types.UnknownPattern, trades[2].Pattern())

	suite.True(trades[3].TransactionAt.IsZero())
	suite.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), trades[3].EffectiveTime())
}

func (suite *TradeSourceTestSuite) TestLoadWithTimeWindow() {
	path := suite.writeFile("trades.csv", tradesCSV)

	trades, err := suite.source.Load(context.Background(), path, LoadOptions{
		Start: optional.Some(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		End:   optional.Some(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)),
	})
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal(100.5, trades[0].RealizedPnL)
	suite.Equal(-20.0, trades[1].RealizedPnL)

	trades, err = suite.source.Load(context.Background(), path, LoadOptions{
		Start: optional.Some(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		End:   optional.None[time.Time](),
	})
	suite.Require().NoError(err)
	suite.Len(trades, 2)
}

func (suite *TradeSourceTestSuite) TestLoadJSONWithMissingOptionalColumns() {
	lines := []string{
		`{"transaction_type":"SELL","realized_pnl":12.25}`,
		`{"transaction_type":"BUY","realized_pnl":0}`,
		`{"transaction_type":"SELL","realized_pnl":-2}`,
	}
	path := suite.writeFile("trades.jsonl", strings.Join(lines, "\n")+"\n")

	trades, err := suite.source.Load(context.Background(), path, LoadOptions{})
	suite.Require().NoError(err)
	suite.Require().Len(trades, 3)

	var total float64
	for _, trade := range trades {
		suite.Empty(trade.PatternType)
		suite.True(trade.EffectiveTime().IsZero())

		if trade.IsClosed() {
			total += trade.RealizedPnL
		}
	}

	suite.Equal(10.25, total)
}

func (suite *TradeSourceTestSuite) TestLoadCSVWithUnusablePnL() {
	path := suite.writeFile("trades.csv", `transaction_type,realized_pnl,pattern_type,transaction_at,created_at
BUY,,Breakout,2024-01-04 09:00:00,2024-01-04 09:00:00
SELL,100,Breakout,2024-01-05 10:00:00,2024-01-05 10:00:00
SELL,,Flag,2024-01-06 10:00:00,2024-01-06 10:00:00
SELL,n/a,Flag,2024-01-07 10:00:00,2024-01-07 10:00:00
SELL,-50,Flag,2024-01-08 10:00:00,2024-01-08 10:00:00
`)

	trades, err := suite.source.Load(context.Background(), path, LoadOptions{})
	suite.Require().NoError(err)
	suite.Require().Len(trades, 5)

	suite.True(math.IsNaN(trades[0].RealizedPnL))
	suite.Equal(100.0, trades[1].RealizedPnL)
	suite.True(math.IsNaN(trades[2].RealizedPnL))
	suite.True(math.IsNaN(trades[3].RealizedPnL))
	suite.Equal(-50.0, trades[4].RealizedPnL)

	summary := analytics.WinLossStats(trades)
	suite.Equal(2, summary.TotalTrades)
	suite.Equal(1, summary.Wins)
	suite.Equal(1, summary.Losses)
	suite.Equal(50.0, summary.WinRate)
	suite.Equal(50.0, summary.TotalPnL)
}

func (suite *TradeSourceTestSuite) TestLoadParquet() {
	csvPath := suite.writeFile("trades.csv", tradesCSV)
	parquetPath := filepath.Join(suite.dir, "trades.parquet")

	_, err := suite.source.db.Exec(fmt.Sprintf(
		"COPY (SELECT * FROM read_csv_auto('%s')) TO '%s' (FORMAT PARQUET)", csvPath, parquetPath,
	))
	suite.Require().NoError(err)

	trades, err := suite.source.Load(context.Background(), parquetPath, LoadOptions{})
	suite.Require().NoError(err)
	suite.Len(trades, 4)
}

func (suite *TradeSourceTestSuite) TestMissingRequiredColumn() {
	path := suite.writeFile("trades.csv", "transaction_type,pattern_type\nSELL,Flag\n")

	_, err := suite.source.Load(context.Background(), path, LoadOptions{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
	suite.Contains(err.Error(), "realized_pnl")
}

func (suite *TradeSourceTestSuite) TestUnsupportedExtension() {
	_, err := suite.source.Load(context.Background(), filepath.Join(suite.dir, "trades.xlsx"), LoadOptions{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = suite.source.Load(context.Background(), " ", LoadOptions{})
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *TradeSourceTestSuite) TestMissingFile() {
	_, err := suite.source.Load(context.Background(), filepath.Join(suite.dir, "missing.csv"), LoadOptions{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
}

func (suite *TradeSourceTestSuite) TestBuildQueryPlaceholders() {
	table, err := tableFunction("/tmp/what?.csv")
	suite.Require().NoError(err)

	query, args, err := suite.source.buildQuery(table, map[string]struct{}{
		"transaction_type": {},
		"realized_pnl":     {},
	}, LoadOptions{
		Start: optional.Some(time.Unix(0, 0)),
		End:   optional.Some(time.Unix(10, 0)),
	})
	suite.Require().NoError(err)

	suite.Contains(query, "read_csv_auto('/tmp/what?.csv')")
	suite.Contains(query, "$1")
	suite.Contains(query, "$2")
	suite.Contains(query, "CAST(NULL AS VARCHAR) AS pattern_type")
	suite.Len(args, 2)
}
