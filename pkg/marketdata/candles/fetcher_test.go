package candles_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/mocks"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/rxtech-lab/argo-pulse/pkg/marketdata/candles"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type FetcherTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	primary   *mocks.MockKlineSource
	secondary *mocks.MockKlineSource
	fetcher   *candles.Fetcher
}

func TestFetcherSuite(t *testing.T) {
	suite.Run(t, new(FetcherTestSuite))
}

func (suite *FetcherTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.primary = mocks.NewMockKlineSource(suite.ctrl)
	suite.secondary = mocks.NewMockKlineSource(suite.ctrl)
	suite.primary.EXPECT().Name().Return("spot").AnyTimes()
	suite.secondary.EXPECT().Name().Return("futures").AnyTimes()
	suite.fetcher = candles.NewFetcherWithSources(suite.primary, suite.secondary, nil)
}

func (suite *FetcherTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func candleAt(minute int, closePrice float64) types.Candle {
	openTime := time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC)

	return types.Candle{
		OpenTime:  openTime,
		Open:      closePrice - 1,
		High:      closePrice + 1,
		Low:       closePrice - 2,
		Close:     closePrice,
		Volume:    10,
		CloseTime: openTime.Add(time.Minute - time.Millisecond),
	}
}

func (suite *FetcherTestSuite) TestPrimarySuccessSkipsSecondary() {
	expected := []types.Candle{candleAt(0, 100), candleAt(1, 101)}
	suite.primary.EXPECT().
		Klines(gomock.Any(), "BTCUSDT", candles.Interval1h, 2).
		Return(expected, nil).
		Times(1)
	suite.secondary.EXPECT().Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	result, err := suite.fetcher.FetchCandles(context.Background(), "btcusdt", "1H", 2)
	suite.Require().NoError(err)
	suite.Equal(expected, result)
}

func (suite *FetcherTestSuite) TestFallbackToSecondaryOnce() {
	expected := []types.Candle{candleAt(0, 50)}
	suite.primary.EXPECT().
		Klines(gomock.Any(), "ETHUSDT", candles.Interval1d, 1).
		Return(nil, stderrors.New("status 451")).
		Times(1)
	suite.secondary.EXPECT().
		Klines(gomock.Any(), "ETHUSDT", candles.Interval1d, 1).
		Return(expected, nil).
		Times(1)

	result, err := suite.fetcher.FetchCandles(context.Background(), "ETHUSDT", "1D", 1)
	suite.Require().NoError(err)
	suite.Equal(expected, result)
}

func (suite *FetcherTestSuite) TestBothSourcesFail() {
	primaryErr := stderrors.New("spot down")
	secondaryErr := stderrors.New("futures down")

	suite.primary.EXPECT().Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, primaryErr).Times(1)
	suite.secondary.EXPECT().Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, secondaryErr).Times(1)

	result, err := suite.fetcher.FetchCandles(context.Background(), "BTCUSDT", "1m", 10)
	suite.Require().Error(err)
	suite.Nil(result)
	suite.True(errors.HasCode(err, errors.ErrCodeDataUnavailable))
	suite.ErrorIs(err, primaryErr)
	suite.ErrorIs(err, secondaryErr)
}

func (suite *FetcherTestSuite) TestInvalidInputMakesNoCalls() {
	suite.primary.EXPECT().Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	suite.secondary.EXPECT().Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	tests := []struct {
		name     string
		symbol   string
		interval string
		limit    int
		code     errors.ErrorCode
	}{
		{name: "bad interval", symbol: "BTCUSDT", interval: "7x", limit: 10, code: errors.ErrCodeInvalidInterval},
		{name: "zero limit", symbol: "BTCUSDT", interval: "1h", limit: 0, code: errors.ErrCodeInvalidParameter},
		{name: "limit above max", symbol: "BTCUSDT", interval: "1h", limit: candles.MaxLimit + 1, code: errors.ErrCodeInvalidParameter},
		{name: "empty symbol", symbol: "  ", interval: "1h", limit: 10, code: errors.ErrCodeInvalidParameter},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.fetcher.FetchCandles(context.Background(), tt.symbol, tt.interval, tt.limit)
			suite.Require().Error(err)
			suite.Equal(tt.code, errors.GetCode(err))
		})
	}
}

func (suite *FetcherTestSuite) TestMaxLimitAccepted() {
	suite.primary.EXPECT().
		Klines(gomock.Any(), "BTCUSDT", candles.Interval1m, candles.MaxLimit).
		Return([]types.Candle{}, nil)

	result, err := suite.fetcher.FetchCandles(context.Background(), "BTCUSDT", "1m", candles.MaxLimit)
	suite.Require().NoError(err)
	suite.Empty(result)
}

func (suite *FetcherTestSuite) TestResultIsSortedByOpenTime() {
	suite.primary.EXPECT().
		Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]types.Candle{candleAt(2, 3), candleAt(0, 1), candleAt(1, 2)}, nil)

	result, err := suite.fetcher.FetchCandles(context.Background(), "BTCUSDT", "1m", 3)
	suite.Require().NoError(err)
	suite.Require().Len(result, 3)
	suite.Equal(1.0, result[0].Close)
	suite.Equal(2.0, result[1].Close)
	suite.Equal(3.0, result[2].Close)
}

func (suite *FetcherTestSuite) TestCancelledContextDoesNotFallBack() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suite.primary.EXPECT().
		Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, context.Canceled)
	suite.secondary.EXPECT().Klines(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := suite.fetcher.FetchCandles(ctx, "BTCUSDT", "1m", 3)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.ErrorIs(err, context.Canceled)
}

func (suite *FetcherTestSuite) TestNewFetcherRejectsInvalidConfig() {
	config := candles.DefaultConfig()
	config.SecondaryBaseURL = ""

	fetcher, err := candles.NewFetcher(config, nil)
	suite.Nil(fetcher)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
