package candles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakeExchange serves spot and futures klines in the Binance array format.
type fakeExchange struct {
	server        *httptest.Server
	spotStatus    atomic.Int32
	futuresStatus atomic.Int32
	spotHits      atomic.Int32
	futuresHits   atomic.Int32
	lastQuery     atomic.Value
}

func newFakeExchange() *fakeExchange {
	exchange := &fakeExchange{}
	exchange.spotStatus.Store(http.StatusOK)
	exchange.futuresStatus.Store(http.StatusOK)

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/klines", exchange.handler(&exchange.spotStatus, &exchange.spotHits, 42000)).Methods(http.MethodGet)
	router.HandleFunc("/fapi/v1/klines", exchange.handler(&exchange.futuresStatus, &exchange.futuresHits, 41900)).Methods(http.MethodGet)

	exchange.server = httptest.NewServer(router)

	return exchange
}

func (e *fakeExchange) handler(status *atomic.Int32, hits *atomic.Int32, basePrice float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		e.lastQuery.Store(r.URL.Query())

		w.Header().Set("Content-Type", "application/json")

		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))

			return
		}

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = 500
		}

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		klines := make([][]interface{}, 0, limit)

		for i := 0; i < limit; i++ {
			openTime := start.Add(time.Duration(i) * time.Hour)
			price := basePrice + float64(i)
			klines = append(klines, []interface{}{
				openTime.UnixMilli(),
				strconv.FormatFloat(price, 'f', 2, 64),
				strconv.FormatFloat(price+10, 'f', 2, 64),
				strconv.FormatFloat(price-10, 'f', 2, 64),
				strconv.FormatFloat(price+5, 'f', 2, 64),
				"12.5",
				openTime.Add(time.Hour - time.Millisecond).UnixMilli(),
				"525000.00",
				int64(100 + i),
				"6.0",
				"252000.00",
				"0",
			})
		}

		_ = json.NewEncoder(w).Encode(klines)
	}
}

func (e *fakeExchange) config() Config {
	return Config{
		PrimaryBaseURL:   e.server.URL,
		SecondaryBaseURL: e.server.URL,
		RequestTimeout:   5 * time.Second,
	}
}

type SourceTestSuite struct {
	suite.Suite
	exchange *fakeExchange
}

func TestSourceSuite(t *testing.T) {
	suite.Run(t, new(SourceTestSuite))
}

func (suite *SourceTestSuite) SetupTest() {
	suite.exchange = newFakeExchange()
}

func (suite *SourceTestSuite) TearDownTest() {
	suite.exchange.server.Close()
}

func (suite *SourceTestSuite) TestSpotKlinesMapping() {
	source := NewSpotSource(suite.exchange.server.URL+"/", 5*time.Second)

	result, err := source.Klines(context.Background(), "BTCUSDT", Interval1h, 2)
	suite.Require().NoError(err)
	suite.Require().Len(result, 2)

	first := result[0]
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.OpenTime)
	suite.Equal(time.Date(2024, 1, 1, 0, 59, 59, 999000000, time.UTC), first.CloseTime)
	suite.Equal(42000.0, first.Open)
	suite.Equal(42010.0, first.High)
	suite.Equal(41990.0, first.Low)
	suite.Equal(42005.0, first.Close)
	suite.Equal(12.5, first.Volume)
	suite.Equal(525000.0, first.QuoteVolume)
	suite.Equal(int64(100), first.TradeCount)

	query, ok := suite.exchange.lastQuery.Load().(url.Values)
	if !ok {
		suite.Fail("query not recorded")

		return
	}

	suite.Equal([]string{"BTCUSDT"}, query["symbol"])
	suite.Equal([]string{"1h"}, query["interval"])
	suite.Equal([]string{"2"}, query["limit"])
}

func (suite *SourceTestSuite) TestFuturesKlinesMapping() {
	source := NewFuturesSource(suite.exchange.server.URL, 5*time.Second)

	result, err := source.Klines(context.Background(), "BTCUSDT", Interval1h, 3)
	suite.Require().NoError(err)
	suite.Require().Len(result, 3)
	suite.Equal(41900.0, result[0].Open)
	suite.Equal(int32(1), suite.exchange.futuresHits.Load())
	suite.Equal(int32(0), suite.exchange.spotHits.Load())
}

func (suite *SourceTestSuite) TestSpotErrorStatus() {
	suite.exchange.spotStatus.Store(http.StatusBadRequest)
	source := NewSpotSource(suite.exchange.server.URL, 5*time.Second)

	result, err := source.Klines(context.Background(), "NOPE", Interval1h, 2)
	suite.Error(err)
	suite.Nil(result)
}

func (suite *SourceTestSuite) TestFetcherFallsBackToFutures() {
	suite.exchange.spotStatus.Store(http.StatusInternalServerError)

	fetcher, err := NewFetcher(suite.exchange.config(), nil)
	suite.Require().NoError(err)

	result, err := fetcher.FetchCandles(context.Background(), "btcusdt", "1H", 4)
	suite.Require().NoError(err)
	suite.Len(result, 4)
	suite.Equal(41900.0, result[0].Open)
	suite.Equal(int32(1), suite.exchange.spotHits.Load())
	suite.Equal(int32(1), suite.exchange.futuresHits.Load())
}

func (suite *SourceTestSuite) TestFetcherBothDown() {
	suite.exchange.spotStatus.Store(http.StatusInternalServerError)
	suite.exchange.futuresStatus.Store(http.StatusBadGateway)

	fetcher, err := NewFetcher(suite.exchange.config(), nil)
	suite.Require().NoError(err)

	_, err = fetcher.FetchCandles(context.Background(), "BTCUSDT", "1h", 4)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataUnavailable))
	suite.Equal(int32(1), suite.exchange.spotHits.Load())
	suite.Equal(int32(1), suite.exchange.futuresHits.Load())
}

func (suite *SourceTestSuite) TestToCandleRejectsMalformedNumbers() {
	_, err := toCandle(0, "1", "x", "1", "1", "1", 0, "1", 1)
	suite.Error(err)
	suite.Contains(err.Error(), "high")
}
