package mockserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type MockServerTestSuite struct {
	suite.Suite
	server *MockBinanceServer
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	suite.server = NewMockBinanceServer(ServerConfig{
		InitialPrices: map[string]float64{
			"BTCUSDT": 50000.0,
			"ETHUSDT": 3000.0,
		},
		Seed: 12345,
	})

	err := suite.server.Start("")
	suite.Require().NoError(err)
}

func (suite *MockServerTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Stop()
	}
}

// Test Server Lifecycle

func (suite *MockServerTestSuite) TestServerStartAndStop() {
	suite.NotEmpty(suite.server.Address())
	suite.Contains(suite.server.BaseURL(), "http://")
	suite.Contains(suite.server.WebSocketURL(), "ws://")
}

// Test Price Management

func (suite *MockServerTestSuite) TestSetAndGetPrice() {
	suite.server.SetPrice("solusdt", 150.0)
	suite.Equal(150.0, suite.server.GetPrice("SOLUSDT"))
	suite.Equal(0.0, suite.server.GetPrice("NOPE"))
}

// Test REST Endpoints

func (suite *MockServerTestSuite) getKlines(path string) (*http.Response, [][]interface{}) {
	resp, err := http.Get(suite.server.BaseURL() + path)
	suite.Require().NoError(err)

	defer resp.Body.Close()

	var klines [][]interface{}
	if resp.StatusCode == http.StatusOK {
		suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&klines))
	}

	return resp, klines
}

func (suite *MockServerTestSuite) TestKlinesEndpoint() {
	resp, klines := suite.getKlines("/api/v3/klines?symbol=BTCUSDT&interval=1h&limit=5")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Len(klines, 5)

	for _, kline := range klines {
		suite.Len(kline, 12)
	}

	suite.Equal(1, suite.server.SpotHits())
	suite.Equal(0, suite.server.FuturesHits())
}

func (suite *MockServerTestSuite) TestFuturesKlinesEndpoint() {
	resp, klines := suite.getKlines("/fapi/v1/klines?symbol=ETHUSDT&interval=1d&limit=3")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Len(klines, 3)
	suite.Equal(1, suite.server.FuturesHits())
}

func (suite *MockServerTestSuite) TestKlinesFailureSwitch() {
	suite.server.SetSpotStatus(http.StatusServiceUnavailable)

	resp, _ := suite.getKlines("/api/v3/klines?symbol=BTCUSDT&interval=1h&limit=5")
	suite.Equal(http.StatusServiceUnavailable, resp.StatusCode)

	suite.server.SetSpotStatus(http.StatusOK)

	resp, _ = suite.getKlines("/api/v3/klines?symbol=BTCUSDT&interval=1h&limit=5")
	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *MockServerTestSuite) TestKlinesInvalidInterval() {
	resp, _ := suite.getKlines("/api/v3/klines?symbol=BTCUSDT&interval=1x")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

// Test WebSocket Endpoint

func (suite *MockServerTestSuite) dialStream(streams string) *websocket.Conn {
	conn, resp, err := websocket.DefaultDialer.Dial(suite.server.WebSocketURL()+"/stream?streams="+streams, nil)
	suite.Require().NoError(err)

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	suite.Require().Eventually(func() bool {
		return suite.server.ActiveConnections() > 0
	}, time.Second, 5*time.Millisecond)

	return conn
}

func (suite *MockServerTestSuite) TestPushTicker() {
	conn := suite.dialStream("btcusdt@ticker")
	defer conn.Close()

	suite.Equal(1, suite.server.PushTicker("BTCUSDT", 51000))
	suite.Equal(0, suite.server.PushTicker("ETHUSDT", 3100))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	suite.Require().NoError(err)

	var envelope struct {
		Stream string `json:"stream"`
		Data   struct {
			Symbol string `json:"s"`
			Close  string `json:"c"`
		} `json:"data"`
	}

	suite.Require().NoError(json.Unmarshal(frame, &envelope))
	suite.Equal("btcusdt@ticker", envelope.Stream)
	suite.Equal("BTCUSDT", envelope.Data.Symbol)
	suite.True(strings.HasPrefix(envelope.Data.Close, "51000"))
	suite.Equal(51000.0, suite.server.GetPrice("BTCUSDT"))
}

func (suite *MockServerTestSuite) TestRejectStreams() {
	suite.server.SetRejectStreams(true)

	_, resp, err := websocket.DefaultDialer.Dial(suite.server.WebSocketURL()+"/stream?streams=btcusdt@ticker", nil)
	suite.Require().Error(err)

	if resp != nil {
		suite.Equal(http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	}

	suite.Equal(1, suite.server.StreamRejections())
	suite.Equal(0, suite.server.StreamConnections())
}

func (suite *MockServerTestSuite) TestDropConnections() {
	conn := suite.dialStream("btcusdt@ticker/ethusdt@ticker")
	defer conn.Close()

	suite.server.DropConnections()
	suite.Equal(0, suite.server.ActiveConnections())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	suite.Error(err)
}

func (suite *MockServerTestSuite) TestGeneratedTickers() {
	suite.server.Stop()

	suite.server = NewMockBinanceServer(ServerConfig{
		InitialPrices:  map[string]float64{"BTCUSDT": 100},
		StreamInterval: 10 * time.Millisecond,
	})
	suite.Require().NoError(suite.server.Start(""))

	conn := suite.dialStream("btcusdt@ticker")
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	for i := 0; i < 3; i++ {
		_, _, err := conn.ReadMessage()
		suite.Require().NoError(err)
	}
}

func (suite *MockServerTestSuite) TestParseInterval() {
	suite.Equal(time.Minute, parseInterval("1m"))
	suite.Equal(4*time.Hour, parseInterval("4h"))
	suite.Equal(30*24*time.Hour, parseInterval("1M"))
	suite.Equal(time.Duration(0), parseInterval("x"))
	suite.Equal(time.Duration(0), parseInterval("1y"))
}
