// Package mockserver provides a mock Binance server for testing.
// It serves spot and futures klines over REST and combined 24h ticker streams
// over WebSocket, with switches to make either side fail.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-pulse/mocks"
)

// MockBinanceServer provides a mock Binance server for testing.
type MockBinanceServer struct {
	mu sync.RWMutex

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// Market data
	currentPrices map[string]float64
	seed          int64

	// Failure switches
	spotStatus    atomic.Int32
	futuresStatus atomic.Int32
	rejectStreams atomic.Bool

	// Counters
	spotHits       atomic.Int32
	futuresHits    atomic.Int32
	streamAccepted atomic.Int32
	streamRejected atomic.Int32

	// WebSocket connections
	wsConnections map[*websocket.Conn]*streamClient
	wsMu          sync.RWMutex

	// Streaming configuration
	streamInterval time.Duration
	stopStreaming  chan struct{}
	stopOnce       sync.Once
}

// streamClient is one combined-stream connection and the symbols it asked for.
type streamClient struct {
	conn    *websocket.Conn
	symbols map[string]bool
	writeMu sync.Mutex
}

func (c *streamClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// InitialPrices maps symbol to the price candles and tickers start from
	InitialPrices map[string]float64
	// StreamInterval is the interval between generated ticker updates.
	// Zero disables generated updates; tickers are then only sent by PushTicker.
	StreamInterval time.Duration
	// Seed makes generated candles reproducible
	Seed int64
}

// NewMockBinanceServer creates a new mock Binance server.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	server := &MockBinanceServer{
		mu: sync.RWMutex{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		currentPrices:  make(map[string]float64),
		seed:           config.Seed,
		wsConnections:  make(map[*websocket.Conn]*streamClient),
		wsMu:           sync.RWMutex{},
		streamInterval: config.StreamInterval,
		stopStreaming:  make(chan struct{}),
		httpServer:     nil,
		listener:       nil,
	}

	server.spotStatus.Store(http.StatusOK)
	server.futuresStatus.Store(http.StatusOK)

	for symbol, price := range config.InitialPrices {
		server.currentPrices[strings.ToUpper(symbol)] = price
	}

	if server.seed == 0 {
		server.seed = 42
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty, a random port on the loopback interface is used.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()

	// REST API endpoints
	router.HandleFunc("/api/v3/klines", s.handleKlines(&s.spotStatus, &s.spotHits)).Methods("GET")
	router.HandleFunc("/fapi/v1/klines", s.handleKlines(&s.futuresStatus, &s.futuresHits)).Methods("GET")

	// WebSocket endpoint
	router.HandleFunc("/stream", s.handleStream)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBinanceServer) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopStreaming)
	})

	s.DropConnections()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockBinanceServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the REST base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	return "http://" + s.Address()
}

// WebSocketURL returns the stream base URL for the server.
func (s *MockBinanceServer) WebSocketURL() string {
	return "ws://" + s.Address()
}

// SetPrice sets the current price for a symbol.
func (s *MockBinanceServer) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentPrices[strings.ToUpper(symbol)] = price
}

// GetPrice returns the current price for a symbol, 0 when unknown.
func (s *MockBinanceServer) GetPrice(symbol string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.currentPrices[strings.ToUpper(symbol)]
}

// SetSpotStatus makes /api/v3/klines answer with code. http.StatusOK restores it.
func (s *MockBinanceServer) SetSpotStatus(code int) {
	s.spotStatus.Store(int32(code))
}

// SetFuturesStatus makes /fapi/v1/klines answer with code. http.StatusOK restores it.
func (s *MockBinanceServer) SetFuturesStatus(code int) {
	s.futuresStatus.Store(int32(code))
}

// SetRejectStreams makes the stream endpoint refuse upgrades.
func (s *MockBinanceServer) SetRejectStreams(reject bool) {
	s.rejectStreams.Store(reject)
}

func (s *MockBinanceServer) SpotHits() int {
	return int(s.spotHits.Load())
}

func (s *MockBinanceServer) FuturesHits() int {
	return int(s.futuresHits.Load())
}

// StreamConnections returns how many stream upgrades were accepted.
func (s *MockBinanceServer) StreamConnections() int {
	return int(s.streamAccepted.Load())
}

// StreamRejections returns how many stream requests were refused.
func (s *MockBinanceServer) StreamRejections() int {
	return int(s.streamRejected.Load())
}

// ActiveConnections returns the number of open stream connections.
func (s *MockBinanceServer) ActiveConnections() int {
	s.wsMu.RLock()
	defer s.wsMu.RUnlock()

	return len(s.wsConnections)
}

// DropConnections closes every open stream connection.
func (s *MockBinanceServer) DropConnections() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for conn := range s.wsConnections {
		conn.Close()
	}

	s.wsConnections = make(map[*websocket.Conn]*streamClient)
}

// PushTicker sends a 24h ticker update for symbol to every connection
// subscribed to it and records price as the current price. It returns the
// number of connections written to.
func (s *MockBinanceServer) PushTicker(symbol string, price float64) int {
	symbol = strings.ToUpper(symbol)
	s.SetPrice(symbol, price)

	frame, err := tickerFrame(symbol, price, time.Now())
	if err != nil {
		return 0
	}

	return s.broadcast(symbol, frame)
}

// PushRaw sends frame verbatim to every open stream connection.
func (s *MockBinanceServer) PushRaw(frame string) int {
	return s.broadcast("", []byte(frame))
}

func (s *MockBinanceServer) broadcast(symbol string, frame []byte) int {
	s.wsMu.RLock()
	clients := make([]*streamClient, 0, len(s.wsConnections))
	for _, client := range s.wsConnections {
		if symbol == "" || client.symbols[symbol] {
			clients = append(clients, client)
		}
	}
	s.wsMu.RUnlock()

	sent := 0

	for _, client := range clients {
		if err := client.write(frame); err == nil {
			sent++
		}
	}

	return sent
}

// REST Handlers

// handleKlines handles GET /api/v3/klines and /fapi/v1/klines
func (s *MockBinanceServer) handleKlines(status *atomic.Int32, hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		if code := int(status.Load()); code != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": -1003,
				"msg":  "mock server failure",
			})

			return
		}

		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		interval := r.URL.Query().Get("interval")

		if symbol == "" || interval == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		intervalDuration := parseInterval(interval)
		if intervalDuration == 0 {
			http.Error(w, "Invalid interval", http.StatusBadRequest)
			return
		}

		limit := 500
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}

			limit = min(parsed, 1000)
		}

		s.mu.RLock()
		initialPrice := s.currentPrices[symbol]
		s.mu.RUnlock()

		if initialPrice == 0 {
			initialPrice = 100.0
		}

		config := mocks.DefaultConfig()
		config.Count = limit
		config.Interval = intervalDuration
		config.InitialPrice = initialPrice
		config.StartTime = time.Now().UTC().Truncate(intervalDuration).Add(-time.Duration(limit-1) * intervalDuration)

		candles := mocks.NewDataGenerator(s.seed).GenerateCandles(config)

		// Binance kline format: [openTime, open, high, low, close, volume, closeTime, ...]
		klines := make([][]interface{}, 0, len(candles))
		for _, c := range candles {
			klines = append(klines, []interface{}{
				c.OpenTime.UnixMilli(),                         // Open time
				strconv.FormatFloat(c.Open, 'f', 8, 64),        // Open
				strconv.FormatFloat(c.High, 'f', 8, 64),        // High
				strconv.FormatFloat(c.Low, 'f', 8, 64),         // Low
				strconv.FormatFloat(c.Close, 'f', 8, 64),       // Close
				strconv.FormatFloat(c.Volume, 'f', 8, 64),      // Volume
				c.CloseTime.UnixMilli(),                        // Close time
				strconv.FormatFloat(c.QuoteVolume, 'f', 8, 64), // Quote asset volume
				c.TradeCount,                                   // Number of trades
				"0",                                            // Taker buy base asset volume
				"0",                                            // Taker buy quote asset volume
				"0",                                            // Ignore
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(klines)
	}
}

// WebSocket Handler

// handleStream handles /stream?streams=btcusdt@ticker/ethusdt@ticker
func (s *MockBinanceServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.rejectStreams.Load() {
		s.streamRejected.Add(1)
		http.Error(w, "streams unavailable", http.StatusServiceUnavailable)

		return
	}

	symbols := make(map[string]bool)

	for _, name := range strings.Split(r.URL.Query().Get("streams"), "/") {
		symbol, stream, ok := strings.Cut(name, "@")
		if !ok || stream != "ticker" || symbol == "" {
			http.Error(w, "Invalid stream name", http.StatusBadRequest)
			return
		}

		symbols[strings.ToUpper(symbol)] = true
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &streamClient{conn: conn, symbols: symbols}

	s.wsMu.Lock()
	s.wsConnections[conn] = client
	s.wsMu.Unlock()
	s.streamAccepted.Add(1)

	done := make(chan struct{})

	defer func() {
		close(done)
		s.wsMu.Lock()
		delete(s.wsConnections, conn)
		s.wsMu.Unlock()
		conn.Close()
	}()

	if s.streamInterval > 0 {
		go s.streamTickers(client, done)
	}

	// Drain client frames until the connection goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// streamTickers sends a ticker for every subscribed symbol each stream interval.
func (s *MockBinanceServer) streamTickers(client *streamClient, done <-chan struct{}) {
	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	step := 0

	for {
		select {
		case <-s.stopStreaming:
			return
		case <-done:
			return
		case now := <-ticker.C:
			step++

			for symbol := range client.symbols {
				price := s.GetPrice(symbol)
				if price == 0 {
					price = 100.0
				}

				// small deterministic walk around the current price
				price *= 1 + 0.0005*float64(step%5-2)
				s.SetPrice(symbol, price)

				frame, err := tickerFrame(symbol, price, now)
				if err != nil {
					continue
				}

				if err := client.write(frame); err != nil {
					return
				}
			}
		}
	}
}

// tickerFrame encodes a combined-stream 24h ticker event.
func tickerFrame(symbol string, price float64, at time.Time) ([]byte, error) {
	event := map[string]interface{}{
		"stream": strings.ToLower(symbol) + "@ticker",
		"data": map[string]interface{}{
			"e": "24hrTicker",
			"E": at.UnixMilli(),
			"s": symbol,
			"p": strconv.FormatFloat(price*0.01, 'f', 8, 64),
			"P": "1.000",
			"c": strconv.FormatFloat(price, 'f', 8, 64),
			"h": strconv.FormatFloat(price*1.02, 'f', 8, 64),
			"l": strconv.FormatFloat(price*0.98, 'f', 8, 64),
			"v": "1000.00000000",
			"q": strconv.FormatFloat(price*1000, 'f', 8, 64),
		},
	}

	return json.Marshal(event)
}

// parseInterval parses a Binance interval string to a duration.
func parseInterval(interval string) time.Duration {
	if len(interval) < 2 {
		return 0
	}

	numStr := interval[:len(interval)-1]
	unit := interval[len(interval)-1:]

	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0
	}

	switch unit {
	case "s":
		return time.Duration(num) * time.Second
	case "m":
		return time.Duration(num) * time.Minute
	case "h":
		return time.Duration(num) * time.Hour
	case "d":
		return time.Duration(num) * 24 * time.Hour
	case "w":
		return time.Duration(num) * 7 * 24 * time.Hour
	case "M":
		return time.Duration(num) * 30 * 24 * time.Hour
	default:
		return 0
	}
}
