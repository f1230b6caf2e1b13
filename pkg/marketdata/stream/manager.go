package stream

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pulse/internal/logger"
	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"go.uber.org/zap"
)

// Callback receives ticker snapshots for one symbol.
type Callback func(snapshot types.TickerSnapshot)

// StateListener observes state transitions. It may be called from the session
// goroutine or from the goroutine calling Connect/Disconnect.
type StateListener func(state State)

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the default gorilla websocket dialer.
func WithDialer(dialer Dialer) Option {
	return func(m *Manager) {
		m.dialer = dialer
	}
}

// WithStateListener registers a hook invoked on every state transition.
func WithStateListener(listener StateListener) Option {
	return func(m *Manager) {
		m.onStateChange = listener
	}
}

type subscription struct {
	id       uint64
	symbol   string
	callback Callback
	active   atomic.Bool

	// deliverMu serializes deliveries to callback; lastSeq is the cache
	// sequence of the newest snapshot it has been handed.
	deliverMu sync.Mutex
	lastSeq   uint64
}

// Manager keeps one combined ticker stream open, caches the latest snapshot per
// symbol and fans updates out to subscribers.
//
// Subscribers, the price cache and the connection state are guarded by a single
// RWMutex. Callbacks always run outside the lock, so they may call back into the
// Manager.
type Manager struct {
	config        Config
	dialer        Dialer
	logger        *logger.Logger
	onStateChange StateListener

	mu          sync.RWMutex
	state       State
	symbols     []string
	prices      map[string]types.TickerSnapshot
	sequences   map[string]uint64
	sequence    uint64
	subscribers map[string][]*subscription
	nextID      uint64
	retries     int
	lastErr     error
	generation  uint64
	sessionID   string
	cancel      context.CancelFunc
}

// NewManager creates a disconnected Manager.
func NewManager(config Config, log *logger.Logger, opts ...Option) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	m := &Manager{
		config:      config,
		dialer:      newDefaultDialer(config.HandshakeTimeout),
		logger:      log,
		state:       StateDisconnected,
		prices:      make(map[string]types.TickerSnapshot),
		sequences:   make(map[string]uint64),
		subscribers: make(map[string][]*subscription),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Connect starts streaming tickers for symbols and returns immediately.
// A running session is replaced; subscribers and cached prices are kept.
// The session stops when ctx is cancelled, Disconnect is called, or the
// reconnect attempts are exhausted.
func (m *Manager) Connect(ctx context.Context, symbols []string) error {
	normalized, err := normalizeSymbols(symbols)
	if err != nil {
		return err
	}

	target, err := streamURL(m.config.BaseURL, normalized)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.stopSessionLocked()

	sessionCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.symbols = normalized
	m.retries = 0
	m.lastErr = nil
	m.sessionID = uuid.New().String()
	generation := m.generation
	sessionID := m.sessionID
	changed := m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	if changed {
		m.notify(StateConnecting)
	}

	m.logger.Info("Starting ticker stream",
		zap.String("session_id", sessionID),
		zap.Strings("symbols", normalized),
	)

	go m.run(sessionCtx, generation, sessionID, target)

	return nil
}

// Disconnect stops the session, drops every subscriber and clears the price
// cache. Calling it more than once is safe.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.stopSessionLocked()

	for _, subs := range m.subscribers {
		for _, sub := range subs {
			sub.active.Store(false)
		}
	}

	m.subscribers = make(map[string][]*subscription)
	m.prices = make(map[string]types.TickerSnapshot)
	m.sequences = make(map[string]uint64)
	m.symbols = nil
	m.retries = 0
	m.lastErr = nil
	changed := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if changed {
		m.notify(StateDisconnected)
		m.logger.Info("Ticker stream disconnected")
	}
}

// Subscribe registers callback for symbol. If a snapshot for symbol is cached it
// is delivered synchronously before Subscribe returns. Callbacks for one symbol
// run in registration order on the session goroutine, so a slow callback delays
// the ones after it. One callback never runs concurrently with itself and never
// receives a snapshot older than one it has already seen.
//
// The returned function removes the subscription and may be called many times.
func (m *Manager) Subscribe(symbol string, callback Callback) func() {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || callback == nil {
		m.logger.Warn("Ignoring invalid subscription", zap.String("symbol", symbol))

		return func() {}
	}

	m.mu.Lock()
	m.nextID++
	sub := &subscription{id: m.nextID, symbol: symbol, callback: callback}
	sub.active.Store(true)
	m.subscribers[symbol] = append(m.subscribers[symbol], sub)
	cached, ok := m.prices[symbol]
	seq := m.sequences[symbol]
	m.mu.Unlock()

	if ok {
		m.dispatch(m.logger.Logger, sub, cached, seq)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			m.unsubscribe(sub)
		})
	}
}

func (m *Manager) unsubscribe(sub *subscription) {
	sub.active.Store(false)

	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subscribers[sub.symbol]
	subs = slices.DeleteFunc(subs, func(candidate *subscription) bool {
		return candidate.id == sub.id
	})

	if len(subs) == 0 {
		delete(m.subscribers, sub.symbol)

		return
	}

	m.subscribers[sub.symbol] = subs
}

// GetPrice returns the latest cached snapshot for symbol.
func (m *Manager) GetPrice(symbol string) optional.Option[types.TickerSnapshot] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return optional.None[types.TickerSnapshot]()
	}

	return optional.Some(snapshot)
}

// GetAllPrices returns a copy of the price cache.
func (m *Manager) GetAllPrices() map[string]types.TickerSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prices := make(map[string]types.TickerSnapshot, len(m.prices))
	for symbol, snapshot := range m.prices {
		prices[symbol] = snapshot
	}

	return prices
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// LastError returns the most recent transport error of the current session, or
// an ErrCodeExhaustedRetries error once reconnecting has given up.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastErr
}

// Symbols returns the symbols of the current session.
func (m *Manager) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.symbols)
}

func (m *Manager) SubscriberCount(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.subscribers[strings.ToUpper(strings.TrimSpace(symbol))])
}

// run owns one session: dial, read until failure, then reconnect with a
// constant delay until MaxReconnectAttempts consecutive failures.
func (m *Manager) run(ctx context.Context, generation uint64, sessionID string, target string) {
	log := m.logger.With(zap.String("session_id", sessionID))
	parser := &tickerParser{}

	for {
		if !m.transition(generation, StateConnecting) {
			return
		}

		err := m.serve(ctx, generation, log, parser, target)
		if ctx.Err() != nil {
			m.transition(generation, StateDisconnected)

			return
		}

		if !m.isCurrent(generation) {
			return
		}

		cause := errors.Wrap(errors.ErrCodeTransport, "ticker stream connection failed", err)
		log.Warn("Ticker stream connection lost", zap.Error(cause))

		retry, attempt := m.handleFailure(generation, cause)
		if !retry {
			log.Error("Ticker stream reconnect attempts exhausted",
				zap.Int("max_reconnect_attempts", m.config.MaxReconnectAttempts),
				zap.Error(cause),
			)

			return
		}

		log.Info("Reconnecting ticker stream",
			zap.Int("attempt", attempt),
			zap.Duration("delay", m.config.ReconnectDelay),
		)

		if !m.sleep(ctx) {
			m.transition(generation, StateDisconnected)

			return
		}

		if !m.incrementRetries(generation) {
			return
		}
	}
}

// serve dials once and reads frames until the connection fails.
func (m *Manager) serve(ctx context.Context, generation uint64, log *zap.Logger, parser *tickerParser, target string) error {
	dialCtx, cancel := context.WithTimeout(ctx, m.config.HandshakeTimeout)
	conn, resp, err := m.dialer.DialContext(dialCtx, target, nil)
	cancel()

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	defer func() {
		stop()
		_ = conn.Close()
	}()

	if !m.markConnected(generation) {
		return errors.New(errors.ErrCodeStreamClosed, "session replaced")
	}

	log.Info("Ticker stream connected", zap.String("url", target))

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		snapshot, err := parser.parse(frame)
		if err != nil {
			log.Warn("Dropping malformed ticker frame", zap.Error(err))

			continue
		}

		m.publish(generation, log, snapshot)
	}
}

func (m *Manager) publish(generation uint64, log *zap.Logger, snapshot types.TickerSnapshot) {
	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()

		return
	}

	m.sequence++
	seq := m.sequence
	m.prices[snapshot.Symbol] = snapshot
	m.sequences[snapshot.Symbol] = seq
	subs := slices.Clone(m.subscribers[snapshot.Symbol])
	m.mu.Unlock()

	for _, sub := range subs {
		m.dispatch(log, sub, snapshot, seq)
	}
}

// dispatch runs one callback and recovers a panic so siblings still run.
// A snapshot whose seq is not newer than the last one delivered to sub is dropped.
func (m *Manager) dispatch(log *zap.Logger, sub *subscription, snapshot types.TickerSnapshot, seq uint64) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()

	if !sub.active.Load() || seq <= sub.lastSeq {
		return
	}

	sub.lastSeq = seq

	defer func() {
		if r := recover(); r != nil {
			err := errors.Newf(errors.ErrCodeCallbackFailed, "subscriber callback panicked: %v", r)
			log.Error("Subscriber callback failed",
				zap.String("symbol", sub.symbol),
				zap.Uint64("subscription_id", sub.id),
				zap.Error(err),
			)
		}
	}()

	sub.callback(snapshot)
}

func (m *Manager) sleep(ctx context.Context) bool {
	timer := time.NewTimer(m.config.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// handleFailure records cause and decides whether another attempt is allowed.
// It returns the number of the upcoming attempt.
func (m *Manager) handleFailure(generation uint64, cause error) (bool, int) {
	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()

		return false, 0
	}

	var transitions []State

	m.lastErr = cause
	if m.setStateLocked(StateDisconnected) {
		transitions = append(transitions, StateDisconnected)
	}

	retry := m.retries < m.config.MaxReconnectAttempts
	if retry {
		m.setStateLocked(StateReconnecting)
		transitions = append(transitions, StateReconnecting)
	} else {
		m.lastErr = errors.Wrapf(errors.ErrCodeExhaustedRetries, cause,
			"gave up after %d reconnect attempts", m.retries)

		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
	}

	attempt := m.retries + 1
	m.mu.Unlock()

	for _, state := range transitions {
		m.notify(state)
	}

	return retry, attempt
}

func (m *Manager) incrementRetries(generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return false
	}

	m.retries++

	return true
}

func (m *Manager) markConnected(generation uint64) bool {
	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()

		return false
	}

	m.retries = 0
	changed := m.setStateLocked(StateConnected)
	m.mu.Unlock()

	if changed {
		m.notify(StateConnected)
	}

	return true
}

// transition moves to state if generation is still the live session.
func (m *Manager) transition(generation uint64, state State) bool {
	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()

		return false
	}

	changed := m.setStateLocked(state)
	m.mu.Unlock()

	if changed {
		m.notify(state)
	}

	return true
}

func (m *Manager) isCurrent(generation uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return generation == m.generation
}

// stopSessionLocked cancels the running session, if any, and invalidates its
// generation. Callers hold m.mu.
func (m *Manager) stopSessionLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	m.generation++
}

func (m *Manager) setStateLocked(state State) bool {
	if m.state == state {
		return false
	}

	m.state = state

	return true
}

func (m *Manager) notify(state State) {
	if m.onStateChange == nil {
		return
	}

	m.onStateChange(state)
}
