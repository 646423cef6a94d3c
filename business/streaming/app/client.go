package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/internal/apperror"
	"github.com/fd1az/streamfeed/internal/circuitbreaker"
	"github.com/fd1az/streamfeed/internal/logger"
	"github.com/fd1az/streamfeed/internal/ratelimit"
	"github.com/fd1az/streamfeed/internal/wsconn"
	"github.com/shopspring/decimal"
)

// State is the stream client's own lifecycle state, richer than the
// underlying transport's: it additionally tracks subscription replay and
// the Streaming/Degraded split driven by the parse-failure quarantine.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateSubscribing  State = "subscribing"
	StateStreaming    State = "streaming"
	StateDegraded     State = "degraded"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// ClientConfig configures one venue's stream client.
type ClientConfig struct {
	Adapter  VenueAdapter
	Observer Observer
	Logger   logger.LoggerInterface
	Connect  ConnectOptions

	// QuarantineThreshold is the parse-failure count within
	// QuarantineWindow that, once exceeded, trips the breaker and forces a
	// reconnect. 0 selects the default of 100.
	QuarantineThreshold int
	// QuarantineWindow is the window QuarantineThreshold is measured over;
	// the failure count restarts every QuarantineWindow while the breaker
	// is closed. 0 selects the default of one minute.
	QuarantineWindow time.Duration

	// SubscribeRateLimit caps outbound subscribe/unsubscribe frames per
	// minute, so a market list large enough to need many subscribe calls
	// doesn't trip the venue's own connection rate limit. 0 selects the
	// default of 300/minute (5/s).
	SubscribeRateLimit int
}

type (
	TickerHandler    func(domain.Ticker)
	OrderbookHandler func(domain.OrderbookData)
	TradeHandler     func(domain.Trade)
	ErrorHandler     func(venue string, err error)
	InfoHandler      func(venue, message string)
	StateHandler     func(venue string, state State)
)

// Client is the per-venue stream client: it owns the public (and, if the
// adapter exposes one, private) transport, the subscription registry, one
// order book per symbol, and the reconnect/heartbeat/quarantine policy
// layered on top of the adapter's wire format.
type Client struct {
	cfg     ClientConfig
	adapter VenueAdapter

	public  *wsconn.Client
	private *wsconn.Client

	registry   *SubscriptionRegistry
	bookEngine *BookEngine

	booksMu sync.Mutex
	books   map[string]*domain.OrderbookData

	// rawMu serializes raw-message handling (across the public and
	// private transports) so pendingSizeBytes/pendingStart can be read
	// from inside the Handle* callbacks ProcessMessage invokes, without a
	// data race between the two reader tasks.
	rawMu            sync.Mutex
	pendingSizeBytes int
	pendingStart     time.Time

	quarantine *circuitbreaker.CircuitBreaker[struct{}]
	limiter    *ratelimit.Limiter

	state   atomic.Value // State
	closing atomic.Bool

	lastInboundAt atomic.Int64 // unix nanos

	cbMu           sync.RWMutex
	onTicker       TickerHandler
	onOrderbook    OrderbookHandler
	onTrade        TradeHandler
	onError        ErrorHandler
	onInfo         InfoHandler
	onStateChanged StateHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient builds a stream client for one venue. Call Connect to open the
// transport and begin streaming.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Adapter == nil {
		return nil, apperror.New(apperror.CodeArgumentError,
			apperror.WithMessage("client requires a venue adapter"))
	}
	if cfg.Observer == nil {
		return nil, apperror.New(apperror.CodeArgumentError,
			apperror.WithMessage("client requires an observer"))
	}
	if cfg.Connect == (ConnectOptions{}) {
		cfg.Connect = DefaultConnectOptions()
	}

	threshold := cfg.QuarantineThreshold
	if threshold <= 0 {
		threshold = 100
	}
	window := cfg.QuarantineWindow
	if window <= 0 {
		window = time.Minute
	}

	breakerCfg := circuitbreaker.DefaultConfig(cfg.Adapter.Name() + "-quarantine")
	breakerCfg.Interval = window
	breakerCfg.Timeout = window
	breakerCfg.ReadyToTrip = func(counts circuitbreaker.Counts) bool {
		return int(counts.TotalFailures) > threshold
	}

	rateLimit := cfg.SubscribeRateLimit
	if rateLimit <= 0 {
		rateLimit = 300
	}

	c := &Client{
		cfg:        cfg,
		adapter:    cfg.Adapter,
		registry:   NewSubscriptionRegistry(),
		bookEngine: NewBookEngine(),
		books:      make(map[string]*domain.OrderbookData),
		quarantine: circuitbreaker.New[struct{}](breakerCfg),
		limiter:    ratelimit.New(rateLimit),
	}
	c.state.Store(StateIdle)

	wsCfg := wsconn.DefaultConfig(cfg.Adapter.PublicURL(), cfg.Adapter.Name())
	public, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, fmt.Errorf("wsconn.New: %w", err)
	}
	c.public = public
	c.public.OnMessage(func(_ context.Context, msg []byte) { c.handleRawMessage(msg, false) })
	c.public.OnStateChange(func(s wsconn.State, err error) { c.handleTransportStateChange(s, err) })

	if cfg.Adapter.PrivateURL() != "" {
		privCfg := wsconn.DefaultConfig(cfg.Adapter.PrivateURL(), cfg.Adapter.Name()+"-private")
		private, err := wsconn.New(privCfg)
		if err != nil {
			return nil, fmt.Errorf("wsconn.New (private): %w", err)
		}
		c.private = private
		c.private.OnMessage(func(_ context.Context, msg []byte) { c.handleRawMessage(msg, true) })
	}

	return c, nil
}

// Connect opens the public (and private, if configured) transport and
// starts the heartbeat task. It blocks until the public handshake completes
// or HandshakeTimeout expires. On failure it returns a TransportError and
// hands the public transport to its background reconnect loop; the
// heartbeat task is started only after a successful handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(c.ctx, c.cfg.Connect.HandshakeTimeout)
	defer cancel()

	if err := c.public.Connect(dialCtx); err != nil {
		c.setState(StateReconnecting)
		c.public.TriggerReconnect(c.ctx, err)
		return apperror.New(apperror.CodeTransportError,
			apperror.WithMessage("public transport connect failed"),
			apperror.WithCause(err),
			apperror.WithContext(c.adapter.Name()))
	}
	c.lastInboundAt.Store(time.Now().UnixNano())

	if c.private != nil {
		if err := c.private.Connect(dialCtx); err != nil {
			c.logWarn("private transport connect failed", "error", err)
		}
	}

	go c.heartbeatLoop(c.ctx)
	return nil
}

// subscribe is the shared implementation behind SubscribeTicker,
// SubscribeOrderbook, SubscribeTrades, and SubscribeCandles.
func (c *Client) subscribe(channel domain.Channel, symbol, extra string) error {
	sub := c.registry.GetOrCreate(channel, symbol, extra)

	frame, err := c.adapter.BuildSubscribeFrame(sub)
	if err != nil {
		return apperror.New(apperror.CodeContractError,
			apperror.WithMessage("adapter could not build subscribe frame"),
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s/%s/%s", channel, symbol, extra)))
	}

	c.setState(StateSubscribing)
	if err := c.limiter.Wait(c.ctx); err != nil {
		return apperror.New(apperror.CodeSubscribeFailed,
			apperror.WithMessage("rate limiter wait cancelled"),
			apperror.WithCause(err))
	}
	if err := c.public.Send(c.ctx, []byte(frame)); err != nil {
		c.cfg.Observer.OnError(c.adapter.Name(), err.Error())
		return apperror.New(apperror.CodeSubscribeFailed,
			apperror.WithMessage("send failed"),
			apperror.WithCause(err))
	}

	c.registry.MarkActive(sub)
	c.cfg.Observer.OnSubscriptionChanged(c.adapter.Name(), channel, symbol, true)
	if channel == domain.ChannelOrderbook {
		c.bookFor(symbol)
	}
	c.setState(StateStreaming)
	return nil
}

// SubscribeTicker subscribes to the ticker channel for market, formatted
// in the venue's own wire symbol via the adapter.
func (c *Client) SubscribeTicker(market domain.Market) error {
	return c.subscribe(domain.ChannelTicker, c.adapter.FormatSymbol(market), "")
}

func (c *Client) SubscribeOrderbook(market domain.Market) error {
	return c.subscribe(domain.ChannelOrderbook, c.adapter.FormatSymbol(market), "")
}

func (c *Client) SubscribeTrades(market domain.Market) error {
	return c.subscribe(domain.ChannelTrades, c.adapter.FormatSymbol(market), "")
}

func (c *Client) SubscribeCandles(market domain.Market, interval string) error {
	return c.subscribe(domain.ChannelCandles, c.adapter.FormatSymbol(market), interval)
}

// Unsubscribe cancels an active subscription. It is not an error to
// unsubscribe from something that was never subscribed.
func (c *Client) Unsubscribe(channel domain.Channel, market domain.Market) error {
	symbol := c.adapter.FormatSymbol(market)
	sub := c.registry.GetOrCreate(channel, symbol, "")
	frame, err := c.adapter.BuildUnsubscribeFrame(sub)
	if err != nil {
		return apperror.New(apperror.CodeContractError,
			apperror.WithMessage("adapter could not build unsubscribe frame"),
			apperror.WithCause(err))
	}
	if err := c.limiter.Wait(c.ctx); err != nil {
		return apperror.New(apperror.CodeUnsubscribeFailed,
			apperror.WithMessage("rate limiter wait cancelled"),
			apperror.WithCause(err))
	}
	if err := c.public.Send(c.ctx, []byte(frame)); err != nil {
		return apperror.New(apperror.CodeUnsubscribeFailed,
			apperror.WithMessage("send failed"),
			apperror.WithCause(err))
	}
	c.registry.MarkInactive(channel, symbol, "")
	c.cfg.Observer.OnSubscriptionChanged(c.adapter.Name(), channel, symbol, false)
	return nil
}

// Disconnect initiates a graceful close: the heartbeat task stops, both
// transports close, and no further reconnection is attempted.
func (c *Client) Disconnect() error {
	c.closing.Store(true)
	if c.cancel != nil {
		c.cancel()
	}
	var errs []error
	if c.public != nil {
		if err := c.public.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.private != nil {
		if err := c.private.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.setState(StateClosed)
	return errors.Join(errs...)
}

func (c *Client) State() State {
	return c.state.Load().(State)
}

func (c *Client) Name() string { return c.adapter.Name() }

func (c *Client) OnTicker(h TickerHandler)          { c.cbMu.Lock(); c.onTicker = h; c.cbMu.Unlock() }
func (c *Client) OnOrderbook(h OrderbookHandler)     { c.cbMu.Lock(); c.onOrderbook = h; c.cbMu.Unlock() }
func (c *Client) OnTrade(h TradeHandler)             { c.cbMu.Lock(); c.onTrade = h; c.cbMu.Unlock() }
func (c *Client) OnError(h ErrorHandler)             { c.cbMu.Lock(); c.onError = h; c.cbMu.Unlock() }
func (c *Client) OnInfo(h InfoHandler)               { c.cbMu.Lock(); c.onInfo = h; c.cbMu.Unlock() }
func (c *Client) OnStateChange(h StateHandler)       { c.cbMu.Lock(); c.onStateChanged = h; c.cbMu.Unlock() }

// --- MessageSink ---

func (c *Client) HandleTicker(t domain.Ticker) {
	t.Venue = c.adapter.Name()
	c.recordMessage(domain.ChannelTicker, t.Symbol)
	c.cbMu.RLock()
	h := c.onTicker
	c.cbMu.RUnlock()
	if h != nil {
		h(t)
	}
}

func (c *Client) HandleOrderbookSnapshot(symbol string, bids, asks []domain.OrderbookLevel, timestampMs int64) {
	c.recordMessage(domain.ChannelOrderbook, symbol)
	book := c.bookFor(symbol)
	c.bookEngine.ApplySnapshot(book, bids, asks, timestampMs)
	c.emitBook(*book)
}

func (c *Client) HandleOrderbookDelta(symbol string, bidUpdates, askUpdates []domain.OrderbookLevel, timestampMs int64) {
	c.recordMessage(domain.ChannelOrderbook, symbol)
	book := c.bookFor(symbol)
	for _, l := range bidUpdates {
		c.bookEngine.ApplyBidDelta(book, l, timestampMs)
	}
	for _, l := range askUpdates {
		c.bookEngine.ApplyAskDelta(book, l, timestampMs)
	}
	c.emitBook(*book)
}

func (c *Client) HandleSignedAmountRow(symbol string, price, amount decimal.Decimal, count int, timestampMs int64) {
	c.recordMessage(domain.ChannelOrderbook, symbol)
	book := c.bookFor(symbol)
	c.bookEngine.ApplySignedAmountRow(book, price, count, amount, timestampMs)
	c.emitBook(*book)
}

func (c *Client) HandleTrade(t domain.Trade) {
	t.Venue = c.adapter.Name()
	c.recordMessage(domain.ChannelTrades, t.Symbol)
	c.cbMu.RLock()
	h := c.onTrade
	c.cbMu.RUnlock()
	if h != nil {
		h(t)
	}
}

// recordMessage reports one inbound message to the Observer under its
// true (channel, symbol) dimension, using the size/start the enclosing
// handleRawMessage stashed before invoking the adapter's parser. Handle*
// methods invoked outside that path (as in tests, which call them
// directly) see a zero pendingStart and report zero latency rather than
// the nonsensical multi-decade duration time.Since would otherwise give.
func (c *Client) recordMessage(channel domain.Channel, symbol string) {
	var latencyMs float64
	if !c.pendingStart.IsZero() {
		latencyMs = float64(time.Since(c.pendingStart).Milliseconds())
	}
	c.cfg.Observer.OnMessageReceived(c.adapter.Name(), channel, symbol, c.pendingSizeBytes, latencyMs)
}

func (c *Client) HandleInfo(message string) {
	c.cbMu.RLock()
	h := c.onInfo
	c.cbMu.RUnlock()
	if h != nil {
		h(c.adapter.Name(), message)
	}
}

func (c *Client) HandleProtocolError(message string, fatal bool) {
	c.cfg.Observer.OnError(c.adapter.Name(), message)
	c.cbMu.RLock()
	h := c.onError
	c.cbMu.RUnlock()
	if h != nil {
		h(c.adapter.Name(), apperror.New(apperror.CodeProtocolError, apperror.WithMessage(message)))
	}
	if fatal {
		c.forceReconnect(errors.New(message))
	}
}

func (c *Client) emitBook(book domain.OrderbookData) {
	c.cbMu.RLock()
	h := c.onOrderbook
	c.cbMu.RUnlock()
	if h != nil {
		h(book)
	}
}

func (c *Client) bookFor(symbol string) *domain.OrderbookData {
	c.booksMu.Lock()
	defer c.booksMu.Unlock()
	b, ok := c.books[symbol]
	if !ok {
		b = &domain.OrderbookData{Symbol: symbol}
		c.books[symbol] = b
	}
	return b
}

// --- internal plumbing ---

func (c *Client) handleRawMessage(raw []byte, isPrivate bool) {
	c.lastInboundAt.Store(time.Now().UnixNano())
	start := time.Now()

	c.rawMu.Lock()
	c.pendingSizeBytes = len(raw)
	c.pendingStart = start
	_, err := c.quarantine.Execute(func() (struct{}, error) {
		return struct{}{}, c.adapter.ProcessMessage(c, raw, isPrivate)
	})
	c.rawMu.Unlock()

	if err != nil {
		c.cfg.Observer.OnError(c.adapter.Name(), err.Error())
		c.cbMu.RLock()
		h := c.onError
		c.cbMu.RUnlock()
		appErr := apperror.New(apperror.CodeParseError,
			apperror.WithMessage("message parse failed"),
			apperror.WithCause(err))
		if h != nil {
			h(c.adapter.Name(), appErr)
		}

		if errors.Is(err, circuitbreaker.ErrOpenState) || c.quarantine.State() == circuitbreaker.StateOpen {
			c.cfg.Observer.OnError(c.adapter.Name(), "parse-failure quarantine tripped")
			c.forceReconnect(errors.New("parse-failure quarantine tripped"))
			return
		}
		c.setState(StateDegraded)
		return
	}

	if c.State() == StateDegraded {
		c.setState(StateStreaming)
	}
}

// heartbeatLoop drives the adapter's own ping cadence and declares the
// link dead if no inbound frame has been observed for two consecutive
// intervals, which is the discipline a pure transport-level ping cannot
// express (the venue may keep the TCP session up while its application
// protocol has gone silent).
func (c *Client) heartbeatLoop(ctx context.Context) {
	interval := time.Duration(c.adapter.PingIntervalMs()) * time.Millisecond
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := time.Unix(0, c.lastInboundAt.Load())
			if time.Since(last) > 2*interval {
				c.forceReconnect(errors.New("heartbeat deadline exceeded"))
				continue
			}
			if msg := c.adapter.CreatePingMessage(); msg != "" {
				if err := c.public.Send(ctx, []byte(msg)); err != nil {
					c.logWarn("ping send failed", "error", err)
				}
			}
		}
	}
}

// forceReconnect tells the underlying transport to treat the connection as
// lost, even though it has observed no read/ping error of its own.
func (c *Client) forceReconnect(reason error) {
	if c.closing.Load() {
		return
	}
	c.setState(StateReconnecting)
	c.public.TriggerReconnect(c.ctx, reason)
}

// handleTransportStateChange reacts to the underlying wsconn.Client's own
// state machine: on (re)connect it replays the active-subscription
// registry in insertion order, batching where the adapter supports it.
func (c *Client) handleTransportStateChange(s wsconn.State, err error) {
	switch s {
	case wsconn.StateConnected:
		for _, book := range c.snapshotBooks() {
			c.bookEngine.ResetForReconnect(book)
		}
		c.setState(StateSubscribing)
		c.replaySubscriptions()
		c.setState(StateStreaming)
		c.cfg.Observer.OnConnectionStateChanged(c.adapter.Name(), true)
	case wsconn.StateReconnecting:
		c.setState(StateReconnecting)
		c.cfg.Observer.OnConnectionStateChanged(c.adapter.Name(), false)
	case wsconn.StateClosed, wsconn.StateDisconnected:
		if !c.closing.Load() {
			c.cfg.Observer.OnConnectionStateChanged(c.adapter.Name(), false)
		}
	}
}

func (c *Client) snapshotBooks() []*domain.OrderbookData {
	c.booksMu.Lock()
	defer c.booksMu.Unlock()
	out := make([]*domain.OrderbookData, 0, len(c.books))
	for _, b := range c.books {
		out = append(out, b)
	}
	return out
}

// replaySubscriptions resends every active descriptor after a reconnect,
// batching through the adapter when it supports coalescing two or more
// subscriptions into one outbound frame, with jitter between individual
// frames to avoid a thundering herd against the venue.
func (c *Client) replaySubscriptions() {
	active := c.registry.Active()
	if len(active) == 0 {
		return
	}

	if c.adapter.SupportsBatchSubscription() && len(active) >= 2 {
		frames, err := c.adapter.BuildBatchSubscribeFrames(active)
		if err == nil {
			for _, f := range frames {
				_ = c.public.Send(c.ctx, []byte(f))
			}
			return
		}
		c.logWarn("batch resubscribe failed, falling back to per-subscription frames", "error", err)
	}

	for _, sub := range active {
		frame, err := c.adapter.BuildSubscribeFrame(sub)
		if err != nil {
			c.logWarn("resubscribe frame build failed", "subscription", sub.Key(), "error", err)
			continue
		}
		if err := c.public.Send(c.ctx, []byte(frame)); err != nil {
			c.logWarn("resubscribe send failed", "subscription", sub.Key(), "error", err)
		}
		time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
	}
}

func (c *Client) setState(s State) {
	prev := c.state.Swap(s)
	if prev == s {
		return
	}
	c.cbMu.RLock()
	h := c.onStateChanged
	c.cbMu.RUnlock()
	if h != nil {
		h(c.adapter.Name(), s)
	}
}

func (c *Client) logWarn(msg string, kvs ...interface{}) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Warn(c.ctx, msg, kvs...)
	}
}
