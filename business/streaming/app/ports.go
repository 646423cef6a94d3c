package app

import (
	"time"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

// VenueAdapter is the capability set a venue implementation supplies to
// the stream-client base: URLs, symbol formatting, ping discipline, the
// message parser, and batch-subscription support. It is the
// "polymorphism over {FormatSymbol, Urls, Ping, ProcessMessage,
// BatchSupport}" the design notes call for, expressed as an interface
// rather than a base class.
type VenueAdapter interface {
	// Name identifies the venue in metrics and logs.
	Name() string

	// PublicURL is the public (unauthenticated) stream endpoint.
	PublicURL() string

	// PrivateURL is the authenticated endpoint, empty if the venue
	// exposes none (the base only opens a second transport when this is
	// non-empty).
	PrivateURL() string

	// PingIntervalMs is the interval at which the heartbeat task sends the
	// adapter's ping frame (if any) and checks the inbound-frame deadline
	// of two intervals. 0 disables the heartbeat task.
	PingIntervalMs() int64

	// FormatSymbol renders a canonical Market in the venue's wire form.
	FormatSymbol(m domain.Market) string

	// CreatePingMessage returns the adapter's ping frame, or "" when the
	// heartbeat task sends nothing. No transport-level ping is sent in its
	// place: the transport's own ping is disabled by default.
	CreatePingMessage() string

	// SupportsBatchSubscription reports whether multiple subscriptions
	// can be coalesced into one outbound frame.
	SupportsBatchSubscription() bool

	// BuildSubscribeFrame renders the wire frame for one subscription.
	BuildSubscribeFrame(sub *domain.Subscription) (string, error)

	// BuildBatchSubscribeFrames groups subscriptions into the minimum
	// number of frames the venue's batching rule allows (e.g. Kraken:
	// one frame per channel; MEXC: one frame total). Only called when
	// SupportsBatchSubscription is true.
	BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error)

	// BuildUnsubscribeFrame renders the wire frame to cancel a
	// subscription.
	BuildUnsubscribeFrame(sub *domain.Subscription) (string, error)

	// ProcessMessage parses one inbound frame and routes it to the
	// sink's On* callbacks. isPrivate indicates which transport the
	// frame arrived on. Any error is treated as a ParseError by the
	// caller and counted toward the quarantine threshold.
	ProcessMessage(sink MessageSink, raw []byte, isPrivate bool) error
}

// MessageSink receives the normalized records a VenueAdapter decodes from
// one inbound frame. The stream client implements this and fans the
// records out to registered consumer callbacks plus the observer.
type MessageSink interface {
	HandleTicker(t domain.Ticker)
	HandleOrderbookSnapshot(symbol string, bids, asks []domain.OrderbookLevel, timestampMs int64)
	HandleOrderbookDelta(symbol string, bidUpdates, askUpdates []domain.OrderbookLevel, timestampMs int64)
	HandleSignedAmountRow(symbol string, price, amount decimal.Decimal, count int, timestampMs int64)
	HandleTrade(t domain.Trade)
	HandleInfo(message string)
	HandleProtocolError(message string, fatal bool)
}

// Observer is the observability-core contract (spec §4.3). A single
// instance is typically shared across every venue client in a process,
// either as a singleton or injected.
type Observer interface {
	OnMessageReceived(venue string, channel domain.Channel, symbol string, sizeBytes int, latencyMs float64)
	OnConnectionStateChanged(venue string, connected bool)
	OnError(venue string, message string)
	OnSubscriptionChanged(venue string, channel domain.Channel, symbol string, active bool)
	GetStatistics(venue string, channel domain.Channel, symbol string) domain.StatisticsSnapshot
	GetHealth(venue string) domain.HealthSnapshot
	ResetStatistics(venue string)

	// OnMetricsUpdated registers the handler fired with the venue's
	// aggregate statistics snapshot every time OnMessageReceived updates
	// it. Registering a new handler replaces any previous one.
	OnMetricsUpdated(h func(venue string, snapshot domain.StatisticsSnapshot))
	// OnHealthChanged registers the handler fired with the venue's
	// derived health every time OnConnectionStateChanged runs.
	// Registering a new handler replaces any previous one.
	OnHealthChanged(h func(venue string, health domain.HealthSnapshot))
}

// ConnectOptions configures timeouts the stream client applies to its own
// operations (spec §5).
type ConnectOptions struct {
	HandshakeTimeout time.Duration
	SendTimeout      time.Duration
}

// DefaultConnectOptions returns the spec-mandated timeouts: 15s handshake,
// 5s send.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		HandshakeTimeout: 15 * time.Second,
		SendTimeout:      5 * time.Second,
	}
}
