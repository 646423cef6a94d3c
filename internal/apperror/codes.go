package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Streaming-core error taxonomy (spec §7). Every stream-client failure
// mode maps to exactly one of these five.
const (
	// CodeTransportError covers connect/send/recv/close failures; always
	// triggers a reconnect.
	CodeTransportError Code = "TRANSPORT_ERROR"

	// CodeProtocolError is an explicit venue error frame; surfaced via
	// OnError, not fatal unless the adapter recognizes a terminal code.
	CodeProtocolError Code = "PROTOCOL_ERROR"

	// CodeParseError is a payload shape mismatch; counted toward the
	// parse-failure quarantine threshold, frame dropped.
	CodeParseError Code = "PARSE_ERROR"

	// CodeContractError is a caller request for a capability the venue
	// does not offer (e.g. candles on a venue without that channel).
	CodeContractError Code = "CONTRACT_ERROR"

	// CodeArgumentError is a malformed symbol or null argument; thrown
	// synchronously, no state change.
	CodeArgumentError Code = "ARGUMENT_ERROR"
)

// Venue-client and engine specific codes.
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	CodeSubscribeFailed       Code = "SUBSCRIBE_FAILED"
	CodeUnsubscribeFailed     Code = "UNSUBSCRIBE_FAILED"
	CodeHeartbeatTimeout      Code = "HEARTBEAT_TIMEOUT"
	CodeQuarantineTripped     Code = "QUARANTINE_TRIPPED"
	CodeInvalidOrderbookFrame Code = "INVALID_ORDERBOOK_FRAME"
	CodeBookCrossed           Code = "BOOK_CROSSED"

	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
