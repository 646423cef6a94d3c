package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Streaming-core taxonomy
	CodeTransportError: "Transport operation failed",
	CodeProtocolError:  "Venue protocol error",
	CodeParseError:     "Failed to parse venue payload",
	CodeContractError:  "Venue does not support the requested operation",
	CodeArgumentError:  "Invalid argument",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeSubscribeFailed:       "Failed to send subscription frame",
	CodeUnsubscribeFailed:     "Failed to send unsubscription frame",
	CodeHeartbeatTimeout:      "No inbound frame observed within the heartbeat deadline",
	CodeQuarantineTripped:     "Parse-failure quarantine threshold exceeded",
	CodeInvalidOrderbookFrame: "Order-book frame did not match the expected shape",
	CodeBookCrossed:           "Best bid is not below best ask after applying update",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
