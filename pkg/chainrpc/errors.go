package chainrpc

import "fmt"

// TransportErrorKind is the closed tag set for TransportError.
type TransportErrorKind int

const (
	KindHttp TransportErrorKind = iota
	KindWebSocket
	KindRpc
	KindRateLimited
	KindCircuitOpen
	KindAllProvidersDown
	KindTimeout
	KindDeserialization
)

func (k TransportErrorKind) String() string {
	switch k {
	case KindHttp:
		return "Http"
	case KindWebSocket:
		return "WebSocket"
	case KindRpc:
		return "Rpc"
	case KindRateLimited:
		return "RateLimited"
	case KindCircuitOpen:
		return "CircuitOpen"
	case KindAllProvidersDown:
		return "AllProvidersDown"
	case KindTimeout:
		return "Timeout"
	case KindDeserialization:
		return "Deserialization"
	default:
		return "Unknown"
	}
}

// TransportError is the structured error every transport operation returns
// on failure. Propagation policy (spec §7): Http/Timeout/RateLimited and
// Deserialization are retryable; Rpc (execution errors from the node) are not.
type TransportError struct {
	Kind     TransportErrorKind
	Provider string
	Code     int64
	Message  string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chainrpc: %s[%s]: %s: %v", e.Kind, e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("chainrpc: %s[%s]: %s", e.Kind, e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// IsRetryable reports whether the retry policy should absorb this error
// rather than surfacing it to the caller immediately. Execution errors from
// the node (KindRpc) are never retryable: they are caller-visible per
// spec §4.6 step 3(c).
func (e *TransportError) IsRetryable() bool {
	switch e.Kind {
	case KindHttp, KindTimeout, KindRateLimited, KindDeserialization:
		return true
	case KindCircuitOpen, KindRpc, KindAllProvidersDown, KindWebSocket:
		return false
	default:
		return false
	}
}

// IsExecutionError reports whether this is a node-reported execution
// failure rather than a transport-layer failure.
func (e *TransportError) IsExecutionError() bool {
	return e.Kind == KindRpc
}
