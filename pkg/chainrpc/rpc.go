// Package chainrpc implements a resilient JSON-RPC 2.0 client: wire
// envelopes, a composable policy stack (rate limit → circuit breaker →
// retry), and a multi-provider failover pool with health tracking.
package chainrpc

import "encoding/json"

// Id is a JSON-RPC request id: a number, a string, or null.
type Id struct {
	raw json.RawMessage
}

// NewIntId builds a numeric request id.
func NewIntId(n int64) Id {
	b, _ := json.Marshal(n)
	return Id{raw: b}
}

// NewStringId builds a string request id.
func NewStringId(s string) Id {
	b, _ := json.Marshal(s)
	return Id{raw: b}
}

// MarshalJSON implements json.Marshaler.
func (id Id) MarshalJSON() ([]byte, error) {
	if id.raw == nil {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *Id) UnmarshalJSON(data []byte) error {
	id.raw = append(json.RawMessage(nil), data...)
	return nil
}

// String renders the id for logging; "null" when absent.
func (id Id) String() string {
	if id.raw == nil {
		return "null"
	}
	return string(id.raw)
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JsonRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	Id      Id            `json:"id"`
}

// NewRequest builds a well-formed 2.0 request.
func NewRequest(id Id, method string, params ...interface{}) Request {
	return Request{JsonRpc: "2.0", Method: method, Params: params, Id: id}
}

// RpcError is the JSON-RPC 2.0 error object.
type RpcError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RpcError) Error() string {
	return "chainrpc: rpc error " + e.Message
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result/Error
// is populated on success/failure respectively.
type Response struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      Id              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RpcError       `json:"error,omitempty"`
}
