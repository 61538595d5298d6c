// Package evm implements the ABI-aware decoder, normalizer, and function
// call/constructor decoder for EVM-family chains.
package evm

import (
	"github.com/chainkit/chainkit/pkg/chaincodec/chain"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// RawLog is the wire-level shape of one EVM log, as received from an RPC
// provider. Topics[0], when present, is the event fingerprint.
type RawLog struct {
	Chain           chain.Id
	TxHash          string
	BlockNumber     uint64
	BlockTimestamp  uint64
	LogIndex        uint64
	Address         string
	Topics          []string
	Data            []byte
	ReceiptRef      string
}

// FieldValue is one named, normalized field of a DecodedEvent, in schema
// declaration order.
type FieldValue struct {
	Name  string
	Value types.NormalizedValue
}

// DecodedEvent is the decoder's output for one RawLog against one schema.
type DecodedEvent struct {
	SchemaName    string
	SchemaVersion uint32
	Chain         chain.Id
	TxHash        string
	BlockNumber   uint64
	BlockTimestamp uint64
	LogIndex      uint64
	Address       string
	Fields        []FieldValue
	DecodeErrors  map[string]error
}

// Get returns the normalized value for a field name, if decoded.
func (d *DecodedEvent) Get(name string) (types.NormalizedValue, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}
