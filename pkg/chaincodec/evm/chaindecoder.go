package evm

import (
	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/registry"
)

// ChainDecoder is the per-chain-slug decode capability registered into the
// batch engine's dispatch table (spec §4.4): fingerprint extraction,
// registry lookup, schema-directed decode, composed into a single-item
// entry point.
type ChainDecoder struct {
	Registry  *registry.Registry
	ChainSlug string
}

// NewChainDecoder builds a ChainDecoder bound to reg for chainSlug.
func NewChainDecoder(reg *registry.Registry, chainSlug string) *ChainDecoder {
	return &ChainDecoder{Registry: reg, ChainSlug: chainSlug}
}

// DecodeItem fingerprints raw, looks up its schema, and decodes it.
func (c *ChainDecoder) DecodeItem(raw RawLog) (*DecodedEvent, error) {
	fp, ok := Fingerprint(raw)
	if !ok {
		return nil, &cerrors.DecodeError{Kind: cerrors.InvalidRawEvent, Chain: c.ChainSlug, Detail: "missing or malformed topic[0] fingerprint"}
	}
	s, ok := c.Registry.GetByFingerprint(fp, c.ChainSlug)
	if !ok {
		return nil, &cerrors.DecodeError{Kind: cerrors.SchemaNotFound, Chain: c.ChainSlug, Detail: fp}
	}
	return DecodeEvent(raw, s)
}
