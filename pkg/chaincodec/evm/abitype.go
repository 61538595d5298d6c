package evm

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// toAbiType converts a canonical type into the go-ethereum abi.Type used to
// drive abi.Arguments unpacking of the non-indexed data tuple.
func toAbiType(ct types.CanonicalType) (abi.Type, error) {
	if t, ok := ct.(types.TTuple); ok {
		components := make([]abi.ArgumentMarshaling, len(t.Fields))
		for i, f := range t.Fields {
			components[i] = abi.ArgumentMarshaling{Name: f.Name, Type: f.Type.Signature()}
		}
		return abi.NewType("tuple", "", components)
	}
	return abi.NewType(ct.Signature(), "", nil)
}
