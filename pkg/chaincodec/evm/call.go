package evm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// FunctionSignature describes one callable function for calldata decoding:
// its name and ordered parameter types. Unlike events, all parameters of a
// function call are non-indexed and packed sequentially in the ABI tuple.
type FunctionSignature struct {
	Name   string
	Params []NamedType
}

// NamedType is one parameter of a FunctionSignature.
type NamedType struct {
	Name string
	Type types.CanonicalType
}

// DecodedCall is the result of decoding transaction calldata against a
// FunctionSignature — a supplemental feature beyond event-log decoding,
// carried over from the original source's calldata decoder.
type DecodedCall struct {
	FunctionName string
	Selector     string
	Fields       []FieldValue
	DecodeErrors map[string]error
}

// Selector returns the 4-byte function selector: the first 4 bytes of
// keccak256("name(type1,type2,...)"), mirroring event fingerprinting.
func (f FunctionSignature) Selector() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type.Signature())
	}
	b.WriteByte(')')
	sum := crypto.Keccak256([]byte(b.String()))
	return "0x" + hex.EncodeToString(sum[:4])
}

// DecodeFunctionCall decodes 4-byte-selector-prefixed calldata against sig.
// calldata shorter than 4 bytes is a decode error; a selector mismatch is
// also a decode error (callers normally dispatch by selector first).
func DecodeFunctionCall(calldata []byte, sig FunctionSignature) (*DecodedCall, error) {
	if len(calldata) < 4 {
		return nil, &cerrors.DecodeError{Kind: cerrors.InvalidRawEvent, Detail: "calldata shorter than 4-byte selector"}
	}
	wantSelector := sig.Selector()
	gotSelector := "0x" + hex.EncodeToString(calldata[:4])
	if gotSelector != wantSelector {
		return nil, &cerrors.DecodeError{
			Kind:   cerrors.TypeMismatch,
			Detail: fmt.Sprintf("calldata selector %s does not match %s's selector %s", gotSelector, sig.Name, wantSelector),
		}
	}

	args := make(abi.Arguments, 0, len(sig.Params))
	for _, p := range sig.Params {
		at, err := toAbiType(p.Type)
		if err != nil {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Detail: fmt.Sprintf("param %q: %v", p.Name, err), Cause: err}
		}
		args = append(args, abi.Argument{Name: p.Name, Type: at})
	}

	decodeErrors := make(map[string]error)
	fields := make([]FieldValue, 0, len(sig.Params))
	if len(args) > 0 {
		unpacked, err := args.UnpackValues(calldata[4:])
		if err != nil {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Detail: "call argument unpack failed", Cause: err}
		}
		for i, p := range sig.Params {
			nv, err := normalizeAbiValue(p.Type, unpacked[i])
			if err != nil {
				decodeErrors[p.Name] = err
				continue
			}
			fields = append(fields, FieldValue{Name: p.Name, Value: nv})
		}
	}

	return &DecodedCall{
		FunctionName: sig.Name,
		Selector:     wantSelector,
		Fields:       fields,
		DecodeErrors: decodeErrors,
	}, nil
}

// DecodeConstructor decodes constructor calldata (no selector prefix) given
// the ordered constructor parameter types.
func DecodeConstructor(calldata []byte, params []NamedType) (*DecodedCall, error) {
	args := make(abi.Arguments, 0, len(params))
	for _, p := range params {
		at, err := toAbiType(p.Type)
		if err != nil {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Detail: fmt.Sprintf("param %q: %v", p.Name, err), Cause: err}
		}
		args = append(args, abi.Argument{Name: p.Name, Type: at})
	}
	decodeErrors := make(map[string]error)
	fields := make([]FieldValue, 0, len(params))
	if len(args) > 0 {
		unpacked, err := args.UnpackValues(calldata)
		if err != nil {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Detail: "constructor argument unpack failed", Cause: err}
		}
		for i, p := range params {
			nv, err := normalizeAbiValue(p.Type, unpacked[i])
			if err != nil {
				decodeErrors[p.Name] = err
				continue
			}
			fields = append(fields, FieldValue{Name: p.Name, Value: nv})
		}
	}
	return &DecodedCall{FunctionName: "<constructor>", Fields: fields, DecodeErrors: decodeErrors}, nil
}
