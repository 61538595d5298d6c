// Package evm implements the EVM revert-payload decoder: classification of
// revert bytes into Error(string), Panic(uint256), custom errors, or raw
// bytes, in the exact priority order from spec §4.5.
package evm

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/chainkit/chainkit/pkg/chainerrors"
)

// Confidence constants per spec §4.5 / §9 Open Question 2: design choices,
// not measured, kept as declared (overridable) values rather than untyped
// constants so callers may tune them.
var (
	ConfidenceSucceeded        = 1.0
	ConfidenceRawRevertShort   = 0.1
	ConfidenceRawRevertDecodeFailed = 0.3
	ConfidenceCustomErrorRaw   = 0.5
	ConfidencePanicUnknownCode = 0.6
	ConfidenceCustomErrorDecoded = 0.9
	ConfidenceRevertString     = 0.99
	ConfidencePanicKnownCode   = 0.99
)

const (
	errorStringSelector = "08c379a0"
	panicSelector       = "4e487b71"
)

// panicMeanings maps a Solidity Panic(uint256) code to its human meaning,
// per the Solidity compiler's documented panic code table.
var panicMeanings = map[uint64]string{
	0x00: "generic compiler panic",
	0x01: "assertion failed",
	0x11: "arithmetic overflow or underflow",
	0x12: "division or modulo by zero",
	0x21: "invalid enum value conversion",
	0x22: "invalid encoded storage byte array access",
	0x31: "pop() called on empty array",
	0x32: "array index out of bounds",
	0x41: "out-of-memory allocation or array too large",
	0x51: "called an uninitialized internal function pointer",
}

// CustomErrorRegistry resolves a 4-byte selector to a known custom error's
// argument types, so Decode can raise confidence by decoding args. Nil
// entries mean "unknown selector".
type CustomErrorRegistry interface {
	Lookup(selector string) (name string, argNames []string, argTypes []abi.Type, ok bool)
}

// Decoder decodes revert payloads for EVM chains. It satisfies
// chainerrors.Decoder. A nil Registry is valid: custom errors then stay at
// ConfidenceCustomErrorRaw.
type Decoder struct {
	Registry CustomErrorRegistry
}

// NewDecoder returns a Decoder with no custom-error registry wired in.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode classifies revertData in the exact priority order from spec §4.5.
// It never fails.
func (d *Decoder) Decode(revertData []byte) chainerrors.DecodedError {
	if len(revertData) == 0 {
		return chainerrors.DecodedError{Kind: chainerrors.KindSucceeded, Confidence: ConfidenceSucceeded}
	}
	if len(revertData) < 4 {
		return chainerrors.DecodedError{
			Kind:       chainerrors.KindRawRevert,
			RawBytes:   revertData,
			Confidence: ConfidenceRawRevertShort,
		}
	}

	selector := hex.EncodeToString(revertData[:4])
	payload := revertData[4:]

	switch selector {
	case errorStringSelector:
		s, err := decodeABIString(payload)
		if err != nil {
			return chainerrors.DecodedError{
				Kind:       chainerrors.KindRawRevert,
				RawBytes:   revertData,
				Selector:   "0x" + selector,
				Confidence: ConfidenceRawRevertDecodeFailed,
			}
		}
		return chainerrors.DecodedError{
			Kind:         chainerrors.KindRevertString,
			RevertString: s,
			Selector:     "0x" + selector,
			Confidence:   ConfidenceRevertString,
			Suggestion:   s,
		}

	case panicSelector:
		code, err := decodeABIUint256(payload)
		if err != nil {
			return chainerrors.DecodedError{
				Kind:       chainerrors.KindRawRevert,
				RawBytes:   revertData,
				Selector:   "0x" + selector,
				Confidence: ConfidenceRawRevertDecodeFailed,
			}
		}
		meaning, known := panicMeanings[code]
		if !known {
			return chainerrors.DecodedError{
				Kind:         chainerrors.KindPanic,
				PanicCode:    code,
				PanicMeaning: "unknown panic code",
				Selector:     "0x" + selector,
				Confidence:   ConfidencePanicUnknownCode,
			}
		}
		return chainerrors.DecodedError{
			Kind:         chainerrors.KindPanic,
			PanicCode:    code,
			PanicMeaning: meaning,
			Selector:     "0x" + selector,
			Confidence:   ConfidencePanicKnownCode,
			Suggestion:   meaning,
		}

	default:
		name, argNames, argTypes, ok := "", nil, []abi.Type(nil), false
		if d.Registry != nil {
			name, argNames, argTypes, ok = d.Registry.Lookup("0x" + selector)
		}
		if !ok {
			return chainerrors.DecodedError{
				Kind:       chainerrors.KindCustomError,
				Selector:   "0x" + selector,
				Confidence: ConfidenceCustomErrorRaw,
			}
		}
		args, err := decodeCustomArgs(payload, argNames, argTypes)
		if err != nil {
			return chainerrors.DecodedError{
				Kind:       chainerrors.KindCustomError,
				CustomName: name,
				Selector:   "0x" + selector,
				Confidence: ConfidenceCustomErrorRaw,
			}
		}
		return chainerrors.DecodedError{
			Kind:       chainerrors.KindCustomError,
			CustomName: name,
			CustomArgs: args,
			Selector:   "0x" + selector,
			Confidence: ConfidenceCustomErrorDecoded,
		}
	}
}

func decodeABIString(payload []byte) (string, error) {
	args := abi.Arguments{{Type: mustType("string")}}
	vals, err := args.UnpackValues(payload)
	if err != nil || len(vals) != 1 {
		return "", errDecodeFailed
	}
	s, ok := vals[0].(string)
	if !ok {
		return "", errDecodeFailed
	}
	return s, nil
}

func decodeABIUint256(payload []byte) (uint64, error) {
	args := abi.Arguments{{Type: mustType("uint256")}}
	vals, err := args.UnpackValues(payload)
	if err != nil || len(vals) != 1 {
		return 0, errDecodeFailed
	}
	bi, ok := vals[0].(interface{ Uint64() uint64 })
	if !ok {
		return 0, errDecodeFailed
	}
	return bi.Uint64(), nil
}

func decodeCustomArgs(payload []byte, argNames []string, argTypes []abi.Type) (chainerrors.CustomErrorArgs, error) {
	args := make(abi.Arguments, len(argTypes))
	for i, t := range argTypes {
		name := ""
		if i < len(argNames) {
			name = argNames[i]
		}
		args[i] = abi.Argument{Name: name, Type: t}
	}
	vals, err := args.UnpackValues(payload)
	if err != nil {
		return nil, err
	}
	out := make(chainerrors.CustomErrorArgs, len(vals))
	for i, v := range vals {
		name := ""
		if i < len(argNames) {
			name = argNames[i]
		}
		out[name] = v
	}
	return out, nil
}

func mustType(sig string) abi.Type {
	t, err := abi.NewType(sig, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

var errDecodeFailed = decodeFailedErr{}

type decodeFailedErr struct{}

func (decodeFailedErr) Error() string { return "chainerrors/evm: revert payload decode failed" }
