// Package chainerrors defines the cross-chain decoded-error representation
// and the capability interface (no inheritance) that chain-family error
// decoders implement. This package holds no registry of decoders.
package chainerrors

// ErrorKind is the closed tag set DecodedError.Kind inhabits.
type ErrorKind int

const (
	KindSucceeded ErrorKind = iota
	KindRevertString
	KindCustomError
	KindPanic
	KindRawRevert
	KindOutOfGas
	KindContractNotDeployed
)

func (k ErrorKind) String() string {
	switch k {
	case KindSucceeded:
		return "Succeeded"
	case KindRevertString:
		return "RevertString"
	case KindCustomError:
		return "CustomError"
	case KindPanic:
		return "Panic"
	case KindRawRevert:
		return "RawRevert"
	case KindOutOfGas:
		return "OutOfGas"
	case KindContractNotDeployed:
		return "ContractNotDeployed"
	default:
		return "Unknown"
	}
}

// CustomErrorArgs holds a custom error's decoded arguments, keyed by
// declared parameter name, when a registry entry for the selector is
// available; nil when args could not be decoded.
type CustomErrorArgs map[string]any

// DecodedError is the revert decoder's uniform output for any revert
// payload, regardless of which decoder produced it.
type DecodedError struct {
	Kind         ErrorKind
	RevertString string
	CustomName   string
	CustomArgs   CustomErrorArgs
	PanicCode    uint64
	PanicMeaning string
	RawBytes     []byte
	Selector     string
	Suggestion   string
	Confidence   float64
}

// Decoder is the capability every chain-family revert decoder implements.
// Decode never fails: unknown payloads degrade gracefully to a low
// confidence DecodedError rather than returning an error.
type Decoder interface {
	Decode(revertData []byte) DecodedError
}
