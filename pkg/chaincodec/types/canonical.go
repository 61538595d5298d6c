// Package types holds the cross-chain canonical type system and the
// normalized value representation every decoder emits into.
package types

import "fmt"

// CanonicalType is the closed cross-chain type tag set. Every canonical
// type has exactly one ABI signature fragment (Signature).
type CanonicalType interface {
	isCanonicalType()
	// Signature renders the single ABI signature fragment for this type,
	// e.g. "uint256", "address", "bytes32", "tuple(uint256,address)".
	Signature() string
}

type TBool struct{}

func (TBool) isCanonicalType()     {}
func (TBool) Signature() string    { return "bool" }

// TInt is a signed integer of the given bit width (8..256, multiple of 8).
type TInt struct{ Bits int }

func (TInt) isCanonicalType()  {}
func (t TInt) Signature() string { return fmt.Sprintf("int%d", t.Bits) }

// TUint is an unsigned integer of the given bit width (8..256, multiple of 8).
type TUint struct{ Bits int }

func (TUint) isCanonicalType()   {}
func (t TUint) Signature() string { return fmt.Sprintf("uint%d", t.Bits) }

type TAddress struct{}

func (TAddress) isCanonicalType()  {}
func (TAddress) Signature() string { return "address" }

// TBytesN is a fixed-size byte array, N in 1..32.
type TBytesN struct{ N int }

func (TBytesN) isCanonicalType()   {}
func (t TBytesN) Signature() string { return fmt.Sprintf("bytes%d", t.N) }

// TBytes is the dynamic byte string type.
type TBytes struct{}

func (TBytes) isCanonicalType()  {}
func (TBytes) Signature() string { return "bytes" }

type TString struct{}

func (TString) isCanonicalType()  {}
func (TString) Signature() string { return "string" }

// TArray is a dynamic array of Elem.
type TArray struct{ Elem CanonicalType }

func (TArray) isCanonicalType() {}
func (t TArray) Signature() string {
	return t.Elem.Signature() + "[]"
}

// TFixedArray is a fixed-length array of Elem, length Len.
type TFixedArray struct {
	Elem CanonicalType
	Len  int
}

func (TFixedArray) isCanonicalType() {}
func (t TFixedArray) Signature() string {
	return fmt.Sprintf("%s[%d]", t.Elem.Signature(), t.Len)
}

// TupleField is one named member of a TTuple.
type TupleField struct {
	Name string
	Type CanonicalType
}

// TTuple is an ordered sequence of named fields.
type TTuple struct{ Fields []TupleField }

func (TTuple) isCanonicalType() {}
func (t TTuple) Signature() string {
	s := "tuple("
	for i, f := range t.Fields {
		if i > 0 {
			s += ","
		}
		s += f.Type.Signature()
	}
	return s + ")"
}
