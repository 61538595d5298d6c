package evm

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// decodeIndexedWord normalizes a 32-byte topic word against a canonical
// type per spec §4.2 step 3: static types decode their real value, dynamic
// types (string, bytes, array) decode as the raw 32-byte hash the chain
// actually stores in the topic.
func decodeIndexedWord(ct types.CanonicalType, word []byte) (types.NormalizedValue, error) {
	if len(word) != 32 {
		return nil, fmt.Errorf("evm: indexed topic must be 32 bytes, got %d", len(word))
	}
	switch t := ct.(type) {
	case types.TBool:
		return types.VBool{Value: word[31] != 0}, nil
	case types.TAddress:
		addr := common.BytesToAddress(word[12:32])
		return types.VAddress{Value: addr.Hex()}, nil
	case types.TBytesN:
		n := t.N
		if n < 0 || n > 32 {
			return nil, fmt.Errorf("evm: invalid bytesN width %d", n)
		}
		buf := make([]byte, n)
		copy(buf, word[:n])
		return types.VBytes{Value: buf}, nil
	case types.TUint:
		v := new(big.Int).SetBytes(word)
		return types.NormalizeUnsignedInt(v, t.Bits), nil
	case types.TInt:
		v := signedFromWord(word)
		return types.NormalizeSignedInt(v, t.Bits), nil
	case types.TBytes, types.TString, types.TArray, types.TFixedArray, types.TTuple:
		buf := make([]byte, 32)
		copy(buf, word)
		return types.VBytes{Value: buf}, nil
	default:
		return nil, fmt.Errorf("evm: unsupported indexed type %T", ct)
	}
}

// signedFromWord interprets a 32-byte big-endian word as a two's-complement
// signed 256-bit integer. Sign extension at encode time means this recovers
// the correct value regardless of the field's declared bit width.
func signedFromWord(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if word[0]&0x80 != 0 {
		max := new(big.Int).Lsh(big.NewInt(1), 256)
		v.Sub(v, max)
	}
	return v
}

// normalizeAbiValue converts a go-ethereum-decoded native Go value (as
// returned from abi.Arguments.UnpackValues) into a NormalizedValue under
// canonical type ct.
func normalizeAbiValue(ct types.CanonicalType, v interface{}) (types.NormalizedValue, error) {
	switch t := ct.(type) {
	case types.TBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("evm: expected bool, got %T", v)
		}
		return types.VBool{Value: b}, nil
	case types.TAddress:
		addr, ok := v.(common.Address)
		if !ok {
			return nil, fmt.Errorf("evm: expected address, got %T", v)
		}
		return types.VAddress{Value: addr.Hex()}, nil
	case types.TString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("evm: expected string, got %T", v)
		}
		return types.VStr{Value: s}, nil
	case types.TBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("evm: expected bytes, got %T", v)
		}
		return types.VBytes{Value: b}, nil
	case types.TBytesN:
		buf, err := fixedBytesToSlice(v)
		if err != nil {
			return nil, err
		}
		return types.VBytes{Value: buf}, nil
	case types.TUint:
		bi, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return types.NormalizeUnsignedInt(bi, t.Bits), nil
	case types.TInt:
		bi, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return types.NormalizeSignedInt(bi, t.Bits), nil
	case types.TArray, types.TFixedArray:
		elem := elemType(ct)
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("evm: expected array/slice, got %T", v)
		}
		out := make([]types.NormalizedValue, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := normalizeAbiValue(elem, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return types.VArray{Values: out}, nil
	case types.TTuple:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("evm: expected tuple struct, got %T", v)
		}
		fields := make([]types.TupleValue, 0, len(t.Fields))
		for i, f := range t.Fields {
			name := f.Name
			if name == "" || isSyntheticIndex(name) {
				name = fmt.Sprintf("%d", i)
			}
			fv := structFieldByIndexOrName(rv, i, f.Name)
			nv, err := normalizeAbiValue(f.Type, fv)
			if err != nil {
				return nil, err
			}
			fields = append(fields, types.TupleValue{Name: name, Value: nv})
		}
		return types.VTuple{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("evm: unsupported canonical type %T", ct)
	}
}

func elemType(ct types.CanonicalType) types.CanonicalType {
	switch t := ct.(type) {
	case types.TArray:
		return t.Elem
	case types.TFixedArray:
		return t.Elem
	default:
		return nil
	}
}

func isSyntheticIndex(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func structFieldByIndexOrName(rv reflect.Value, idx int, name string) interface{} {
	if name != "" {
		capitalized := []byte(name)
		if len(capitalized) > 0 && capitalized[0] >= 'a' && capitalized[0] <= 'z' {
			capitalized[0] -= 'a' - 'A'
		}
		if f := rv.FieldByName(string(capitalized)); f.IsValid() {
			return f.Interface()
		}
	}
	if idx < rv.NumField() {
		return rv.Field(idx).Interface()
	}
	return nil
}

func fixedBytesToSlice(v interface{}) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("evm: expected fixed bytes array, got %T", v)
	}
	buf := make([]byte, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		buf[i] = byte(rv.Index(i).Uint())
	}
	return buf, nil
}

func toBigInt(v interface{}) (*big.Int, error) {
	if bi, ok := v.(*big.Int); ok {
		return bi, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return new(big.Int).SetUint64(rv.Uint()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return big.NewInt(rv.Int()), nil
	default:
		return nil, fmt.Errorf("evm: cannot convert %T to integer", v)
	}
}
