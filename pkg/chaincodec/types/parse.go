package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSignatureFragment parses a single ABI type fragment such as
// "uint256", "address", "bytes32", "uint256[]", "uint256[3]" or a tuple
// fragment "tuple(uint256,address)" into a CanonicalType. It is the inverse
// of CanonicalType.Signature for every type the decoder can produce.
func ParseSignatureFragment(s string) (CanonicalType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("types: empty type fragment")
	}

	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open < 0 {
			return nil, fmt.Errorf("types: malformed array fragment %q", s)
		}
		elemStr, lenStr := s[:open], s[open+1:len(s)-1]
		elem, err := ParseSignatureFragment(elemStr)
		if err != nil {
			return nil, err
		}
		if lenStr == "" {
			return TArray{Elem: elem}, nil
		}
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return nil, fmt.Errorf("types: bad fixed array length in %q: %w", s, err)
		}
		return TFixedArray{Elem: elem, Len: n}, nil
	}

	if strings.HasPrefix(s, "tuple(") && strings.HasSuffix(s, ")") {
		inner := s[len("tuple(") : len(s)-1]
		parts := splitTopLevelCommas(inner)
		fields := make([]TupleField, 0, len(parts))
		for i, p := range parts {
			t, err := ParseSignatureFragment(p)
			if err != nil {
				return nil, err
			}
			fields = append(fields, TupleField{Name: strconv.Itoa(i), Type: t})
		}
		return TTuple{Fields: fields}, nil
	}

	switch {
	case s == "bool":
		return TBool{}, nil
	case s == "address":
		return TAddress{}, nil
	case s == "bytes":
		return TBytes{}, nil
	case s == "string":
		return TString{}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(s[len("bytes"):])
		if err != nil {
			return nil, fmt.Errorf("types: bad bytesN fragment %q: %w", s, err)
		}
		return TBytesN{N: n}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := strconv.Atoi(s[len("uint"):])
		if err != nil {
			return nil, fmt.Errorf("types: bad uintN fragment %q: %w", s, err)
		}
		return TUint{Bits: bits}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := strconv.Atoi(s[len("int"):])
		if err != nil {
			return nil, fmt.Errorf("types: bad intN fragment %q: %w", s, err)
		}
		return TInt{Bits: bits}, nil
	}
	return nil, fmt.Errorf("types: unrecognized type fragment %q", s)
}

func splitTopLevelCommas(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
