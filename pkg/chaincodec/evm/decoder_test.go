package evm

import (
	"math/big"
	"testing"

	"github.com/chainkit/chainkit/pkg/chaincodec/chain"
	"github.com/chainkit/chainkit/pkg/chaincodec/schema"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

func transferSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Name:    "erc20_transfer",
		Version: 1,
		Chains:  []string{"ethereum"},
		Event:   "Transfer",
		Fields: []schema.Field{
			{Name: "from", Type: types.TAddress{}, Indexed: true},
			{Name: "to", Type: types.TAddress{}, Indexed: true},
			{Name: "value", Type: types.TUint{Bits: 256}, Indexed: false},
		},
	}
	s.Fingerprint = s.ComputeFingerprint()
	if err := s.Validate(); err != nil {
		t.Fatalf("schema validate: %v", err)
	}
	return s
}

// S1 from spec §8.
func TestDecodeEvent_ERC20Transfer(t *testing.T) {
	s := transferSchema(t)

	raw := RawLog{
		Chain: chain.New("ethereum", chain.FamilyEvm, nil),
		Topics: []string{
			"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
			"0x000000000000000000000000d8da6bf26964af9d7eed9e03e53415d37aa96045",
			"0x000000000000000000000000ab5801a7d398351b8be11c439e05c5b3259aec9b",
		},
		Data: hexMustDecode("000000000000000000000000000000000000000000000000000000003b9aca00"),
	}

	decoded, err := DecodeEvent(raw, s)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if len(decoded.DecodeErrors) != 0 {
		t.Fatalf("unexpected decode errors: %v", decoded.DecodeErrors)
	}

	from, ok := decoded.Get("from")
	if !ok {
		t.Fatal("missing from")
	}
	if got := from.(types.VAddress).Value; got != "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045" {
		t.Errorf("from = %s, want checksummed 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", got)
	}

	to, ok := decoded.Get("to")
	if !ok {
		t.Fatal("missing to")
	}
	if got := to.(types.VAddress).Value; got != "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B" {
		t.Errorf("to = %s, want checksummed 0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", got)
	}

	value, ok := decoded.Get("value")
	if !ok {
		t.Fatal("missing value")
	}
	vu, ok := value.(types.VUint)
	if !ok {
		t.Fatalf("value has wrong variant: %T", value)
	}
	if vu.Value.Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Errorf("value = %s, want 1000000000", vu.Value.String())
	}

	// Field map insertion order equals schema declaration order (invariant 3).
	wantOrder := []string{"from", "to", "value"}
	for i, f := range decoded.Fields {
		if f.Name != wantOrder[i] {
			t.Errorf("field %d = %s, want %s", i, f.Name, wantOrder[i])
		}
	}
}

// S2 from spec §8.
func TestSchemaFingerprint_UniswapV3Swap(t *testing.T) {
	s := &schema.Schema{
		Name:  "uniswap_v3_swap",
		Event: "Swap",
		Fields: []schema.Field{
			{Name: "sender", Type: types.TAddress{}, Indexed: true},
			{Name: "recipient", Type: types.TAddress{}, Indexed: true},
			{Name: "amount0", Type: types.TInt{Bits: 256}},
			{Name: "amount1", Type: types.TInt{Bits: 256}},
			{Name: "sqrtPriceX96", Type: types.TUint{Bits: 160}},
			{Name: "liquidity", Type: types.TUint{Bits: 128}},
			{Name: "tick", Type: types.TInt{Bits: 24}},
		},
	}
	const want = "0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67"
	if got := s.ComputeFingerprint(); got != want {
		t.Errorf("fingerprint = %s, want %s", got, want)
	}
}

func hexMustDecode(s string) []byte {
	b := make([]byte, len(s)/2)
	for i := 0; i < len(b); i++ {
		hi := hexNibble(s[2*i])
		lo := hexNibble(s[2*i+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
