package registry

import "testing"

const indentedCSDL = `
schema erc20_transfer:
  version: 1
  chains: [ethereum, polygon]
  event: Transfer
  fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
  fields:
    from:
      type: address
      indexed: true
    to:
      type: address
      indexed: true
    value:
      type: uint256
      indexed: false
  meta:
    protocol: erc20
    category: token
    verified: true
    trust_level: audited
`

const braceCSDL = `
schema erc20_transfer:
  version: 1
  chains: [ethereum, polygon]
  event: Transfer
  fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
  fields:
    from: { type: address, indexed: true }
    to: { type: address, indexed: true }
    value: { type: uint256, indexed: false }
`

func TestParseCSDL_IndentedForm(t *testing.T) {
	schemas, err := ParseCSDL(indentedCSDL)
	if err != nil {
		t.Fatalf("ParseCSDL: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("got %d schemas, want 1", len(schemas))
	}
	s := schemas[0]
	if s.Name != "erc20_transfer" || s.Event != "Transfer" || s.Version != 1 {
		t.Fatalf("unexpected schema: %+v", s)
	}
	if len(s.Fields) != 3 || s.Fields[0].Name != "from" || s.Fields[1].Name != "to" || s.Fields[2].Name != "value" {
		t.Fatalf("fields out of declaration order: %+v", s.Fields)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseCSDL_BraceForm(t *testing.T) {
	schemas, err := ParseCSDL(braceCSDL)
	if err != nil {
		t.Fatalf("ParseCSDL: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("got %d schemas, want 1", len(schemas))
	}
	if err := schemas[0].Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseCSDL_RejectsFingerprintMismatch(t *testing.T) {
	bad := `
schema bad_schema:
  version: 1
  chains: [ethereum]
  event: Transfer
  fingerprint: "0x0000000000000000000000000000000000000000000000000000000000000001"
  fields:
    from:
      type: address
      indexed: true
`
	schemas, err := ParseCSDL(bad)
	if err != nil {
		t.Fatalf("ParseCSDL: %v", err)
	}
	if err := schemas[0].Validate(); err == nil {
		t.Fatal("expected a fingerprint mismatch validation error")
	}
}
