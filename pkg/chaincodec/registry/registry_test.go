package registry

import (
	"testing"

	"github.com/chainkit/chainkit/pkg/chaincodec/schema"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

func transferSchema(t *testing.T, version uint32, chains ...string) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Name:    "erc20_transfer",
		Version: version,
		Chains:  chains,
		Event:   "Transfer",
		Fields: []schema.Field{
			{Name: "from", Type: types.TAddress{}, Indexed: true},
			{Name: "to", Type: types.TAddress{}, Indexed: true},
			{Name: "value", Type: types.TUint{Bits: 256}},
		},
	}
	s.Fingerprint = s.ComputeFingerprint()
	return s
}

func TestRegistry_AddAndGetByName(t *testing.T) {
	r := New()
	s := transferSchema(t, 1, "ethereum")
	if err := r.Add(s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, ok := r.GetByName("erc20_transfer", 1)
	if !ok || got != s {
		t.Fatalf("GetByName returned ok=%v got=%v", ok, got)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_AddRejectsDuplicateNameVersion(t *testing.T) {
	r := New()
	must(t, r.Add(transferSchema(t, 1, "ethereum")))
	if err := r.Add(transferSchema(t, 1, "polygon")); err == nil {
		t.Fatal("expected AlreadyExists error for duplicate (name, version)")
	}
}

func TestRegistry_DisjointChainsCanShareFingerprint(t *testing.T) {
	r := New()
	must(t, r.Add(transferSchema(t, 1, "ethereum")))
	must(t, r.Add(transferSchema(t, 2, "polygon")))
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_OverlappingChainsRejected(t *testing.T) {
	r := New()
	must(t, r.Add(transferSchema(t, 1, "ethereum", "polygon")))
	if err := r.Add(transferSchema(t, 2, "polygon")); err == nil {
		t.Fatal("expected overlapping chain rejection")
	}
}

func TestRegistry_GetByFingerprintDisambiguatesByChain(t *testing.T) {
	r := New()
	must(t, r.Add(transferSchema(t, 1, "ethereum")))
	must(t, r.Add(transferSchema(t, 2, "polygon")))

	fp := transferSchema(t, 99).ComputeFingerprint()
	got, ok := r.GetByFingerprint(fp, "polygon")
	if !ok || got.Version != 2 {
		t.Fatalf("GetByFingerprint(polygon) = %+v, ok=%v", got, ok)
	}
	got, ok = r.GetByFingerprint(fp, "ethereum")
	if !ok || got.Version != 1 {
		t.Fatalf("GetByFingerprint(ethereum) = %+v, ok=%v", got, ok)
	}
	if _, ok := r.GetByFingerprint(fp, "arbitrum"); ok {
		t.Fatal("expected no match for an unregistered chain")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
