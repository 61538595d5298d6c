// Package schema implements the versioned decoding contract (CSDL schema
// document) and the canonical-signature / fingerprint machinery every
// decoder and the registry depend on.
package schema

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// TrustLevel tags the provenance confidence of a schema entry.
type TrustLevel int

const (
	Unverified TrustLevel = iota
	Community
	MaintainerVerified
	Audited
)

func (t TrustLevel) String() string {
	switch t {
	case Community:
		return "community"
	case MaintainerVerified:
		return "maintainer_verified"
	case Audited:
		return "audited"
	default:
		return "unverified"
	}
}

// ParseTrustLevel parses the CSDL trust_level string.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch s {
	case "unverified", "":
		return Unverified, nil
	case "community":
		return Community, nil
	case "maintainer_verified":
		return MaintainerVerified, nil
	case "audited":
		return Audited, nil
	default:
		return Unverified, fmt.Errorf("schema: unknown trust_level %q", s)
	}
}

// Field is one member of a Schema's field list.
type Field struct {
	Name    string
	Type    types.CanonicalType
	Indexed bool
}

// Meta carries descriptive, non-decoding-relevant schema metadata.
type Meta struct {
	Protocol   string
	Category   string
	Verified   bool
	TrustLevel TrustLevel
}

// Schema is a versioned decoding contract for one event.
type Schema struct {
	Name        string
	Version     uint32
	Chains      []string
	Event       string
	Fingerprint string
	Fields      []Field
	Meta        Meta
}

// IndexedFields returns the subset of Fields with Indexed == true, in
// declaration order.
func (s *Schema) IndexedFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Indexed {
			out = append(out, f)
		}
	}
	return out
}

// NonIndexedFields returns the subset of Fields with Indexed == false, in
// declaration order.
func (s *Schema) NonIndexedFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if !f.Indexed {
			out = append(out, f)
		}
	}
	return out
}

// CanonicalSignature renders "EventName(type1,type2,...)" over every field
// in declaration order, regardless of indexed/non-indexed partition — this
// is the string keccak256-hashed to produce the fingerprint.
func (s *Schema) CanonicalSignature() string {
	var b strings.Builder
	b.WriteString(s.Event)
	b.WriteByte('(')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Type.Signature())
	}
	b.WriteByte(')')
	return b.String()
}

// ComputeFingerprint returns "0x" + 64 lowercase hex digits of
// keccak256(CanonicalSignature()).
func (s *Schema) ComputeFingerprint() string {
	sum := crypto.Keccak256([]byte(s.CanonicalSignature()))
	return "0x" + fmt.Sprintf("%x", sum)
}

// Validate checks the three schema invariants from spec §4.1: the
// fingerprint matches the canonical signature hash, field names are
// unique, and every field type is representable (always true for a
// well-formed types.CanonicalType tree, so this reduces to presence).
func (s *Schema) Validate() error {
	if s.Event == "" {
		return &cerrors.RegistryError{Kind: cerrors.ValidationFailed, Name: s.Name, Detail: "empty event name"}
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return &cerrors.RegistryError{Kind: cerrors.ValidationFailed, Name: s.Name, Detail: "field with empty name"}
		}
		if _, dup := seen[f.Name]; dup {
			return &cerrors.RegistryError{Kind: cerrors.ValidationFailed, Name: s.Name, Detail: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[f.Name] = struct{}{}
		if f.Type == nil {
			return &cerrors.RegistryError{Kind: cerrors.ValidationFailed, Name: s.Name, Detail: fmt.Sprintf("field %q has no type", f.Name)}
		}
	}
	want := normalizeFingerprint(s.Fingerprint)
	if want == "" {
		return &cerrors.RegistryError{Kind: cerrors.ParseError, Name: s.Name, Detail: "missing fingerprint"}
	}
	got := s.ComputeFingerprint()
	if want != got {
		return &cerrors.RegistryError{
			Kind:   cerrors.FingerprintMismatch,
			Name:   s.Name,
			Detail: fmt.Sprintf("declared %s, computed %s from %q", want, got, s.CanonicalSignature()),
		}
	}
	s.Fingerprint = want
	return nil
}

// normalizeFingerprint canonicalizes to lowercase with a leading 0x, per
// spec §3's EventFingerprint equality rule.
func normalizeFingerprint(fp string) string {
	fp = strings.ToLower(strings.TrimSpace(fp))
	if fp == "" {
		return ""
	}
	if !strings.HasPrefix(fp, "0x") {
		fp = "0x" + fp
	}
	if len(fp) != 66 {
		return ""
	}
	return fp
}

// NormalizeFingerprint is the exported form, used by the registry and
// decoder to canonicalize incoming fingerprints before lookup/comparison.
func NormalizeFingerprint(fp string) string { return normalizeFingerprint(fp) }
