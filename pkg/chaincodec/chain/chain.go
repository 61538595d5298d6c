// Package chain defines the chain-family tag set and chain identity used
// across chaincodec, chainerrors, chainrpc and chainindex.
package chain

import "fmt"

// Family is the VM family a chain belongs to. It is a closed tag set: new
// families require a code change, never a user-supplied string.
type Family int

const (
	// FamilyUnknown is the zero value and never a valid ChainId family.
	FamilyUnknown Family = iota
	FamilyEvm
	FamilySolana
	FamilyCosmos
	FamilySui
	FamilyAptos
	FamilyCustom
)

func (f Family) String() string {
	switch f {
	case FamilyEvm:
		return "evm"
	case FamilySolana:
		return "solana"
	case FamilyCosmos:
		return "cosmos"
	case FamilySui:
		return "sui"
	case FamilyAptos:
		return "aptos"
	case FamilyCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Id identifies a chain: a globally-unique slug, its VM family, an optional
// numeric chain id (EVM chain id, e.g.), and a free-form custom name used
// only when Family is FamilyCustom.
type Id struct {
	Slug       string
	Family     Family
	NumericId  *uint64
	CustomName string
}

// New builds an Id for a well-known family.
func New(slug string, family Family, numericId *uint64) Id {
	return Id{Slug: slug, Family: family, NumericId: numericId}
}

// NewCustom builds an Id for FamilyCustom, where name carries the VM label.
func NewCustom(slug, name string) Id {
	return Id{Slug: slug, Family: FamilyCustom, CustomName: name}
}

// String renders the display form, which is always the slug.
func (id Id) String() string {
	return id.Slug
}

// Validate reports whether the Id is well-formed.
func (id Id) Validate() error {
	if id.Slug == "" {
		return fmt.Errorf("chain: empty slug")
	}
	if id.Family == FamilyUnknown {
		return fmt.Errorf("chain: %q has no family", id.Slug)
	}
	if id.Family == FamilyCustom && id.CustomName == "" {
		return fmt.Errorf("chain: %q is FamilyCustom with no CustomName", id.Slug)
	}
	return nil
}
