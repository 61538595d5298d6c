// Package registry implements the in-memory, dual-indexed schema registry:
// lookup by fingerprint and by (name, version).
package registry

import (
	"fmt"
	"sync"

	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/schema"
)

type nameVersion struct {
	name    string
	version uint32
}

// Registry is a read-mostly, reader-biased (sync.RWMutex) store of schemas,
// indexed both by fingerprint and by (name, version). Per spec §4.1,
// multiple schemas may share a fingerprint only when their chain slug sets
// are pairwise disjoint.
type Registry struct {
	mu          sync.RWMutex
	byFp        map[string][]*schema.Schema
	byNameVer   map[nameVersion]*schema.Schema
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byFp:      make(map[string][]*schema.Schema),
		byNameVer: make(map[nameVersion]*schema.Schema),
	}
}

// Add validates and inserts s. It returns a *errors.RegistryError on any
// failure (AlreadyExists, ValidationFailed, FingerprintMismatch).
func (r *Registry) Add(s *schema.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := nameVersion{s.Name, s.Version}
	if _, exists := r.byNameVer[key]; exists {
		return &cerrors.RegistryError{
			Kind: cerrors.AlreadyExists, Name: s.Name,
			Detail: fmt.Sprintf("version %d already registered", s.Version),
		}
	}

	for _, existing := range r.byFp[s.Fingerprint] {
		if chainSlugsOverlap(existing.Chains, s.Chains) {
			return &cerrors.RegistryError{
				Kind: cerrors.ValidationFailed, Name: s.Name,
				Detail: fmt.Sprintf(
					"fingerprint %s already claimed by schema %q for an overlapping chain",
					s.Fingerprint, existing.Name),
			}
		}
	}

	r.byNameVer[key] = s
	r.byFp[s.Fingerprint] = append(r.byFp[s.Fingerprint], s)
	return nil
}

// GetByName returns the schema registered under (name, version), if any.
func (r *Registry) GetByName(name string, version uint32) (*schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byNameVer[nameVersion{name, version}]
	return s, ok
}

// GetByFingerprint returns the schema registered for fingerprint on chain
// slug. When multiple chain-disjoint schemas share a fingerprint, chain
// disambiguates; chain == "" returns the first match if there is exactly
// one candidate overall.
func (r *Registry) GetByFingerprint(fingerprint, chainSlug string) (*schema.Schema, bool) {
	fingerprint = schema.NormalizeFingerprint(fingerprint)
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.byFp[fingerprint]
	if len(candidates) == 0 {
		return nil, false
	}
	if chainSlug == "" {
		if len(candidates) == 1 {
			return candidates[0], true
		}
		return nil, false
	}
	for _, c := range candidates {
		for _, slug := range c.Chains {
			if slug == chainSlug {
				return c, true
			}
		}
	}
	return nil, false
}

// Len returns the number of distinct (name, version) entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNameVer)
}

// Iter returns a snapshot slice of every registered schema. Safe to call
// while concurrent writers are active; the snapshot never reflects a
// partial write.
func (r *Registry) Iter() []*schema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.Schema, 0, len(r.byNameVer))
	for _, s := range r.byNameVer {
		out = append(out, s)
	}
	return out
}

func chainSlugsOverlap(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
