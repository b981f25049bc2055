// internal/layer/layer.go
//
// Provider → domain → user layering.
//
// Context
// -------
// The raw configuration arrives in three sections of decreasing
// generality.  Merge folds them into one flat mapping for a single
// identity, highest precedence last:
//
//  1. provider  – a copy, so the loaded configuration is never touched.
//  2. domain    – overrides for the requested domain.  A hit narrows
//     `domains` to the requested domain alone.
//  3. user      – overrides for the full address.  Same narrowing.
//
// Layers only add or overwrite keys; nothing is ever deleted.  Finally
// the identity is attached under the reserved key `address` so the
// importer can route it into the identity node.
//
// Notes
// -----
//   - The not-found check runs for the empty domain too.  A malformed
//     address therefore fails unless the provider itself serves "".
//   - Oxford commas, two spaces after periods.
package layer

import (
	"errors"

	"github.com/yanizio/autoconfig/internal/identity"
	"github.com/yanizio/autoconfig/internal/node"
)

// ErrNotFound is returned when no layer knows the requested identity.
var ErrNotFound = errors.New("no such configuration")

// Reserved flat keys.
const (
	KeyDomains = node.FieldDomains
	KeyAddress = node.Address
)

// RawConfig is the loaded, untyped configuration.  It is treated as
// read-only by everything in this package.
type RawConfig struct {
	Provider map[string]any
	Domain   map[string]map[string]any
	User     map[string]map[string]any
}

// NewRawConfig returns a RawConfig with every section allocated.
func NewRawConfig() *RawConfig {
	return &RawConfig{
		Provider: make(map[string]any),
		Domain:   make(map[string]map[string]any),
		User:     make(map[string]map[string]any),
	}
}

// ServedDomains returns the provider's domain list.
func (rc *RawConfig) ServedDomains() []string {
	if rc == nil {
		return nil
	}
	switch v := node.Normalize(rc.Provider[KeyDomains]).(type) {
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}

// Serves reports whether the provider lists domain.
func (rc *RawConfig) Serves(domain string) bool {
	for _, d := range rc.ServedDomains() {
		if d == domain {
			return true
		}
	}
	return false
}

// Knows reports whether any layer claims id.
func (rc *RawConfig) Knows(id identity.Identity) bool {
	if rc == nil {
		return false
	}
	if rc.Serves(id.Domain) {
		return true
	}
	if _, ok := rc.Domain[id.Domain]; ok {
		return true
	}
	_, ok := rc.User[id.Full]
	return ok
}

// Flat is the merged mapping of flat keys to values.
type Flat map[string]any

// Lookup satisfies the importer's field source contract.
func (f Flat) Lookup(key string) (any, bool) {
	v, ok := f[key]
	return v, ok
}

// Merge layers rc for id.
func Merge(rc *RawConfig, id identity.Identity) (Flat, error) {
	if !rc.Knows(id) {
		return nil, ErrNotFound
	}

	flat := make(Flat, len(rc.Provider)+2)
	for k, v := range rc.Provider {
		flat[k] = v
	}

	if over, ok := rc.Domain[id.Domain]; ok {
		overlay(flat, over)
		flat[KeyDomains] = []string{id.Domain}
	}
	if over, ok := rc.User[id.Full]; ok {
		overlay(flat, over)
		flat[KeyDomains] = []string{id.Domain}
	}

	flat[KeyAddress] = id
	return flat, nil
}

func overlay(dst Flat, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
