// internal/identity/identity.go
//
// Requested e-mail identity.
//
// Context
// -------
// Mail clients send the address the user typed, so anything may arrive
// here.  Parse never rejects input.  An address without exactly one “@” is
// kept verbatim in Full while LocalPart and Domain stay empty, which in
// practice makes the layer merger answer “not found” further down.
//
// Notes
// -----
//   - Identity is a value type; copies are cheap and never aliased.
//   - Identity implements the field-source contract used by the importer,
//     so the identity node in the config tree reads straight from it.
//   - Oxford commas, two spaces after periods.
package identity

import "strings"

// Field names exposed to the config tree.
const (
	FieldFull      = "full_address"
	FieldLocalPart = "local_part"
	FieldDomain    = "domain"
)

// Identity is the parsed form of a requested address.
type Identity struct {
	Full      string `json:"full_address"`
	LocalPart string `json:"local_part"`
	Domain    string `json:"domain"`
}

// Parse splits raw into local part and domain.  Exactly one “@” is
// required; every other shape yields empty parts.
func Parse(raw string) Identity {
	id := Identity{Full: raw}
	if strings.Count(raw, "@") != 1 {
		return id
	}
	local, domain, _ := strings.Cut(raw, "@")
	id.LocalPart = local
	id.Domain = domain
	return id
}

// Valid reports whether both parts are present.
func (i Identity) Valid() bool {
	return i.LocalPart != "" && i.Domain != ""
}

// Lookup returns the identity attribute stored under key.
func (i Identity) Lookup(key string) (any, bool) {
	switch key {
	case FieldFull:
		return i.Full, true
	case FieldLocalPart:
		return i.LocalPart, true
	case FieldDomain:
		return i.Domain, true
	}
	return nil, false
}

// String returns the original input.
func (i Identity) String() string { return i.Full }
