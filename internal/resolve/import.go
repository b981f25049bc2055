// Package resolve fills a config tree from a merged mapping and expands
// the ##NAME## references its string fields carry.
package resolve

import "github.com/yanizio/autoconfig/internal/node"

// FieldSource is anything the importer can read flat keys from.  Both the
// merged layer.Flat and identity.Identity satisfy it.
type FieldSource interface {
	Lookup(key string) (any, bool)
}

// Import copies every matching flat key from src into n and its children.
// Children are filled before their parent.  Missing keys keep defaults.
func Import(n *node.Node, src FieldSource) {
	for _, c := range n.Children {
		Import(c, src)
	}

	from := src
	if n.Source != "" {
		v, ok := src.Lookup(n.Source)
		if !ok {
			return
		}
		nested, ok := v.(FieldSource)
		if !ok {
			return
		}
		from = nested
	}

	for _, f := range n.Fields {
		if v, ok := from.Lookup(n.FlatKey(f.Name)); ok {
			f.Value = node.Normalize(v)
		}
	}
}
