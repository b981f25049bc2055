// internal/resolve/resolve.go
//
// Reference expansion over a config tree.
//
// Context
// -------
// Any string field may embed tokens of the form ##NAME##.  Resolve walks
// the tree children first and rewrites every string field, substituting
// each token with the value it names.  Lookups always start at the root
// of the tree, so a field anywhere can see every other field.
//
// Lookup order for NAME at node N (later steps win):
//
//  1. every child of N, recursively, in declaration order (last match wins),
//  2. the static reference table,
//  3. N's own field named NAME with N's prefix trimmed.
//
// The winning value is itself expanded before substitution, so chains of
// references resolve fully.  A token already on the current chain is a
// cycle and fails with *CyclicReferenceError.
//
// Notes
// -----
//   - “Last child wins” means `##host##` names the outgoing server host,
//     because out_server is declared after in_server.  Use `##in_host##`
//     to be explicit.
//   - Non-string values are substituted in text form (143, “a,b”).  A nil
//     field is never a candidate.
//   - Oxford commas, two spaces after periods.
package resolve

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/autoconfig/internal/node"
)

var tokenRE = regexp.MustCompile(`##([^#]+)##`)

// staticReferences maps node-independent names to placeholders.  Read-only.
var staticReferences = map[string]string{
	"EMAILADDRESS":   "##full_address##",
	"EMAILLOCALPART": "##local_part##",
	"EMAILDOMAIN":    "##domain##",
}

// StaticReference returns the placeholder registered for name.
func StaticReference(name string) (string, bool) {
	v, ok := staticReferences[name]
	return v, ok
}

// Tokens returns the names of every ##NAME## token in s, in order.
func Tokens(s string) []string {
	var out []string
	for _, m := range tokenRE.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

type resolver struct {
	root  *node.Node
	chain []string
}

// Resolve expands every string field of root in place.  On error the tree
// is left partially rewritten and must be discarded.
func Resolve(root *node.Node) error {
	r := &resolver{root: root}
	return r.resolveNode(root)
}

func (r *resolver) resolveNode(n *node.Node) error {
	for _, c := range n.Children {
		if err := r.resolveNode(c); err != nil {
			return err
		}
	}
	for _, f := range n.Fields {
		s, ok := f.Value.(string)
		if !ok {
			continue
		}
		out, err := r.expand(s)
		if err != nil {
			return err
		}
		f.Value = out
	}
	return nil
}

// expand substitutes every token in s.
func (r *resolver) expand(s string) (string, error) {
	if !strings.Contains(s, "##") {
		return s, nil
	}
	var err error
	out := tokenRE.ReplaceAllStringFunc(s, func(m string) string {
		if err != nil {
			return m
		}
		v, e := r.reference(m[2 : len(m)-2])
		if e != nil {
			err = e
			return m
		}
		return v
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// reference returns the fully expanded value of name.
func (r *resolver) reference(name string) (string, error) {
	for i, seen := range r.chain {
		if seen == name {
			chain := append(append([]string(nil), r.chain[i:]...), name)
			return "", &CyclicReferenceError{Chain: chain}
		}
	}

	raw, ok := lookup(r.root, name)
	if !ok {
		return "", &UnresolvedReferenceError{Token: name}
	}
	zap.S().Debugw("reference found", "token", name, "raw", raw)

	r.chain = append(r.chain, name)
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()
	return r.expand(node.Format(raw))
}

// lookup finds the raw candidate for name at or below n.
func lookup(n *node.Node, name string) (any, bool) {
	var (
		cand  any
		found bool
	)
	for _, c := range n.Children {
		if v, ok := lookup(c, name); ok {
			cand, found = v, true
		}
	}
	if v, ok := staticReferences[name]; ok {
		cand, found = v, true
	}
	if f, ok := n.Field(strings.TrimPrefix(name, n.Prefix)); ok && f.Value != nil {
		cand, found = f.Value, true
	}
	return cand, found
}
