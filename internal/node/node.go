// Package node holds the typed configuration tree that one resolution
// builds, fills, and resolves.
//
// A Node is a record of named fields plus a flat-key prefix and an ordered
// list of children.  Every node shape is declared up front as a Schema, so
// the importer and the resolver walk an explicit field list instead of
// inspecting types at run time.
//
// Values are one of string, int, []string, or nil (absent).
package node

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is one named value on a Node.
type Field struct {
	Name  string
	Value any
}

// Node is one level of the configuration tree.
type Node struct {
	Name   string // key of this node inside its parent (“in_server”)
	Prefix string // prepended to field names to form flat keys
	Source string // when set, fields are read from the nested source stored under this key

	Fields   []*Field
	Children []*Node
}

// FlatKey returns prefix + name.
func (n *Node) FlatKey(name string) string { return n.Prefix + name }

// Field returns the field called name.
func (n *Node) Field(name string) (*Field, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Value returns the current value of field name, or nil.
func (n *Node) Value(name string) any {
	if f, ok := n.Field(name); ok {
		return f.Value
	}
	return nil
}

// FieldTypeError reports a field whose value cannot be read as the kind
// its consumer needs.
type FieldTypeError struct {
	Node  string
	Field string
	Want  string
	Value any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s.%s: cannot use %#v as %s", e.Node, e.Field, e.Value, e.Want)
}

// String returns field name as text.  Non-string scalars are formatted,
// nil is "".
func (n *Node) String(name string) string {
	return Format(n.Value(name))
}

// Int returns field name as an int.  Decimal strings are parsed, since a
// resolved reference always leaves text behind.  nil is 0.
func (n *Node) Int(name string) (int, error) {
	switch v := n.Value(name).(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &FieldTypeError{Node: n.Name, Field: name, Want: "int", Value: v}
		}
		return i, nil
	default:
		return 0, &FieldTypeError{Node: n.Name, Field: name, Want: "int", Value: v}
	}
}

// Strings returns a copy of field name as a []string.  A single scalar
// becomes a one-element list, nil and "" become nil.
func (n *Node) Strings(name string) []string {
	switch v := n.Value(name).(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), v...)
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return []string{Format(v)}
	}
}

// Child returns the direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Walk visits every node depth-first, children before their parent.
func (n *Node) Walk(fn func(*Node)) {
	for _, c := range n.Children {
		c.Walk(fn)
	}
	fn(n)
}

// CheckDisjoint returns an error when two nodes of the tree map a field to
// the same flat key.
func CheckDisjoint(root *Node) error {
	owner := make(map[string]string)
	var err error
	root.Walk(func(n *Node) {
		if err != nil {
			return
		}
		for _, f := range n.Fields {
			key := n.FlatKey(f.Name)
			if prev, dup := owner[key]; dup {
				err = fmt.Errorf("flat key %q declared by both %s and %s", key, prev, n.Name)
				return
			}
			owner[key] = n.Name
		}
	})
	return err
}

// Normalize converts decoded values into the kinds a Node stores.  Whole
// numbers become int, lists of strings become []string.  Anything else is
// returned unchanged.
func Normalize(v any) any {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case int32:
		return int(t)
	case uint64:
		if t <= math.MaxInt {
			return int(t)
		}
		return t
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
		if t == math.Trunc(t) && t >= math.MinInt && t < math.MaxInt {
			return int(t)
		}
		return t
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return t
			}
			out = append(out, s)
		}
		return out
	}
	return v
}

// Format renders a field value as text for substitution into a string.
func Format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// cloneValue copies slices so built trees never share backing arrays with
// a Schema default.
func cloneValue(v any) any {
	if ss, ok := v.([]string); ok {
		return append([]string(nil), ss...)
	}
	return v
}
