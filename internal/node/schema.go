// internal/node/schema.go
//
// Static node shapes.
//
// Context
// -------
// A Schema is the declaration of one node type: its name inside the
// parent, its flat-key prefix, its fields with defaults, and its children.
// Build() turns a Schema into a fresh *Node tree.  Each resolution builds
// its own tree, so nothing here is ever mutated.
//
// The incoming and outgoing servers are the same shape; they differ only
// by prefix and defaults, which is why MailServer is a function rather
// than two types.
//
// Notes
// -----
//   - Children are resolved in declaration order.  Order matters for the
//     “last child wins” rule in the resolver.
//   - Oxford commas, two spaces after periods.
package node

import "github.com/yanizio/autoconfig/internal/identity"

// FieldSpec declares one field and its default.
type FieldSpec struct {
	Name    string
	Default any
}

// Schema declares one node type.
type Schema struct {
	Name     string
	Prefix   string
	Source   string
	Fields   []FieldSpec
	Children []Schema
}

// Build returns a new tree populated with defaults.
func (s Schema) Build() *Node {
	n := &Node{
		Name:   s.Name,
		Prefix: s.Prefix,
		Source: s.Source,
		Fields: make([]*Field, 0, len(s.Fields)),
	}
	for _, fs := range s.Fields {
		n.Fields = append(n.Fields, &Field{Name: fs.Name, Value: cloneValue(fs.Default)})
	}
	for _, cs := range s.Children {
		n.Children = append(n.Children, cs.Build())
	}
	return n
}

// Names of nodes and fields shared with the merger and the renderer.
const (
	InServer  = "in_server"
	OutServer = "out_server"
	Address   = "address"

	FieldID          = "id"
	FieldNameShort   = "name_short"
	FieldNameDisplay = "name_display"
	FieldDomains     = "domains"

	FieldHost       = "host"
	FieldPort       = "port"
	FieldSocketType = "socket_type"
	FieldServerType = "server_type"
	FieldAuth       = "auth"
	FieldUser       = "user"
)

// Mail server defaults shared by both directions.
const (
	DefaultSocketType = "STARTTLS"
	DefaultUser       = "##EMAILADDRESS##"
)

// DefaultAuth is the authentication list advertised when none is set.
var DefaultAuth = []string{"password-cleartext"}

// MailServer declares a mail server node.
func MailServer(name, prefix string, port int, serverType string) Schema {
	return Schema{
		Name:   name,
		Prefix: prefix,
		Fields: []FieldSpec{
			{FieldHost, ""},
			{FieldPort, port},
			{FieldSocketType, DefaultSocketType},
			{FieldServerType, serverType},
			{FieldAuth, DefaultAuth},
			{FieldUser, DefaultUser},
		},
	}
}

// Incoming and Outgoing are the two server shapes.
var (
	Incoming = MailServer(InServer, "in_", 143, "imap")
	Outgoing = MailServer(OutServer, "out_", 587, "smtp")
)

// Identity declares the identity node.  It reads from the identity object
// the merger stores under the reserved key Address.
var Identity = Schema{
	Name:   Address,
	Source: Address,
	Fields: []FieldSpec{
		{identity.FieldFull, ""},
		{identity.FieldLocalPart, ""},
		{identity.FieldDomain, ""},
	},
}

// Provider declares the root node.
var Provider = Schema{
	Name: "provider",
	Fields: []FieldSpec{
		{FieldID, ""},
		{FieldNameShort, ""},
		{FieldNameDisplay, ""},
		{FieldDomains, []string{}},
	},
	Children: []Schema{Incoming, Outgoing, Identity},
}
