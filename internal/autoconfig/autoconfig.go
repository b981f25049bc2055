// internal/autoconfig/autoconfig.go
//
// One-shot resolution pipeline.
//
// Context
// -------
// Resolve is the only entry point the HTTP layer and the CLI use:
//
//	address ─► identity.Parse ─► layer.Merge ─► node.Provider.Build
//	        ─► resolve.Import ─► resolve.Resolve ─► *Context
//
// Every call builds and discards its own tree and never writes to the
// RawConfig it is given, so concurrent callers need no locking.
//
// Errors
// ------
//   - layer.ErrNotFound                 – no layer knows the identity.
//   - *resolve.UnresolvedReferenceError – a ##TOKEN## matched nothing.
//   - *resolve.CyclicReferenceError     – a reference chain loops.
//   - *node.FieldTypeError              – a port is not a whole number
//     after resolution (e.g. "##in_host##").
//
// All of these pass through unchanged so callers can use errors.Is/As.
//
// Resolution rewrites every string field in place, so a port written as
// "##in_port##" or "993" arrives here as text.  Ports are parsed back to
// int; other scalars are formatted, and a single auth method is read as a
// one-element list.
package autoconfig

import (
	"github.com/yanizio/autoconfig/internal/identity"
	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/node"
	"github.com/yanizio/autoconfig/internal/resolve"
)

// MailServer is the resolved view of one server node.
type MailServer struct {
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	SocketType string   `json:"socket_type"`
	ServerType string   `json:"server_type"`
	Auth       []string `json:"auth"`
	User       string   `json:"user"`
}

// Context is the fully resolved configuration for one identity.
type Context struct {
	ID          string            `json:"id"`
	NameShort   string            `json:"name_short"`
	NameDisplay string            `json:"name_display"`
	Domains     []string          `json:"domains"`
	InServer    MailServer        `json:"in_server"`
	OutServer   MailServer        `json:"out_server"`
	Address     identity.Identity `json:"address"`
}

// Resolve builds the resolved Context for address out of rc.
func Resolve(rc *layer.RawConfig, address string) (*Context, error) {
	id := identity.Parse(address)

	flat, err := layer.Merge(rc, id)
	if err != nil {
		return nil, err
	}

	root := node.Provider.Build()
	resolve.Import(root, flat)
	if err := resolve.Resolve(root); err != nil {
		return nil, err
	}
	return fromTree(root)
}

func fromTree(root *node.Node) (*Context, error) {
	in, err := serverFrom(root.Child(node.InServer))
	if err != nil {
		return nil, err
	}
	out, err := serverFrom(root.Child(node.OutServer))
	if err != nil {
		return nil, err
	}

	addr := root.Child(node.Address)
	return &Context{
		ID:          root.String(node.FieldID),
		NameShort:   root.String(node.FieldNameShort),
		NameDisplay: root.String(node.FieldNameDisplay),
		Domains:     root.Strings(node.FieldDomains),
		InServer:    in,
		OutServer:   out,
		Address: identity.Identity{
			Full:      addr.String(identity.FieldFull),
			LocalPart: addr.String(identity.FieldLocalPart),
			Domain:    addr.String(identity.FieldDomain),
		},
	}, nil
}

func serverFrom(n *node.Node) (MailServer, error) {
	port, err := n.Int(node.FieldPort)
	if err != nil {
		return MailServer{}, err
	}
	return MailServer{
		Host:       n.String(node.FieldHost),
		Port:       port,
		SocketType: n.String(node.FieldSocketType),
		ServerType: n.String(node.FieldServerType),
		Auth:       n.Strings(node.FieldAuth),
		User:       n.String(node.FieldUser),
	}, nil
}

// Flatten returns the mapping handed to renderers: top-level provider
// fields plus in_server, out_server, and address groups.
func (c *Context) Flatten() map[string]any {
	return map[string]any{
		node.FieldID:          c.ID,
		node.FieldNameShort:   c.NameShort,
		node.FieldNameDisplay: c.NameDisplay,
		node.FieldDomains:     append([]string(nil), c.Domains...),
		node.InServer:         c.InServer.flatten(),
		node.OutServer:        c.OutServer.flatten(),
		node.Address: map[string]any{
			identity.FieldFull:      c.Address.Full,
			identity.FieldLocalPart: c.Address.LocalPart,
			identity.FieldDomain:    c.Address.Domain,
		},
	}
}

func (s MailServer) flatten() map[string]any {
	return map[string]any{
		node.FieldHost:       s.Host,
		node.FieldPort:       s.Port,
		node.FieldSocketType: s.SocketType,
		node.FieldServerType: s.ServerType,
		node.FieldAuth:       append([]string(nil), s.Auth...),
		node.FieldUser:       s.User,
	}
}
