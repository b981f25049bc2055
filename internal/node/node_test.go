package node

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderBuild_Defaults(t *testing.T) {
	t.Parallel()

	root := Provider.Build()

	assert.Equal(t, "", root.String(FieldID))
	assert.Equal(t, []string{}, root.Value(FieldDomains))

	in := root.Child(InServer)
	require.NotNil(t, in)
	assert.Equal(t, "in_", in.Prefix)
	port, err := in.Int(FieldPort)
	require.NoError(t, err)
	assert.Equal(t, 143, port)
	assert.Equal(t, "imap", in.String(FieldServerType))
	assert.Equal(t, DefaultSocketType, in.String(FieldSocketType))
	assert.Equal(t, DefaultUser, in.String(FieldUser))
	assert.Equal(t, DefaultAuth, in.Strings(FieldAuth))

	out := root.Child(OutServer)
	require.NotNil(t, out)
	assert.Equal(t, "out_", out.Prefix)
	port, err = out.Int(FieldPort)
	require.NoError(t, err)
	assert.Equal(t, 587, port)
	assert.Equal(t, "smtp", out.String(FieldServerType))

	addr := root.Child(Address)
	require.NotNil(t, addr)
	assert.Equal(t, Address, addr.Source)
}

func TestBuild_DoesNotShareDefaults(t *testing.T) {
	t.Parallel()

	a := Provider.Build()
	b := Provider.Build()

	f, ok := a.Child(InServer).Field(FieldAuth)
	require.True(t, ok)
	f.Value.([]string)[0] = "mutated"

	assert.Equal(t, "password-cleartext", b.Child(InServer).Strings(FieldAuth)[0])
	assert.Equal(t, "password-cleartext", DefaultAuth[0])
}

func TestCheckDisjoint(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckDisjoint(Provider.Build()))

	clash := Schema{
		Name:     "root",
		Fields:   []FieldSpec{{"in_host", ""}},
		Children: []Schema{Incoming},
	}
	assert.Error(t, CheckDisjoint(clash.Build()))
}

func TestWalk_ChildrenFirst(t *testing.T) {
	t.Parallel()

	var order []string
	Provider.Build().Walk(func(n *Node) { order = append(order, n.Name) })

	assert.Equal(t, []string{InServer, OutServer, Address, "provider"}, order)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int64", int64(993), 993},
		{"whole float", float64(465), 465},
		{"fraction", 1.5, 1.5},
		{"uint64", uint64(587), 587},
		{"uint64 overflow", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float overflow", 1e19, 1e19},
		{"float underflow", -1e19, -1e19},
		{"strings", []any{"a", "b"}, []string{"a", "b"}},
		{"mixed list", []any{"a", int64(1)}, []any{"a", int64(1)}},
		{"string", "x", "x"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "143", Format(143))
	assert.Equal(t, "a,b", Format([]string{"a", "b"}))
	assert.Equal(t, "x", Format("x"))
	assert.Equal(t, "", Format(nil))
}

func TestAccessors_ScalarKinds(t *testing.T) {
	t.Parallel()

	n := &Node{Name: "in_server", Fields: []*Field{
		{Name: "id", Value: 42},
		{Name: "port", Value: "993"},
		{Name: "padded", Value: " 465 "},
		{Name: "auth", Value: "password-encrypted"},
		{Name: "empty", Value: ""},
		{Name: "absent", Value: nil},
	}}

	assert.Equal(t, "42", n.String("id"))
	assert.Equal(t, "", n.String("absent"))

	port, err := n.Int("port")
	require.NoError(t, err)
	assert.Equal(t, 993, port)

	port, err = n.Int("padded")
	require.NoError(t, err)
	assert.Equal(t, 465, port)

	port, err = n.Int("absent")
	require.NoError(t, err)
	assert.Zero(t, port)

	assert.Equal(t, []string{"password-encrypted"}, n.Strings("auth"))
	assert.Equal(t, []string{"42"}, n.Strings("id"))
	assert.Nil(t, n.Strings("empty"))
	assert.Nil(t, n.Strings("absent"))
}

func TestInt_RejectsNonNumbers(t *testing.T) {
	t.Parallel()

	n := &Node{Name: "out_server", Fields: []*Field{
		{Name: "port", Value: "imap.example.com"},
		{Name: "list", Value: []string{"1"}},
	}}

	_, err := n.Int("port")
	var fte *FieldTypeError
	require.True(t, errors.As(err, &fte))
	assert.Equal(t, "out_server", fte.Node)
	assert.Equal(t, "port", fte.Field)
	assert.Contains(t, err.Error(), "imap.example.com")

	_, err = n.Int("list")
	assert.True(t, errors.As(err, &fte))
}
