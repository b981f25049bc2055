package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[provider]
id = "example"
name_short = "Example"
name_display = "Example Mail"
domains = ["example.com", "example.net"]
in_host = "imap.example.com"
in_port = 993
in_socket_type = "SSL"
out_auth = ["password-cleartext", "OAuth2"]

[domain."example.org"]
in_host = "mail.example.org"

[user."vip@example.com"]
in_host = "vip.example.com"
in_user = "##EMAILLOCALPART##"
`

func TestParseTOML(t *testing.T) {
	t.Parallel()

	rc, err := ParseTOML([]byte(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "example", rc.Provider["id"])
	assert.Equal(t, 993, rc.Provider["in_port"])
	assert.Equal(t, []string{"example.com", "example.net"}, rc.ServedDomains())
	assert.Equal(t, []string{"password-cleartext", "OAuth2"}, rc.Provider["out_auth"])

	require.Contains(t, rc.Domain, "example.org")
	assert.Equal(t, "mail.example.org", rc.Domain["example.org"]["in_host"])

	require.Contains(t, rc.User, "vip@example.com")
	assert.Equal(t, "##EMAILLOCALPART##", rc.User["vip@example.com"]["in_user"])
}

func TestParseTOML_MissingSections(t *testing.T) {
	t.Parallel()

	rc, err := ParseTOML([]byte(`[provider]
domains = ["a.test"]`))
	require.NoError(t, err)

	assert.NotNil(t, rc.Domain)
	assert.NotNil(t, rc.User)
	assert.Empty(t, rc.Domain)
}

func TestParseTOML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", "[provider\nid = 1"},
		{"provider not table", `provider = "x"`},
		{"domain entry not table", "[domain]\n\"example.com\" = 1"},
		{"user section not table", `user = 3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTOML([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestFileLoader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "domains.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	rc, err := FileLoader{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Example", rc.Provider["name_short"])

	_, err = FileLoader{Path: filepath.Join(dir, "missing.toml")}.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
