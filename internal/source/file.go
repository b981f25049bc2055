// internal/source/file.go
//
// TOML domains file loader.
//
// Context
// -------
// The file has three kinds of tables:
//
//	[provider]                 # flat keys plus `domains = [...]`
//	[domain."example.com"]     # overrides for one domain
//	[user."vip@example.com"]   # overrides for one address
//
// Domain and user table names contain dots, so the file is decoded as a
// plain map with go-toml instead of a dotted-key config library.  Values
// are normalized to the kinds the config tree stores (int, string,
// []string).
//
// Notes
// -----
//   - Missing sections decode to empty maps, never nil.
//   - A non-table value under [domain] or [user] is a parse error.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/node"
)

// FileLoader reads a RawConfig from a TOML file on disk.
type FileLoader struct {
	Path string
}

// Load reads and parses the file.
func (l FileLoader) Load(_ context.Context) (*layer.RawConfig, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read domains file: %w", err)
	}
	rc, err := ParseTOML(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Path, err)
	}
	return rc, nil
}

// Describe names the source in logs.
func (l FileLoader) Describe() string { return "file:" + l.Path }

// ParseTOML decodes a domains document.
func ParseTOML(data []byte) (*layer.RawConfig, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	rc := layer.NewRawConfig()
	if p, ok := doc["provider"]; ok {
		tbl, ok := p.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("[provider] must be a table")
		}
		rc.Provider = normalizeTable(tbl)
	}

	var err error
	if rc.Domain, err = scopedTables(doc, "domain"); err != nil {
		return nil, err
	}
	if rc.User, err = scopedTables(doc, "user"); err != nil {
		return nil, err
	}
	return rc, nil
}

// scopedTables returns the named section as scope → table.
func scopedTables(doc map[string]any, section string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	raw, ok := doc[section]
	if !ok {
		return out, nil
	}
	tbl, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("[%s] must be a table", section)
	}
	for scope, v := range tbl {
		inner, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("[%s.%q] must be a table", section, scope)
		}
		out[scope] = normalizeTable(inner)
	}
	return out, nil
}

func normalizeTable(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = node.Normalize(v)
	}
	return out
}
