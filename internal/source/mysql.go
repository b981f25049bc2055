// internal/source/mysql.go
//
// Database-backed layers.
//
// Context
// -------
// Operators who manage mailboxes in MySQL can keep overrides next to the
// accounts instead of in a file.  Every setting is one row:
//
//	layer  ENUM('provider','domain','user')
//	scope  VARCHAR   -- "" for provider, domain name, or full address
//	name   VARCHAR   -- flat key, e.g. in_host
//	value  TEXT      -- JSON: "imap.example.com", 993, ["OAuth2"]
//
// The whole table is read in one query per load; it is small and the
// Store keeps the result until the next poll.
//
// Notes
// -----
//   - Values that are not valid JSON are taken as plain strings, so
//     hand-edited rows like `imap.example.com` still work.
//   - Unknown layers are skipped with a warning rather than failing the
//     load.
package source

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/node"
)

// Layer names stored in the `layer` column.
const (
	LayerProvider = "provider"
	LayerDomain   = "domain"
	LayerUser     = "user"
)

const settingsQuery = `
	SELECT  layer, scope, name, value
	FROM    autoconfig_setting
	ORDER   BY layer, scope, name`

// MySQLLoader reads a RawConfig from the autoconfig_setting table.
type MySQLLoader struct {
	DB *sqlx.DB
}

type settingRow struct {
	Layer string `db:"layer"`
	Scope string `db:"scope"`
	Name  string `db:"name"`
	Value string `db:"value"`
}

// Load runs the settings query and folds the rows into a RawConfig.
func (l MySQLLoader) Load(ctx context.Context) (*layer.RawConfig, error) {
	rows := make([]settingRow, 0, 64)
	if err := l.DB.SelectContext(ctx, &rows, settingsQuery); err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}

	rc := layer.NewRawConfig()
	for _, r := range rows {
		v := decodeValue(r.Value)
		switch r.Layer {
		case LayerProvider:
			rc.Provider[r.Name] = v
		case LayerDomain:
			put(rc.Domain, r.Scope, r.Name, v)
		case LayerUser:
			put(rc.User, r.Scope, r.Name, v)
		default:
			zap.S().Warnw("unknown settings layer", "layer", r.Layer, "scope", r.Scope, "name", r.Name)
		}
	}
	return rc, nil
}

// Describe names the source in logs.
func (l MySQLLoader) Describe() string { return "mysql:autoconfig_setting" }

func put(m map[string]map[string]any, scope, name string, v any) {
	tbl, ok := m[scope]
	if !ok {
		tbl = make(map[string]any)
		m[scope] = tbl
	}
	tbl[name] = v
}

// decodeValue turns a JSON cell into a tree value.
func decodeValue(raw string) any {
	if !gjson.Valid(raw) {
		return raw
	}
	return node.Normalize(gjson.Parse(raw).Value())
}
