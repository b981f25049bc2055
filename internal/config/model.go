// internal/config/model.go
//
// Typed service configuration.
//
// Context
// -------
// These structs define the shape of the tree that `loader.go` builds
// from four layers, highest precedence last:
//
//   - built-in defaults                       – confmap,
//   - optional `.env`                         – dotenv values,
//   - `conf/autoconfig.yaml`                  – primary static file,
//   - `AUTOCONFIG_`-prefixed environment vars – highest precedence.
//
// This is the configuration of the service itself.  The mail provider
// data the service answers with lives in the domains source (TOML file
// or MySQL), see internal/source.
//
// Any secret whose string begins with `vault:` is resolved through the
// Vault client after loading, see ResolveSecrets.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.
package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Source section
//

// Source kinds.
const (
	SourceFile  = "file"
	SourceMySQL = "mysql"
)

// Source selects where provider, domain, and user layers come from.
type Source struct {
	Kind         string        `koanf:"kind"          validate:"required,oneof=file mysql"`
	File         string        `koanf:"file"`
	Watch        bool          `koanf:"watch"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=0"`
}

//
// Database section
//

// Database holds the DSN and its secret.
//
// The DSN is kept in YAML so operators can tweak host, port, or flags
// without touching Vault.  The password is usually a `vault:` reference
// injected at runtime, keeping credentials out of flat files.
type Database struct {
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password"`
}

//
// Log section
//

// Log controls the zap logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	Path string `koanf:"path"`
}

//
// Cache section
//

// Cache sizes the rendered-document cache.  Zero disables it.
type Cache struct {
	Size int `koanf:"size" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  The loader discovers `Root` (directory
// holding conf/ or AUTOCONFIG_ROOT) so later code can build absolute paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Source   Source   `koanf:"source"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Cache    Cache    `koanf:"cache"`
	Paths    Paths    `koanf:"-"`
}

// defaults is the lowest-precedence layer.
var defaults = map[string]any{
	"http.listen_addr":     ":8080",
	"http.force_https":     false,
	"source.kind":          SourceFile,
	"source.file":          "domains.toml",
	"source.watch":         true,
	"source.poll_interval": "1m",
	"log.dir":              "logs",
	"log.level":            "info",
	"cache.size":           1024,
}
