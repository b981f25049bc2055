//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (client fingerprint, IP + geolocation, and timestamp) for logging and
//  metrics.  These structs are inert.  They contain no pointers to
//  database handles or large buffers, so they are safe to log.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Raw    string // Entire User-Agent header
	Client string // "Thunderbird", "K-9", "Firefox", "Unknown", ...
	OS     string // "Linux", "Android", "Windows", ...
	Device string // "Desktop", "Phone", "Tablet", ...
	IsBot  bool
}

// Geo holds IP-based geolocation hints.  Empty when no database is
// configured or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is an optional MaxMind handle, safe for concurrent reads.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database.  An empty path disables geo
// lookups.
func InitGeo(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open GeoLite2 DB: %w", err)
	}
	geoReader = r
	return nil
}

// CloseGeo releases the MaxMind handle.
func CloseGeo() {
	if geoReader != nil {
		_ = geoReader.Close()
		geoReader = nil
	}
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// mailClients are matched before uasurfer, which only knows browsers.
var mailClients = []struct{ token, name string }{
	{"Thunderbird/", "Thunderbird"},
	{"Betterbird/", "Betterbird"},
	{"K-9", "K-9"},
	{"FairEmail", "FairEmail"},
	{"Evolution/", "Evolution"},
	{"SeaMonkey/", "SeaMonkey"},
}

// parseUA converts a raw header into our UA struct.
func parseUA(raw string) UA {
	u := uasurfer.Parse(raw)

	client := ""
	for _, mc := range mailClients {
		if strings.Contains(raw, mc.token) {
			client = mc.name
			break
		}
	}
	if client == "" {
		client = strings.TrimPrefix(u.Browser.Name.String(), "Browser")
	}

	return UA{
		Raw:    raw,
		Client: client,
		OS:     strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device: deviceTypeToString(u.DeviceType),
		IsBot:  u.IsBot(),
	}
}

// deviceTypeToString maps uasurfer.DeviceType to a user-friendly string.
func deviceTypeToString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// lookupGeo resolves ip against the optional database.
func lookupGeo(ip net.IP) Geo {
	g := Geo{IP: ip}
	if geoReader == nil || ip == nil {
		return g
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	g.City = rec.City.Names["en"]
	return g
}
