package util

import (
	"net"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// IPLocation is the resolved place of a client address.
type IPLocation struct {
	City    string
	Country string
}

// String formats the location as "City/Country", or whichever part is known.
func (l IPLocation) String() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + "/" + l.Country
	case l.Country != "":
		return l.Country
	default:
		return l.City
	}
}

var (
	geoipMu    sync.RWMutex
	geoipDB    *geoip2.Reader
	geoipCache = cache.New(24*time.Hour, time.Hour)
)

// InitGeoIP opens the GeoIP2/GeoLite2 .mmdb file at dbPath.
// An empty path leaves lookups disabled.
func InitGeoIP(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoipMu.Lock()
	geoipDB = r
	geoipMu.Unlock()
	geoipCache.Flush()
	return nil
}

// CloseGeoIP closes the GeoIP DB if opened.
func CloseGeoIP() {
	geoipMu.Lock()
	defer geoipMu.Unlock()
	if geoipDB != nil {
		_ = geoipDB.Close()
		geoipDB = nil
	}
}

// GetIPLocation resolves ip through the local GeoIP database, caching results.
// Private, loopback and unparsable addresses resolve to an empty location.
func GetIPLocation(ip string) IPLocation {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return IPLocation{}
	}

	if v, ok := geoipCache.Get(ip); ok {
		if loc, ok := v.(IPLocation); ok {
			return loc
		}
	}

	geoipMu.RLock()
	db := geoipDB
	geoipMu.RUnlock()
	if db == nil {
		return IPLocation{}
	}

	rec, err := db.City(parsed)
	if err != nil {
		return IPLocation{}
	}

	loc := IPLocation{
		City:    rec.City.Names["en"],
		Country: rec.Country.Names["en"],
	}
	if loc.Country == "" {
		loc.Country = rec.Country.IsoCode
	}

	geoipCache.Set(ip, loc, cache.DefaultExpiration)
	return loc
}
