package util

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// UnknownLocation is stored when an IP cannot be resolved to a place.
const UnknownLocation = "Nieznana lokalizacja"

// GeoLocator resolves client IPs to "City/Country" strings using a local
// GeoIP2/GeoLite2 database and an in-memory cache. A locator without a
// database always answers UnknownLocation.
type GeoLocator struct {
	db     *geoip2.Reader
	cache  *cache.Cache
	hits   int64
	misses int64
}

// NewGeoLocator opens the .mmdb file at dbPath. An empty path yields a
// locator that only returns UnknownLocation.
func NewGeoLocator(dbPath string) (*GeoLocator, error) {
	// Cache entries for 24h, purge every hour
	g := &GeoLocator{cache: cache.New(24*time.Hour, time.Hour)}
	if dbPath == "" {
		return g, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	g.db = r
	return g, nil
}

// Close closes the GeoIP DB if opened.
func (g *GeoLocator) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}

// Locate returns "City/Country", "Country" or "City" for ip, falling back to
// UnknownLocation.
func (g *GeoLocator) Locate(ip string) string {
	if g == nil || ip == "" {
		return UnknownLocation
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || !isPublicIP(parsed) {
		return UnknownLocation
	}

	if v, ok := g.cache.Get(ip); ok {
		atomic.AddInt64(&g.hits, 1)
		if s, ok := v.(string); ok {
			return s
		}
	}
	atomic.AddInt64(&g.misses, 1)

	if g.db == nil {
		return UnknownLocation
	}

	rec, err := g.db.City(parsed)
	if err != nil {
		return UnknownLocation
	}

	city := rec.City.Names["en"]
	country := rec.Country.Names["en"]
	if country == "" {
		country = rec.Country.IsoCode
	}

	location := UnknownLocation
	switch {
	case city != "" && country != "":
		location = city + "/" + country
	case country != "":
		location = country
	case city != "":
		location = city
	}

	g.cache.Set(ip, location, cache.DefaultExpiration)
	return location
}

// CacheMetrics returns the cache hits and misses and current cache size.
func (g *GeoLocator) CacheMetrics() (hits int64, misses int64, size int) {
	if g == nil {
		return 0, 0, 0
	}
	return atomic.LoadInt64(&g.hits), atomic.LoadInt64(&g.misses), g.cache.ItemCount()
}
