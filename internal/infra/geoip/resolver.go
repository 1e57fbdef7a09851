// Package geoip infers a default content language for admin requests that
// carry no explicit locale, using a MaxMind country database.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when no database was configured.
var ErrUnavailable = errors.New("geoip: resolver unavailable")

// LocaleResolver maps a client IP to a BCP-47 language tag suitable as the
// default for generated content.
type LocaleResolver interface {
	Locale(ip string) (string, error)
}

// countryLocales covers the markets the platform ships localized content
// for. Everything else falls back to the configured default (usually "en").
var countryLocales = map[string]string{
	"TR": "tr",
	"DE": "de",
	"FR": "fr",
	"ES": "es",
	"IT": "it",
	"PT": "pt",
	"BR": "pt-BR",
	"RU": "ru",
	"JP": "ja",
	"KR": "ko",
	"CN": "zh",
	"TW": "zh-TW",
	"SA": "ar",
	"AE": "ar",
	"ID": "id",
	"NL": "nl",
	"PL": "pl",
	"VN": "vi",
}

// Resolver looks up the request country in a GeoIP2 database and maps it to
// a content locale.
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads the GeoIP database at path. An empty path disables geo lookup
// and returns a nil resolver, which callers treat as "no opinion".
func Open(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Locale returns the content locale for the country the IP resolves to.
// Unknown countries return an empty string with no error.
func (r *Resolver) Locale(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup: %w", err)
	}
	if record == nil {
		return "", nil
	}
	return countryLocales[record.Country.IsoCode], nil
}

func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
