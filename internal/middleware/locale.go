package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/ronnie012/assured-life-server/internal/infra/geoip"
)

const (
	localeKey  contextKey = "locale"
	countryKey contextKey = "country"

	defaultLocale = "en"
)

var supportedLocales = []language.Tag{
	language.English,
	language.Bengali,
	language.Spanish,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Locale resolves the request locale and country so responses can be shaped
// for the caller. Locale comes from the X-Locale header when present, then
// Accept-Language; country comes from the GeoIP resolver when configured.
func Locale(resolver geoip.CountryResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = context.WithValue(ctx, localeKey, resolveLocale(r))

			if resolver != nil {
				if code, err := resolver.CountryCode(ClientIP(r)); err == nil && code != "" {
					ctx = context.WithValue(ctx, countryKey, code)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveLocale(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("X-Locale")); header != "" {
		if tag, err := language.Parse(header); err == nil {
			matched, _, _ := localeMatcher.Match(tag)
			base, _ := matched.Base()
			return base.String()
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			matched, _, _ := localeMatcher.Match(tags...)
			base, _ := matched.Base()
			return base.String()
		}
	}
	return defaultLocale
}

// LocaleFromContext returns the resolved locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok && v != "" {
		return v
	}
	return defaultLocale
}

// CountryFromContext returns the resolved ISO country code, if any.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey).(string); ok {
		return v
	}
	return ""
}

// ClientIP extracts the originating client IP, honoring X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return r.RemoteAddr
}
