package db

import (
	"net/url"
	"regexp"
	"strings"
)

// DriverQualifiedPrefix is the canonical scheme prefix selecting the
// non-blocking driver variant. Canonical URLs use it so the string can be
// shared verbatim with services in other ecosystems; PgxDSN strips it
// before the URL reaches pgx.
const DriverQualifiedPrefix = "postgresql+psycopg://"

// DefaultSSLMode is applied when neither the URL nor the environment
// specifies an SSL mode.
const DefaultSSLMode = "require"

// trailingSlashPattern matches a spurious slash immediately after the last
// path segment, before the query string or end of input.
var trailingSlashPattern = regexp.MustCompile(`(/[^/?#]+)/(\?|$)`)

// SanitizeURL transforms a raw connection string into its canonical form:
// driver-qualified, with a spurious trailing slash after the database name
// removed, and an sslmode query parameter guaranteed to be present
// (defaultSSLMode, or DefaultSSLMode when empty).
//
// Sanitization is best-effort: malformed input that defeats a step passes
// through that step unchanged, never producing an error.
func SanitizeURL(raw string, defaultSSLMode string) string {
	s := raw

	// Force the driver-qualified scheme
	if strings.HasPrefix(s, "postgres://") {
		s = DriverQualifiedPrefix + strings.TrimPrefix(s, "postgres://")
	} else if strings.HasPrefix(s, "postgresql://") {
		s = DriverQualifiedPrefix + strings.TrimPrefix(s, "postgresql://")
	}

	// Remove a trailing slash just after the dbname (before ? or end).
	// Single substitution pass; never loops to a fixpoint.
	s = trailingSlashPattern.ReplaceAllString(s, "${1}${2}")

	// Ensure sslmode is present
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	q := u.Query()
	if !q.Has("sslmode") {
		if defaultSSLMode == "" {
			defaultSSLMode = DefaultSSLMode
		}
		q.Set("sslmode", defaultSSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// PgxDSN converts a canonical driver-qualified URL into the bare
// postgresql scheme pgx expects.
func PgxDSN(canonical string) string {
	if strings.HasPrefix(canonical, DriverQualifiedPrefix) {
		return "postgresql://" + strings.TrimPrefix(canonical, DriverQualifiedPrefix)
	}
	return canonical
}
