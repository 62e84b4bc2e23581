package tenant

import (
	"regexp"
	"strings"
)

const (
	// MaxSubdomainLength keeps candidate keys DNS-compatible.
	MaxSubdomainLength = 63
)

// subdomainPattern ensures DNS-safe labels: alphanumeric start, hyphens allowed inside.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Resolver maps a raw host header to a candidate tenant key.
// Empty string means "no tenant". Resolvers are pure and cannot fail.
type Resolver func(host string) string

// NewSubdomainResolver returns a Resolver that extracts the tenant key from
// the leftmost subdomain label under baseDomain.
//
//	NewSubdomainResolver("ejemplo.com")("acme.ejemplo.com:8000") == "acme"
//	NewSubdomainResolver("ejemplo.com")("ejemplo.com") == ""
//	NewSubdomainResolver("localhost")("acme.localhost:8000") == "acme"
//
// The whole host is lowercased and one trailing dot is stripped before
// matching. For multi-label subdomains (a.b.ejemplo.com) only the leftmost
// label is taken; that is a deliberate simplification, not an error.
func NewSubdomainResolver(baseDomain string) Resolver {
	base := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(baseDomain), "."))

	return func(host string) string {
		host = strings.ToLower(strings.TrimSpace(host))

		// Remove port if present.
		if idx := strings.LastIndexByte(host, ':'); idx != -1 {
			host = host[:idx]
		}
		host = strings.TrimSuffix(host, ".")

		if host == "" || base == "" || host == base {
			return ""
		}
		if !strings.HasSuffix(host, "."+base) {
			return ""
		}

		rest := strings.TrimSuffix(host, "."+base)
		key := rest
		if idx := strings.IndexByte(rest, '.'); idx != -1 {
			key = rest[:idx]
		}

		if !isValidSubdomain(key) {
			return ""
		}
		return key
	}
}

func isValidSubdomain(key string) bool {
	if key == "" || len(key) > MaxSubdomainLength {
		return false
	}
	return subdomainPattern.MatchString(key)
}

// NormalizeSubdomain lowercases and trims a subdomain key the way the
// registry stores it. Returns the normalized key and whether it is valid.
func NormalizeSubdomain(key string) (string, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	return key, isValidSubdomain(key)
}
