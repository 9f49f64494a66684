package archiver

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"dclid":   {},
	"msclkid": {},
	"mc_cid":  {},
	"mc_eid":  {},
	"igshid":  {},
}

// Normalize returns the canonical form of rawURL used as the storage key.
// Normalizing an already normalized URL returns it unchanged.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL '%s': %w", rawURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = normalizeHost(u.Scheme, u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false
	u.RawQuery = stripTrackingParams(u.RawQuery)

	return u.String(), nil
}

func normalizeHost(scheme, host string) string {
	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		hostname, port = host, ""
	}
	hostname = strings.TrimSuffix(strings.ToLower(hostname), ".")
	if !strings.HasPrefix(hostname, "[") && net.ParseIP(hostname) == nil {
		if ascii, err := idna.Lookup.ToASCII(hostname); err == nil {
			hostname = ascii
		}
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port == "" {
		if strings.Contains(hostname, ":") && !strings.HasPrefix(hostname, "[") {
			return "[" + hostname + "]"
		}
		return hostname
	}
	return net.JoinHostPort(hostname, port)
}

// stripTrackingParams removes analytics parameters while keeping the order
// and encoding of everything else.
func stripTrackingParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		key := p
		if i := strings.IndexByte(p, '='); i >= 0 {
			key = p[:i]
		}
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		key = strings.ToLower(key)
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		if _, ok := trackingParams[key]; ok {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "&")
}
