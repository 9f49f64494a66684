package archiver

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// IsArchivableURL reports whether input is an absolute http(s) URL pointing at a
// public host. Filesystem paths, relative references and local hosts are rejected.
func IsArchivableURL(input string) bool {
	s := strings.TrimSpace(input)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	if u.Opaque != "" {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return isPublicIP(ip)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	host, err = idna.Lookup.ToASCII(host)
	if err != nil {
		return false
	}
	// Single-label hosts such as "intranet" have no registrable domain.
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return false
	}
	return isTLDLabel(host[strings.LastIndex(host, ".")+1:])
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast())
}

// isTLDLabel accepts alphabetic labels and punycode labels ("xn--p1ai").
func isTLDLabel(label string) bool {
	if strings.HasPrefix(label, "xn--") && len(label) > 4 {
		return true
	}
	if label == "" {
		return false
	}
	for _, r := range label {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
