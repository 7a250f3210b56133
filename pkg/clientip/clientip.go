package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from r.RemoteAddr. Proxy headers are not
// read here; the router's RealIP middleware has already copied a trusted
// X-Forwarded-For or X-Real-IP into RemoteAddr when one was sent.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// Anonymize zeroes the host part of an address for logs: the last octet of an
// IPv4 address, the last 80 bits of an IPv6 address. Anything that is not an
// IP is returned unchanged.
func Anonymize(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}
