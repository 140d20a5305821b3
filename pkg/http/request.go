package http

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPResolver finds the originating client address of a request.
// Forwarding headers are honoured only when the direct peer is one of the
// trusted proxy prefixes; otherwise a client could pick its own rate limit
// bucket by setting X-Forwarded-For.
type IPResolver struct {
	trusted []netip.Prefix
}

// NewIPResolver parses the trusted proxy CIDR ranges
func NewIPResolver(trustedProxies []string) (*IPResolver, error) {
	resolver := &IPResolver{}
	for _, cidr := range trustedProxies {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		resolver.trusted = append(resolver.trusted, prefix.Masked())
	}
	return resolver, nil
}

// ClientIP returns the client address for r, or "unknown" when RemoteAddr is empty
func (res *IPResolver) ClientIP(r *http.Request) string {
	peer := remoteAddr(r)
	if peer == "" {
		return "unknown"
	}

	if res == nil || !res.isTrusted(peer) {
		return peer
	}

	// Right-most untrusted hop is the first address a trusted proxy saw
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				continue
			}
			if !res.isTrustedAddr(addr) {
				return addr.String()
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}

	return peer
}

func (res *IPResolver) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return res.isTrustedAddr(addr)
}

func (res *IPResolver) isTrustedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range res.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
