// Package clientip extracts the originating client address of a request.
package clientip

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// trusted holds the proxy networks whose forwarding headers are believed.
// Empty means no proxy is trusted and only RemoteAddr counts.
var trusted atomic.Pointer[[]netip.Prefix]

// SetTrustedProxies replaces the set of reverse proxies allowed to report
// the client address through X-Forwarded-For or X-Real-IP. Each entry is an
// IP address or a CIDR block.
func SetTrustedProxies(entries []string) error {
	nets, err := ParseProxies(entries)
	if err != nil {
		return err
	}
	trusted.Store(&nets)
	return nil
}

// ParseProxies parses a list of IP addresses and CIDR blocks. Blank entries
// are skipped.
func ParseProxies(entries []string) ([]netip.Prefix, error) {
	var nets []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			nets = append(nets, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		nets = append(nets, netip.PrefixFrom(a, a.BitLen()))
	}
	return nets, nil
}

// From returns the client IP for r.
// Forwarding headers are honored only when the direct peer is a trusted
// proxy; otherwise the peer address is the client.
func From(r *http.Request) string {
	remote := remoteHost(r.RemoteAddr)
	if !isTrusted(remote) {
		return remote
	}

	// X-Forwarded-For is a comma-separated list; the first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); validIP(ip) {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); validIP(xri) {
		return xri
	}

	return remote
}

func remoteHost(addr string) string {
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		// RemoteAddr might not have a port
		return addr
	}
	return ip
}

func isTrusted(host string) bool {
	nets := trusted.Load()
	if nets == nil || len(*nets) == 0 {
		return false
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range *nets {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func validIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}
