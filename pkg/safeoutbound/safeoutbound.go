// Package safeoutbound validates URLs before the backend makes outbound
// requests on behalf of its own features (issue reporting, corpus
// mirror downloads, blob uploads).
//
// A URL passes only when it is https, its hostname is exactly present
// in the caller's allowlist, and every address the hostname resolves to
// right now is globally routable. Resolution happens at check time so a
// hostname whose records were rebound to an internal address since it
// was allowlisted is still rejected.
package safeoutbound

import (
	"context"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Resolver is the DNS lookup used by the checker. It matches
// *net.Resolver so production code uses net.DefaultResolver and tests
// supply fixed address lists.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// HostSet is an exact-match, case-insensitive hostname allowlist.
// No wildcard or suffix matching: "evil-api.github.com.attacker.net"
// style lookalikes never match.
type HostSet map[string]struct{}

// NewHostSet builds a HostSet from hostnames, lowercasing each.
func NewHostSet(hosts ...string) HostSet {
	set := make(HostSet, len(hosts))
	for _, host := range hosts {
		trimmed := strings.ToLower(strings.TrimSpace(host))
		if trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the lowercased hostname is allowlisted.
func (s HostSet) Contains(host string) bool {
	_, ok := s[strings.ToLower(host)]
	return ok
}

// Checker validates outbound URLs with an injectable resolver.
type Checker struct {
	resolver Resolver
}

// New creates a Checker. A nil resolver uses net.DefaultResolver.
func New(resolver Resolver) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Checker{resolver: resolver}
}

// IsPublicOutboundURL reports whether rawURL is safe to request: https
// scheme, allowlisted hostname, and every resolved address publicly
// routable. Any parse failure, resolution failure, or disallowed
// address fails closed.
func (c *Checker) IsPublicOutboundURL(ctx context.Context, rawURL string, allowed HostSet) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "https" {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return false
	}
	if !allowed.Contains(hostname) {
		return false
	}

	addrs, err := c.resolver.LookupIPAddr(ctx, hostname)
	if err != nil || len(addrs) == 0 {
		return false
	}

	// One disallowed address rejects the hostname entirely; partial
	// trust would let a rebinding attacker pick which record gets used.
	for _, addr := range addrs {
		if !isPublicAddress(addr.IP) {
			return false
		}
	}

	return true
}

// IsPublicOutboundURL validates rawURL against allowed using the system
// resolver.
func IsPublicOutboundURL(ctx context.Context, rawURL string, allowed HostSet) bool {
	return New(nil).IsPublicOutboundURL(ctx, rawURL, allowed)
}

// Special-use ranges that the net.IP predicates below do not cover.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),     // "this network"
	netip.MustParsePrefix("240.0.0.0/4"),   // reserved, incl. broadcast
	netip.MustParsePrefix("100::/64"),      // discard-only
	netip.MustParsePrefix("2001:db8::/32"), // documentation
}

func isPublicAddress(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return false
	}

	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	// Compare v4-mapped v6 addresses against the v4 prefixes.
	addr = addr.Unmap()

	for _, prefix := range reservedPrefixes {
		if prefix.Contains(addr) {
			return false
		}
	}

	return true
}
