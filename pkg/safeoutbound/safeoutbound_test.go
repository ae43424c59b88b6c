package safeoutbound_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"marginalia/backend/pkg/safeoutbound"
)

// fixedResolver returns a canned address list for every lookup.
type fixedResolver struct {
	addrs []net.IPAddr
	err   error
	host  string
}

func (r *fixedResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	r.host = host
	if r.err != nil {
		return nil, r.err
	}
	return r.addrs, nil
}

func resolverFor(ips ...string) *fixedResolver {
	addrs := make([]net.IPAddr, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.IPAddr{IP: net.ParseIP(ip)})
	}
	return &fixedResolver{addrs: addrs}
}

func TestIsPublicOutboundURL_AllowsKnownPublicHost(t *testing.T) {
	checker := safeoutbound.New(resolverFor("140.82.114.6"))
	allowed := safeoutbound.NewHostSet("api.github.com")

	ok := checker.IsPublicOutboundURL(context.Background(), "https://api.github.com/repos/org/repo/issues", allowed)
	require.True(t, ok)
}

func TestIsPublicOutboundURL_AllowsTestNetAddress(t *testing.T) {
	checker := safeoutbound.New(resolverFor("203.0.113.5"))
	allowed := safeoutbound.NewHostSet("api.example.com")

	ok := checker.IsPublicOutboundURL(context.Background(), "https://api.example.com/x", allowed)
	require.True(t, ok)
}

func TestIsPublicOutboundURL_RejectsDisallowedResolution(t *testing.T) {
	tests := []struct {
		name string
		ip   string
	}{
		{name: "loopback", ip: "127.0.0.1"},
		{name: "private_10", ip: "10.0.0.8"},
		{name: "private_172", ip: "172.16.4.2"},
		{name: "private_192", ip: "192.168.1.1"},
		{name: "link_local", ip: "169.254.169.254"},
		{name: "multicast", ip: "224.0.0.1"},
		{name: "reserved", ip: "240.0.0.1"},
		{name: "unspecified", ip: "0.0.0.0"},
		{name: "loopback_v6", ip: "::1"},
		{name: "unique_local_v6", ip: "fd12::1"},
		{name: "link_local_v6", ip: "fe80::1"},
		{name: "documentation_v6", ip: "2001:db8::1"},
	}

	allowed := safeoutbound.NewHostSet("api.github.com")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := safeoutbound.New(resolverFor(tc.ip))
			ok := checker.IsPublicOutboundURL(context.Background(), "https://api.github.com/x", allowed)
			require.False(t, ok)
		})
	}
}

func TestIsPublicOutboundURL_OneBadAddressRejectsAll(t *testing.T) {
	// Public record plus a rebound internal record: no partial trust.
	checker := safeoutbound.New(resolverFor("140.82.114.6", "127.0.0.1"))
	allowed := safeoutbound.NewHostSet("api.github.com")

	ok := checker.IsPublicOutboundURL(context.Background(), "https://api.github.com/x", allowed)
	require.False(t, ok)
}

func TestIsPublicOutboundURL_RejectsHostsOutsideAllowlist(t *testing.T) {
	resolver := resolverFor("140.82.114.6")
	checker := safeoutbound.New(resolver)
	allowed := safeoutbound.NewHostSet("api.github.com")

	ok := checker.IsPublicOutboundURL(context.Background(), "https://evil.example.com/x", allowed)
	require.False(t, ok)
	// Non-allowlisted hosts must be rejected before any DNS traffic.
	require.Empty(t, resolver.host)
}

func TestIsPublicOutboundURL_NoSuffixMatching(t *testing.T) {
	checker := safeoutbound.New(resolverFor("140.82.114.6"))
	allowed := safeoutbound.NewHostSet("api.github.com")

	require.False(t, checker.IsPublicOutboundURL(context.Background(), "https://api.github.com.attacker.net/x", allowed))
	require.False(t, checker.IsPublicOutboundURL(context.Background(), "https://sub.api.github.com/x", allowed))
}

func TestIsPublicOutboundURL_CaseInsensitiveHost(t *testing.T) {
	checker := safeoutbound.New(resolverFor("140.82.114.6"))
	allowed := safeoutbound.NewHostSet("API.GitHub.com")

	require.True(t, checker.IsPublicOutboundURL(context.Background(), "https://Api.Github.Com/x", allowed))
}

func TestIsPublicOutboundURL_SchemeAndParseFailures(t *testing.T) {
	checker := safeoutbound.New(resolverFor("140.82.114.6"))
	allowed := safeoutbound.NewHostSet("api.github.com")

	tests := []struct {
		name string
		url  string
	}{
		{name: "http", url: "http://api.github.com/x"},
		{name: "ftp", url: "ftp://api.github.com/x"},
		{name: "no_host", url: "https:///x"},
		{name: "garbage", url: "::not a url::"},
		{name: "empty", url: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.False(t, checker.IsPublicOutboundURL(context.Background(), tc.url, allowed))
		})
	}
}

func TestIsPublicOutboundURL_ResolutionFailureFailsClosed(t *testing.T) {
	checker := safeoutbound.New(&fixedResolver{err: errors.New("no such host")})
	allowed := safeoutbound.NewHostSet("api.github.com")

	require.False(t, checker.IsPublicOutboundURL(context.Background(), "https://api.github.com/x", allowed))
}

func TestIsPublicOutboundURL_EmptyResolutionFailsClosed(t *testing.T) {
	checker := safeoutbound.New(&fixedResolver{})
	allowed := safeoutbound.NewHostSet("api.github.com")

	require.False(t, checker.IsPublicOutboundURL(context.Background(), "https://api.github.com/x", allowed))
}

func TestNewHostSet_TrimsAndLowercases(t *testing.T) {
	set := safeoutbound.NewHostSet(" Archive.org ", "", "WWW.JUSTICE.GOV")
	require.Len(t, set, 2)
	require.True(t, set.Contains("archive.org"))
	require.True(t, set.Contains("www.justice.gov"))
	require.False(t, set.Contains(""))
}
