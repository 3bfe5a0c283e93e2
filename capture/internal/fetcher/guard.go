package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Guard errors.
var (
	ErrUnsafeScheme = errors.New("fetcher: only http and https URLs can be captured")
	ErrPrivateHost  = errors.New("fetcher: URL resolves to a private or loopback address")
)

// CheckURL rejects URLs that are not http(s) and, unless allowPrivate,
// hosts that are or resolve to loopback, private or link-local addresses.
// A DNS failure passes; the fetch itself will fail.
func CheckURL(ctx context.Context, rawURL string, allowPrivate bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("fetcher: invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrUnsafeScheme, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("fetcher: URL %q has no host", rawURL)
	}
	if allowPrivate {
		return nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if private(addr) {
			return fmt.Errorf("%w: %s", ErrPrivateHost, host)
		}
		return nil
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if private(a) {
			return fmt.Errorf("%w: %s -> %s", ErrPrivateHost, host, a)
		}
	}
	return nil
}

func private(a netip.Addr) bool {
	a = a.Unmap()
	return a.IsLoopback() || a.IsPrivate() || a.IsLinkLocalUnicast() ||
		a.IsLinkLocalMulticast() || a.IsUnspecified()
}
