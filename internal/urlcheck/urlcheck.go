// Package urlcheck guards every outbound navigation. It rejects URLs with
// unexpected schemes, URLs resolving to private or loopback addresses, and
// hosts outside the configured allowlist.
package urlcheck

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidURL is wrapped by all validation failures.
var ErrInvalidURL = errors.New("invalid url")

// Validator holds the process-wide URL policy. The zero policy allows any
// public http(s) host.
type Validator struct {
	allowlist    map[string]struct{}
	allowPrivate bool

	// lookup resolves a hostname; replaced in tests.
	lookup func(host string) ([]net.IP, error)
}

func New(allowlist []string, allowPrivate bool) *Validator {
	v := &Validator{
		allowPrivate: allowPrivate,
		lookup:       net.LookupIP,
	}
	if len(allowlist) > 0 {
		v.allowlist = make(map[string]struct{}, len(allowlist))
		for _, h := range allowlist {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" {
				v.allowlist[h] = struct{}{}
			}
		}
	}
	return v
}

// Normalize trims whitespace and defaults the scheme to https when absent.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

// Validate checks raw against the policy. It returns nil for acceptable
// URLs and an error wrapping ErrInvalidURL otherwise.
func (v *Validator) Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	if v.allowed(host) {
		return nil
	}

	if len(v.allowlist) > 0 {
		return fmt.Errorf("%w: host %q not in allowlist", ErrInvalidURL, host)
	}

	if v.allowPrivate {
		return nil
	}

	ips, err := v.resolve(host)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve host %q: %v", ErrInvalidURL, host, err)
	}
	for _, ip := range ips {
		if isPrivate(ip) {
			return fmt.Errorf("%w: host %q resolves to private address %s", ErrInvalidURL, host, ip)
		}
	}

	return nil
}

func (v *Validator) allowed(host string) bool {
	if v.allowlist == nil {
		return false
	}
	_, ok := v.allowlist[host]
	return ok
}

func (v *Validator) resolve(host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	return v.lookup(host)
}

func isPrivate(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
