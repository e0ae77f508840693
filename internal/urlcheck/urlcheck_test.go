package urlcheck

import (
	"errors"
	"net"
	"testing"
)

// fakeLookup resolves a fixed host table so tests never touch DNS.
func fakeLookup(table map[string][]string) func(string) ([]net.IP, error) {
	return func(host string) ([]net.IP, error) {
		addrs, ok := table[host]
		if !ok {
			return nil, errors.New("no such host")
		}
		ips := make([]net.IP, 0, len(addrs))
		for _, a := range addrs {
			ips = append(ips, net.ParseIP(a))
		}
		return ips, nil
	}
}

func newTestValidator(allowlist []string, allowPrivate bool) *Validator {
	v := New(allowlist, allowPrivate)
	v.lookup = fakeLookup(map[string][]string{
		"example.com":  {"93.184.216.34"},
		"internal.lan": {"10.0.0.5"},
		"dual.example": {"93.184.216.34", "192.168.1.1"},
		"localhost":    {"127.0.0.1"},
	})
	return v
}

func TestValidate_SchemeRules(t *testing.T) {
	v := newTestValidator(nil, false)

	cases := []struct {
		url  string
		ok   bool
		name string
	}{
		{"https://example.com", true, "https"},
		{"http://example.com", true, "http"},
		{"HTTPS://example.com", true, "uppercase scheme"},
		{"ftp://example.com", false, "ftp"},
		{"file:///etc/passwd", false, "file"},
		{"javascript:alert(1)", false, "javascript"},
		{"chrome://settings", false, "chrome"},
		{"data:text/html,hi", false, "data"},
		{"", false, "empty"},
		{"https://", false, "missing host"},
	}

	for _, tc := range cases {
		err := v.Validate(tc.url)
		if tc.ok && err != nil {
			t.Errorf("%s: expected %q to be valid, got %v", tc.name, tc.url, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: expected %q to be rejected", tc.name, tc.url)
			} else if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("%s: error must wrap ErrInvalidURL, got %v", tc.name, err)
			}
		}
	}
}

func TestValidate_PrivateAddresses(t *testing.T) {
	v := newTestValidator(nil, false)

	rejected := []string{
		"http://127.0.0.1/",
		"http://localhost/",
		"http://10.1.2.3/",
		"http://192.168.0.10/admin",
		"http://172.16.5.5/",
		"http://169.254.169.254/latest/meta-data",
		"http://0.0.0.0/",
		"http://[::1]/",
		"http://internal.lan/",
		"http://dual.example/", // one public, one private A record
	}
	for _, u := range rejected {
		if err := v.Validate(u); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected %q to be rejected as private, got %v", u, err)
		}
	}

	if err := v.Validate("https://example.com/page"); err != nil {
		t.Errorf("public host must pass: %v", err)
	}
	if err := v.Validate("http://93.184.216.34/"); err != nil {
		t.Errorf("public literal IP must pass: %v", err)
	}
}

func TestValidate_AllowPrivate(t *testing.T) {
	v := newTestValidator(nil, true)

	if err := v.Validate("http://127.0.0.1:8080/"); err != nil {
		t.Errorf("AllowPrivate must permit loopback: %v", err)
	}
	if err := v.Validate("ftp://127.0.0.1/"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("AllowPrivate must not relax scheme checks, got %v", err)
	}
}

func TestValidate_Allowlist(t *testing.T) {
	v := newTestValidator([]string{"Example.com", " docs.example.com "}, false)

	if err := v.Validate("https://example.com/x"); err != nil {
		t.Errorf("allowlisted host must pass: %v", err)
	}
	if err := v.Validate("https://docs.example.com/"); err != nil {
		t.Errorf("allowlisted host must pass: %v", err)
	}
	if err := v.Validate("https://other.com/"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("host outside allowlist must be rejected, got %v", err)
	}

	// An allowlisted host bypasses the private-address check.
	v2 := newTestValidator([]string{"internal.lan"}, false)
	if err := v2.Validate("http://internal.lan/tool"); err != nil {
		t.Errorf("explicitly allowlisted private host must pass: %v", err)
	}
}

func TestValidate_UnresolvableHost(t *testing.T) {
	v := newTestValidator(nil, false)
	if err := v.Validate("https://does-not-exist.invalid/"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("unresolvable host must be rejected, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  https://example.com ": "https://example.com",
		"example.com/path":       "https://example.com/path",
		"http://example.com":     "http://example.com",
		"":                       "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
