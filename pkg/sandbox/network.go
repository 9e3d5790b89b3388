package sandbox

import (
	"net/url"
	"strings"

	"github.com/orinrun/orin/internal/orierr"
)

// NetSandbox restricts which hosts a tool may contact, via allow/deny
// lists, plus a response-size cap (spec.md section 4.3's network
// sandbox).
type NetSandbox struct {
	allow       []string
	deny        []string
	maxBodySize int64
}

// NewNetSandbox builds a network sandbox. An empty allow list means "any
// host not explicitly denied", matching the teacher's tools.web_request
// allowed_hosts/blocked_hosts convention (spec.md section 6.4).
func NewNetSandbox(allow, deny []string, maxBodySize int64) *NetSandbox {
	return &NetSandbox{allow: allow, deny: deny, maxBodySize: maxBodySize}
}

// MaxBodySize returns the configured response-size cap.
func (n *NetSandbox) MaxBodySize() int64 { return n.maxBodySize }

// CheckURL validates rawURL's host against the allow/deny lists.
func (n *NetSandbox) CheckURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return orierr.Wrap(orierr.KindValidation, "sandbox", err)
	}
	return n.CheckHost(u.Hostname())
}

// CheckHost validates host against the allow/deny lists. Deny always
// wins; if an allow list is configured, host must match one of its
// entries (exact match or suffix match on a "*.example.com" pattern).
func (n *NetSandbox) CheckHost(host string) error {
	host = strings.ToLower(host)
	for _, d := range n.deny {
		if hostMatches(host, d) {
			return orierr.Wrap(orierr.KindSecurity, "sandbox", orierr.New(orierr.KindSecurity, "sandbox", "host is denied: "+host))
		}
	}
	if len(n.allow) == 0 {
		return nil
	}
	for _, a := range n.allow {
		if hostMatches(host, a) {
			return nil
		}
	}
	return orierr.Wrap(orierr.KindSecurity, "sandbox", orierr.New(orierr.KindSecurity, "sandbox", "host is not allow-listed: "+host))
}

func hostMatches(host, pattern string) bool {
	pattern = strings.ToLower(pattern)
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:] // ".example.com"
		return strings.HasSuffix(host, suffix) || host == pattern[2:]
	}
	return host == pattern
}
