// Package trust implements the origin allow-list consulted before any
// transfer is initiated. A false result means "do not proceed"; it is a
// policy decision, never a retryable condition.
package trust

import (
	"net/url"
	"strings"
)

// DefaultDomains is the stock allow-list of model-hosting origins.
var DefaultDomains = []string{
	"huggingface.co",
	"civitai.com",
	"github.com",
	"cdn.discordapp.com",
	"pixeldrain.com",
	"replicate.delivery",
}

// Policy evaluates whether a resource origin may be fetched.
type Policy struct {
	domains []string
}

// NewPolicy builds a policy from the given domain list. Domains are matched
// case-insensitively, either exactly or as a suffix (any subdomain).
// A nil or empty list yields a policy that trusts nothing.
func NewPolicy(domains []string) *Policy {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Policy{domains: normalized}
}

// IsTrusted reports whether rawURL points at an allow-listed origin.
// Fails closed: malformed input or a URL without a hostname is untrusted.
func (p *Policy) IsTrusted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range p.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
