package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultSafeDomains is the built-in allow-list of major platforms whose
// links are skipped during page scans. This is a false-positive
// suppressor, not a security guarantee.
var DefaultSafeDomains = []string{
	"google.com",
	"youtube.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"instagram.com",
	"wikipedia.org",
	"amazon.com",
	"apple.com",
	"microsoft.com",
	"github.com",
	"dropbox.com",
	"zoom.us",
}

// Checker answers whether a hostname belongs to the safe-domain allow-list.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new allow-list checker.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, len(domains))
	for i, domain := range domains {
		normalized[i] = strings.ToLower(strings.TrimSpace(domain))
	}

	if len(normalized) > 0 && logger != nil {
		logger.Debug("Initialized safe-domain checker", zap.Int("domains", len(normalized)))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsSafeHost reports whether host equals, or is a subdomain of, any
// allow-listed domain.
func (c *Checker) IsSafeHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}

	for _, domain := range c.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Domains returns the normalized allow-list.
func (c *Checker) Domains() []string {
	return c.domains
}
