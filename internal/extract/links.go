package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/whitelist"
)

// embeddedURLPattern matches http(s) URLs buried in onclick handler text.
var embeddedURLPattern = regexp.MustCompile(`https?://[^\s'"()<>]+`)

// dataURLAttrs are the data attributes scanned for link candidates.
var dataURLAttrs = []string{"data-href", "data-url", "data-link"}

// LinkExtractor scans a page DOM for external http(s) URLs worth
// risk-checking.
type LinkExtractor struct {
	safeDomains *whitelist.Checker
	logger      *zap.Logger
}

// NewLinkExtractor creates a new link extractor.
func NewLinkExtractor(safeDomains *whitelist.Checker, logger *zap.Logger) *LinkExtractor {
	return &LinkExtractor{
		safeDomains: safeDomains,
		logger:      logger,
	}
}

// Extract returns the deduplicated external links of a page in DOM order.
// Candidates come from anchor hrefs, URLs embedded in onclick handlers,
// and data-href/data-url/data-link attributes. Same-origin URLs and
// allow-listed hosts are dropped. Dedup is by exact URL string only, so
// trailing-slash variants of the same address stay distinct.
func (e *LinkExtractor) Extract(doc *goquery.Document, base *url.URL) []core.ExtractedLink {
	seen := make(map[string]struct{})
	var links []core.ExtractedLink

	add := func(raw, text string) {
		candidate := e.normalize(raw, base)
		if candidate == "" {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		links = append(links, core.ExtractedLink{URL: candidate, Text: strings.TrimSpace(text)})
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href, s.Text())
	})

	doc.Find("[onclick]").Each(func(_ int, s *goquery.Selection) {
		onclick, _ := s.Attr("onclick")
		for _, m := range embeddedURLPattern.FindAllString(onclick, -1) {
			add(m, s.Text())
		}
	})

	for _, attr := range dataURLAttrs {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			val, _ := s.Attr(attr)
			add(val, s.Text())
		})
	}

	e.logger.Debug("Extracted page links",
		zap.String("page", base.String()),
		zap.Int("count", len(links)))

	return links
}

// normalize resolves a candidate against the page URL and applies the
// filtering policy. It returns "" for rejected candidates.
func (e *LinkExtractor) normalize(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		u = base.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	// Same-origin links are treated as inherently low-risk.
	if u.Scheme == base.Scheme && strings.EqualFold(u.Host, base.Host) {
		return ""
	}

	if e.safeDomains.IsSafeHost(u.Hostname()) {
		return ""
	}

	return u.String()
}
