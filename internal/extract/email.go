package extract

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
)

var (
	// ErrNoProvider is returned when the page hostname matches no
	// supported webmail provider.
	ErrNoProvider = errors.New("page is not a supported webmail client")

	// ErrNoEmailContent is returned when a provider matched but no open
	// message could be located in the DOM.
	ErrNoEmailContent = errors.New("no email content located on page")
)

// emailAddrPattern is the fallback for pulling a sender address out of
// visible text when no explicit attribute carries it.
var emailAddrPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)

// gmailThreadFragments are URL fragment prefixes that indicate an opened
// Gmail conversation.
var gmailThreadFragments = []string{"inbox/", "sent/", "label/"}

// viewingTextThreshold is the minimum body/container text length treated
// as evidence that a message is open.
const viewingTextThreshold = 20

// EmailExtractor detects supported webmail pages and pulls normalized
// email records out of their DOM.
type EmailExtractor struct {
	text        *utils.TextProcessor
	maxBodySize int
	maxLinks    int
	maxLinkText int
	logger      *zap.Logger
}

// NewEmailExtractor creates a new email extractor.
func NewEmailExtractor(text *utils.TextProcessor, maxBodySize, maxLinks, maxLinkText int, logger *zap.Logger) *EmailExtractor {
	return &EmailExtractor{
		text:        text,
		maxBodySize: maxBodySize,
		maxLinks:    maxLinks,
		maxLinkText: maxLinkText,
		logger:      logger,
	}
}

// Detect reports whether the page belongs to a supported provider and
// whether a single message is currently displayed. The "viewing" signal
// is a multi-signal OR: non-trivial body text, a present subject element,
// or (Gmail only) an opened-thread URL fragment. Provider UI changes can
// break any one signal, which is why all of them are consulted.
func (e *EmailExtractor) Detect(pageURL *url.URL, doc *goquery.Document) core.EmailDetection {
	provider, ok := lookupProvider(pageURL.Hostname())
	if !ok {
		return core.EmailDetection{Provider: core.ProviderNone}
	}

	detection := core.EmailDetection{
		IsEmailPage:  true,
		Provider:     provider.Provider,
		ProviderName: provider.DisplayName,
	}

	sel := provider.Selectors
	if textLength(doc, sel.Body) > viewingTextThreshold ||
		textLength(doc, sel.Container) > viewingTextThreshold {
		detection.IsViewingEmail = true
	}
	if doc.Find(sel.Subject).Length() > 0 {
		detection.IsViewingEmail = true
	}
	if provider.Provider == core.ProviderGmail && isGmailThreadFragment(pageURL.Fragment) {
		detection.IsViewingEmail = true
	}

	return detection
}

// Extract pulls a normalized email record from the page. It never panics:
// a provider mismatch or missing content comes back as an error alongside
// the detection, and callers fall back to raw page text.
func (e *EmailExtractor) Extract(pageURL *url.URL, doc *goquery.Document) (*core.ExtractedEmail, core.EmailDetection, error) {
	detection := e.Detect(pageURL, doc)
	if !detection.IsEmailPage {
		return nil, detection, ErrNoProvider
	}
	if !detection.IsViewingEmail {
		return nil, detection, ErrNoEmailContent
	}

	provider, _ := lookupProvider(pageURL.Hostname())
	sel := provider.Selectors

	body := doc.Find(sel.Body).First()
	if body.Length() == 0 {
		body = doc.Find(sel.Container).First()
	}
	if body.Length() == 0 {
		return nil, detection, ErrNoEmailContent
	}

	email := &core.ExtractedEmail{
		Subject: firstText(doc, sel.Subject),
		Sender:  firstText(doc, sel.Sender),
		Date:    firstText(doc, sel.Date),
		Body:    e.text.ProcessText(strings.TrimSpace(body.Text()), e.maxBodySize),
	}
	email.SenderEmail = e.senderAddress(doc, sel)
	email.Links = e.bodyLinks(body)
	email.LinkCount = len(email.Links)
	email.Warnings = core.EmailWarnings{
		HasHiddenLinks:     HasHiddenLinks(body),
		HasMismatchedLinks: HasMismatchedLinks(body),
	}

	e.logger.Debug("Extracted email",
		zap.String("provider", string(detection.Provider)),
		zap.String("sender", email.SenderEmail),
		zap.Int("links", email.LinkCount),
		zap.Bool("hidden_links", email.Warnings.HasHiddenLinks),
		zap.Bool("mismatched_links", email.Warnings.HasMismatchedLinks))

	return email, detection, nil
}

// senderAddress prefers the provider's explicit address attribute and
// falls back to regex-matching an address in the visible sender text.
func (e *EmailExtractor) senderAddress(doc *goquery.Document, sel SelectorBundle) string {
	node := doc.Find(sel.Sender).First()
	if addr, ok := node.Attr(sel.SenderEmailAttr); ok && strings.Contains(addr, "@") {
		return strings.TrimSpace(addr)
	}
	return emailAddrPattern.FindString(node.Text())
}

// bodyLinks collects http(s) anchors from within the body element only,
// capped in count and display-text length.
func (e *EmailExtractor) bodyLinks(body *goquery.Selection) []core.ExtractedLink {
	var links []core.ExtractedLink
	body.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(links) >= e.maxLinks {
			return false
		}
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}
		text := e.text.TruncateText(strings.TrimSpace(s.Text()), e.maxLinkText)
		links = append(links, core.ExtractedLink{URL: href, Text: text})
		return true
	})
	return links
}

func isGmailThreadFragment(fragment string) bool {
	for _, prefix := range gmailThreadFragments {
		if strings.HasPrefix(fragment, prefix) {
			return true
		}
	}
	return false
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func textLength(doc *goquery.Document, selector string) int {
	if selector == "" {
		return 0
	}
	return len(strings.TrimSpace(doc.Find(selector).First().Text()))
}
