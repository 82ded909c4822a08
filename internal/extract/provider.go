package extract

import (
	"regexp"

	"github.com/phishguard/phishguard/internal/core"
)

// SelectorBundle is the per-provider table of CSS selectors pointing at
// the regions of the webmail DOM that hold a displayed message.
type SelectorBundle struct {
	Container       string
	Subject         string
	Sender          string
	SenderEmailAttr string
	Body            string
	Date            string
}

// ProviderConfig ties a webmail vendor to its hostname pattern and
// selector bundle. These tables are static configuration; they drift as
// provider UIs change and are updated by hand, not inferred.
type ProviderConfig struct {
	Provider    core.Provider
	DisplayName string
	HostPattern *regexp.Regexp
	Selectors   SelectorBundle
}

var providerTable = []ProviderConfig{
	{
		Provider:    core.ProviderGmail,
		DisplayName: "Gmail",
		HostPattern: regexp.MustCompile(`(^|\.)mail\.google\.com$`),
		Selectors: SelectorBundle{
			Container:       `div[role="main"]`,
			Subject:         `h2.hP`,
			Sender:          `span.gD`,
			SenderEmailAttr: "email",
			Body:            `div.a3s`,
			Date:            `span.g3`,
		},
	},
	{
		Provider:    core.ProviderOutlook,
		DisplayName: "Outlook",
		HostPattern: regexp.MustCompile(`(^|\.)outlook\.(live|office)\.com$`),
		Selectors: SelectorBundle{
			Container:       `div[role="main"]`,
			Subject:         `span[role="heading"]`,
			Sender:          `span.OZZZK`,
			SenderEmailAttr: "title",
			Body:            `div[aria-label="Message body"]`,
			Date:            `div[data-testid="SentReceivedSavedTime"]`,
		},
	},
	{
		Provider:    core.ProviderYahoo,
		DisplayName: "Yahoo Mail",
		HostPattern: regexp.MustCompile(`(^|\.)mail\.yahoo\.com$`),
		Selectors: SelectorBundle{
			Container:       `div[data-test-id="message-view-container"]`,
			Subject:         `span[data-test-id="message-group-subject-text"]`,
			Sender:          `span[data-test-id="message-from"]`,
			SenderEmailAttr: "title",
			Body:            `div[data-test-id="message-view-body-content"]`,
			Date:            `span[data-test-id="message-date"]`,
		},
	},
}

// lookupProvider matches a hostname against the provider table.
func lookupProvider(host string) (ProviderConfig, bool) {
	for _, p := range providerTable {
		if p.HostPattern.MatchString(host) {
			return p, true
		}
	}
	return ProviderConfig{}, false
}
