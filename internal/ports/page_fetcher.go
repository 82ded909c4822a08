package ports

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher defines the interface for turning a URL into a parsed DOM.
// Implementations differ in whether they execute the page's JavaScript.
type PageFetcher interface {
	// Fetch retrieves pageURL and returns its parsed document.
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}
