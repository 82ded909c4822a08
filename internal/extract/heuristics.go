package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minVisibleSize is the rendered box / font size below which an anchor is
// treated as invisible.
const minVisibleSize = 2.0

// HasHiddenLinks reports whether any anchor inside the body is rendered
// invisibly: display:none, visibility:hidden, opacity:0, a sub-2px font,
// or a box smaller than 2x2 px. Invisible anchors are a common phishing
// obfuscation technique.
func HasHiddenLinks(body *goquery.Selection) bool {
	hidden := false
	body.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isHiddenAnchor(s) {
			hidden = true
			return false
		}
		return true
	})
	return hidden
}

func isHiddenAnchor(s *goquery.Selection) bool {
	style := parseInlineStyle(s)

	if style["display"] == "none" || style["visibility"] == "hidden" {
		return true
	}
	if opacity, ok := style["opacity"]; ok {
		if v, err := strconv.ParseFloat(opacity, 64); err == nil && v == 0 {
			return true
		}
	}
	if size, ok := parsePixels(style["font-size"]); ok && size < minVisibleSize {
		return true
	}

	width, wok := dimension(s, style, "width")
	height, hok := dimension(s, style, "height")
	if wok && hok && width < minVisibleSize && height < minVisibleSize {
		return true
	}

	return false
}

// HasMismatchedLinks reports whether any anchor's visible text is itself a
// URL whose hostname differs from the href's hostname. A suffix match in
// either direction (one host being a subdomain of the other) is treated
// as not mismatched.
func HasMismatchedLinks(body *goquery.Selection) bool {
	mismatched := false
	body.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if isMismatchedLink(strings.TrimSpace(s.Text()), strings.TrimSpace(href)) {
			mismatched = true
			return false
		}
		return true
	})
	return mismatched
}

func isMismatchedLink(text, href string) bool {
	textHost := hostOf(text)
	if textHost == "" {
		// Visible text is not URL-shaped; nothing to compare.
		return false
	}
	hrefHost := hostOf(href)
	if hrefHost == "" {
		return false
	}
	if textHost == hrefHost {
		return false
	}
	if strings.HasSuffix(textHost, "."+hrefHost) || strings.HasSuffix(hrefHost, "."+textHost) {
		return false
	}
	return true
}

// hostOf parses the hostname out of URL-shaped text. www.-prefixed text
// without a scheme counts as URL-shaped.
func hostOf(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.HasPrefix(lower, "www."):
		raw = "http://" + raw
	default:
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// parseInlineStyle splits an inline style attribute into a property map.
// Fixture and fetched HTML carry styling inline, so this stands in for
// the computed style a live browser would supply.
func parseInlineStyle(s *goquery.Selection) map[string]string {
	style := make(map[string]string)
	raw, ok := s.Attr("style")
	if !ok {
		return style
	}
	for _, decl := range strings.Split(raw, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		style[strings.ToLower(strings.TrimSpace(parts[0]))] = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	return style
}

func parsePixels(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	value = strings.TrimSuffix(value, "px")
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dimension resolves an anchor's width or height from inline style first,
// then the HTML attribute.
func dimension(s *goquery.Selection, style map[string]string, name string) (float64, bool) {
	if v, ok := parsePixels(style[name]); ok {
		return v, true
	}
	if attr, ok := s.Attr(name); ok {
		return parsePixels(attr)
	}
	return 0, false
}
