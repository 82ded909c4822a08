package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasHiddenLinks(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		hidden bool
	}{
		{
			name:   "display none",
			html:   `<a href="http://evil.example.org" style="display:none">x</a>`,
			hidden: true,
		},
		{
			name:   "visibility hidden",
			html:   `<a href="http://evil.example.org" style="visibility: hidden">x</a>`,
			hidden: true,
		},
		{
			name:   "zero opacity",
			html:   `<a href="http://evil.example.org" style="opacity:0">x</a>`,
			hidden: true,
		},
		{
			name:   "sub-pixel font",
			html:   `<a href="http://evil.example.org" style="font-size:1px">x</a>`,
			hidden: true,
		},
		{
			name:   "tiny box from style",
			html:   `<a href="http://evil.example.org" style="width:1px;height:1px">x</a>`,
			hidden: true,
		},
		{
			name:   "tiny box from attributes",
			html:   `<a href="http://evil.example.org" width="1" height="1">x</a>`,
			hidden: true,
		},
		{
			name:   "small width alone is visible",
			html:   `<a href="http://evil.example.org" style="width:1px">x</a>`,
			hidden: false,
		},
		{
			name:   "ordinary link",
			html:   `<a href="http://example.com" style="color:blue">x</a>`,
			hidden: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := parseDoc(t, "<html><body>"+tc.html+"</body></html>").Find("body")
			assert.Equal(t, tc.hidden, HasHiddenLinks(body))
		})
	}
}

func TestHasMismatchedLinks(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		mismatched bool
	}{
		{
			name:       "text URL points elsewhere",
			html:       `<a href="http://evil.example.org/x">http://bank.example.com/login</a>`,
			mismatched: true,
		},
		{
			name:       "www-prefixed text counts as a URL",
			html:       `<a href="http://evil.example.org/x">www.bank.example.com</a>`,
			mismatched: true,
		},
		{
			name:       "matching hosts",
			html:       `<a href="https://bank.example.com/login">https://bank.example.com/login</a>`,
			mismatched: false,
		},
		{
			name:       "href is subdomain of text host",
			html:       `<a href="http://login.bank.example.com/">http://bank.example.com</a>`,
			mismatched: false,
		},
		{
			name:       "text is subdomain of href host",
			html:       `<a href="http://bank.example.com/">http://login.bank.example.com</a>`,
			mismatched: false,
		},
		{
			name:       "plain text is not compared",
			html:       `<a href="http://evil.example.org/x">Click here to verify</a>`,
			mismatched: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := parseDoc(t, "<html><body>"+tc.html+"</body></html>").Find("body")
			assert.Equal(t, tc.mismatched, HasMismatchedLinks(body))
		})
	}
}
