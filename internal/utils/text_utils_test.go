package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	short := tp.TruncateText("hello", 100)
	assert.Equal(t, "hello", short)

	// Cut point lands inside the multi-byte rune; the partial bytes must go.
	text := strings.Repeat("a", 9) + "é"
	truncated := tp.TruncateText(text, 10)
	assert.True(t, utf8.ValidString(truncated))
	assert.Equal(t, strings.Repeat("a", 9), truncated)

	assert.Equal(t, text, tp.TruncateText(text, 0), "non-positive limit disables truncation")
}

func TestProcessTextBoundsBody(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	body := strings.Repeat("verify your account now ", 1000)
	processed := tp.ProcessText(body, 10000)
	assert.LessOrEqual(t, len(processed), 10000)
	assert.True(t, utf8.ValidString(processed))
}

func TestSanitizeUTF8DropsInvalidBytes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	dirty := "ok\xffstill ok"
	clean := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(clean))
	assert.Equal(t, "okstill ok", clean)
}
