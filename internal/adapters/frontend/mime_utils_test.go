package frontend

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractContentPlainMessage(t *testing.T) {
	msg := parseMessage(t, "Subject: hi\r\n\r\nplain text body\r\n")

	content, err := extractContent(msg)
	require.NoError(t, err)
	assert.Contains(t, content.Text, "text body")
	assert.Empty(t, content.HTML)
}

func TestExtractContentHTMLOnlyMessage(t *testing.T) {
	msg := parseMessage(t, "Subject: hi\r\nContent-Type: text/html; charset=utf-8\r\n\r\n<p>pay now</p>\r\n")

	content, err := extractContent(msg)
	require.NoError(t, err)
	assert.Contains(t, content.HTML, "<p>pay now</p>")
	assert.Equal(t, content.Text, content.HTML, "HTML body doubles as the text to classify")
}

func TestExtractContentMultipart(t *testing.T) {
	raw := "Subject: hi\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain part\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html part</p>\r\n" +
		"--BOUNDARY--\r\n"

	content, err := extractContent(parseMessage(t, raw))
	require.NoError(t, err)
	assert.Contains(t, content.Text, "plain part")
	assert.Contains(t, content.HTML, "<p>html part</p>")
	assert.NotContains(t, content.Text, "html part")
}

func TestExtractContentMultipartHTMLOnly(t *testing.T) {
	raw := "Subject: hi\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>only html</p>\r\n" +
		"--BOUNDARY--\r\n"

	content, err := extractContent(parseMessage(t, raw))
	require.NoError(t, err)
	assert.Contains(t, content.HTML, "only html")
	assert.Equal(t, content.Text, content.HTML, "text falls back to the HTML part")
}
