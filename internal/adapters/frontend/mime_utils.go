package frontend

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// messageContent is what the filter pulls out of an inbound message: the
// text used for classification and, when present, the raw HTML part for
// the structural link heuristics.
type messageContent struct {
	Text string
	HTML string
}

// extractContent pulls text and HTML parts from an email message. For
// non-multipart messages the body is used as-is, treated as HTML when the
// content type says so.
func extractContent(msg *mail.Message) (*messageContent, error) {
	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, readErr
		}
		content := &messageContent{Text: string(bodyBytes)}
		if strings.HasPrefix(mediaType, "text/html") {
			content.HTML = content.Text
		}
		return content, nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, readErr
		}
		return &messageContent{Text: string(bodyBytes)}, nil
	}

	content := &messageContent{}
	var textParts bytes.Buffer

	mr := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was already collected rather than failing the
			// whole message.
			break
		}

		partType := part.Header.Get("Content-Type")
		partBytes, err := io.ReadAll(part)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(partType, "text/plain"):
			textParts.Write(partBytes)
			textParts.WriteString("\n")
		case strings.HasPrefix(partType, "text/html"):
			if content.HTML == "" {
				content.HTML = string(partBytes)
			}
		}
	}

	content.Text = textParts.String()
	if content.Text == "" && content.HTML != "" {
		content.Text = content.HTML
	}
	return content, nil
}
