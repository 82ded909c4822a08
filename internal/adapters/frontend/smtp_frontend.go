package frontend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/extract"
)

// SMTPFrontend is a content-filter frontend: it receives mail over SMTP,
// classifies it, stamps X-Phish-* headers, and relays the message onward.
// It is the passive-monitoring surface of the scanner.
type SMTPFrontend struct {
	service        *core.ScanService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockMalicious bool
	statusHeader   string
	scoreHeader    string
	reasonHeader   string
	relayAddr      string
	relayPort      int
	relayEnabled   bool
}

// NewSMTPFrontend creates a new SMTP content-filter frontend.
func NewSMTPFrontend(
	service *core.ScanService,
	logger *zap.Logger,
	listenAddr string,
	blockMalicious bool,
	statusHeader string,
	scoreHeader string,
	reasonHeader string,
	relayAddr string,
	relayPort int,
	relayEnabled bool,
) *SMTPFrontend {
	return &SMTPFrontend{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockMalicious: blockMalicious,
		statusHeader:   statusHeader,
		scoreHeader:    scoreHeader,
		reasonHeader:   reasonHeader,
		relayAddr:      relayAddr,
		relayPort:      relayPort,
		relayEnabled:   relayEnabled,
	}
}

// Start starts the SMTP server.
func (f *SMTPFrontend) Start() error {
	f.server = smtp.NewServer(&smtpBackend{frontend: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP frontend starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server.
func (f *SMTPFrontend) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// relay sends the stamped message to the configured upstream.
func (f *SMTPFrontend) relay(sender string, recipients []string, emailData []byte) error {
	relayAddr := fmt.Sprintf("%s:%d", f.relayAddr, f.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface.
type smtpBackend struct {
	frontend *SMTPFrontend
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		frontend:   b.frontend,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface.
type smtpSession struct {
	frontend   *SMTPFrontend
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *smtpSession) Logout() error {
	return nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message, stamps verdict headers, and relays.
func (s *smtpSession) Data(r io.Reader) error {
	f := s.frontend

	rawData, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	content, err := extractContent(msg)
	if err != nil {
		f.logger.Error("Failed to extract message content", zap.Error(err))
		return err
	}
	subject := msg.Header.Get("Subject")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, analysisErr := f.service.ScanText(ctx, content.Text, subject, s.sender)
	if analysisErr != nil {
		f.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", s.sender))

		// Never drop mail over a classifier outage; pass it through with
		// an error marker instead.
		result = &core.ClassificationResult{
			Classification: core.ClassificationSafe,
			RiskScore:      0,
			Explanation:    fmt.Sprintf("Error during analysis: %v", analysisErr),
			AnalyzedAt:     time.Now(),
			Source:         "error",
		}
	}

	reason := result.Explanation
	if warning := s.htmlWarnings(content.HTML); warning != "" {
		reason = strings.TrimSpace(reason + " " + warning)
	}

	if result.Classification == core.ClassificationMalicious && f.blockMalicious && analysisErr == nil {
		f.logger.Info("Rejecting malicious email",
			zap.String("from", s.sender),
			zap.Float64("score", result.RiskScore),
			zap.String("reason", reason))
		return fmt.Errorf("550 Rejected as phishing (score: %.0f)", result.RiskScore)
	}

	var stamped bytes.Buffer
	fmt.Fprintf(&stamped, "%s: %s\r\n", f.statusHeader, result.Classification)
	fmt.Fprintf(&stamped, "%s: %.0f\r\n", f.scoreHeader, result.RiskScore)
	if reason != "" {
		fmt.Fprintf(&stamped, "%s: %s\r\n", f.reasonHeader, sanitizeHeader(reason))
	}
	stamped.Write(rawData)

	f.logger.Info("Email processed",
		zap.String("from", s.sender),
		zap.String("classification", string(result.Classification)),
		zap.Float64("score", result.RiskScore))

	if f.relayEnabled {
		if err := f.relay(s.sender, s.recipients, stamped.Bytes()); err != nil {
			f.logger.Error("Failed to relay email", zap.Error(err))
			return fmt.Errorf("451 Failed to relay message")
		}
	}

	return nil
}

// htmlWarnings runs the structural link heuristics over the HTML part.
func (s *smtpSession) htmlWarnings(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var warnings []string
	if extract.HasHiddenLinks(body) {
		warnings = append(warnings, "hidden links detected")
	}
	if extract.HasMismatchedLinks(body) {
		warnings = append(warnings, "mismatched link targets detected")
	}
	return strings.Join(warnings, "; ")
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
