package frontend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/history"
	"github.com/phishguard/phishguard/internal/core"
)

const sampleMessage = "From: alerts@secure-bank.example.com\r\n" +
	"To: victim@example.com\r\n" +
	"Subject: Account locked\r\n" +
	"\r\n" +
	"Please verify your account immediately.\r\n"

// stubClassifier returns one canned verdict (or error) for every call.
type stubClassifier struct {
	result *core.ClassificationResult
	err    error
}

func (s *stubClassifier) CheckURL(_ context.Context, _ string) (*core.ClassificationResult, error) {
	return s.result, s.err
}

func (s *stubClassifier) CheckURLs(_ context.Context, _ []string) (*core.BatchResult, error) {
	return nil, s.err
}

func (s *stubClassifier) AnalyzeText(_ context.Context, _, _, _ string) (*core.ClassificationResult, error) {
	return s.result, s.err
}

// startFakeRelay runs a single-connection SMTP sink and hands back the
// DATA payload it receives.
func startFakeRelay(t *testing.T) (string, int, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	captured := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		fmt.Fprintf(conn, "220 fake ESMTP\r\n")
		br := bufio.NewReader(conn)
		var data strings.Builder
		inData := false
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if strings.TrimRight(line, "\r\n") == "." {
					captured <- data.String()
					fmt.Fprintf(conn, "250 2.0.0 OK\r\n")
					inData = false
					continue
				}
				data.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimRight(line, "\r\n")); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				fmt.Fprintf(conn, "250 fake\r\n")
			case strings.HasPrefix(cmd, "DATA"):
				fmt.Fprintf(conn, "354 go ahead\r\n")
				inData = true
			case strings.HasPrefix(cmd, "QUIT"):
				fmt.Fprintf(conn, "221 bye\r\n")
				return
			default:
				fmt.Fprintf(conn, "250 2.0.0 OK\r\n")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, captured
}

func newTestSession(t *testing.T, classifier core.Classifier, blockMalicious bool, relayHost string, relayPort int) *smtpSession {
	t.Helper()

	service := core.NewScanService(classifier, history.NewMemoryHistory(20), nil, zap.NewNop(), false)
	f := NewSMTPFrontend(
		service,
		zap.NewNop(),
		"127.0.0.1:0",
		blockMalicious,
		"X-Phish-Status",
		"X-Phish-Score",
		"X-Phish-Reason",
		relayHost,
		relayPort,
		relayHost != "",
	)

	session := &smtpSession{frontend: f, recipients: make([]string, 0)}
	require.NoError(t, session.Mail("alerts@secure-bank.example.com", nil))
	require.NoError(t, session.Rcpt("victim@example.com", nil))
	return session
}

func relayedMessage(t *testing.T, captured <-chan string) string {
	t.Helper()
	select {
	case msg := <-captured:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("relay received no message")
		return ""
	}
}

func TestDataStampsVerdictHeaders(t *testing.T) {
	host, port, captured := startFakeRelay(t)
	session := newTestSession(t, &stubClassifier{
		result: &core.ClassificationResult{Classification: core.ClassificationSafe, RiskScore: 4},
	}, false, host, port)

	require.NoError(t, session.Data(strings.NewReader(sampleMessage)))

	msg := relayedMessage(t, captured)
	assert.True(t, strings.HasPrefix(msg, "X-Phish-Status: safe\r\n"), "status header must lead the message")
	assert.Contains(t, msg, "X-Phish-Score: 4\r\n")
	assert.NotContains(t, msg, "X-Phish-Reason:", "no reason header without an explanation")
	assert.Contains(t, msg, "Please verify your account immediately.")
}

func TestDataRejectsMaliciousOnlyWhenBlocking(t *testing.T) {
	verdict := &core.ClassificationResult{
		Classification: core.ClassificationMalicious,
		RiskScore:      96,
		Explanation:    "credential harvesting page linked",
	}

	t.Run("blocking enabled", func(t *testing.T) {
		session := newTestSession(t, &stubClassifier{result: verdict}, true, "", 0)

		err := session.Data(strings.NewReader(sampleMessage))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "550")
	})

	t.Run("blocking disabled", func(t *testing.T) {
		host, port, captured := startFakeRelay(t)
		session := newTestSession(t, &stubClassifier{result: verdict}, false, host, port)

		require.NoError(t, session.Data(strings.NewReader(sampleMessage)))

		msg := relayedMessage(t, captured)
		assert.True(t, strings.HasPrefix(msg, "X-Phish-Status: malicious\r\n"))
		assert.Contains(t, msg, "X-Phish-Score: 96\r\n")
		assert.Contains(t, msg, "X-Phish-Reason: credential harvesting page linked\r\n")
	})
}

func TestDataPassesMailThroughOnClassifierError(t *testing.T) {
	host, port, captured := startFakeRelay(t)
	// blockMalicious on: an analysis failure must never reject mail.
	session := newTestSession(t, &stubClassifier{err: errors.New("backend down")}, true, host, port)

	require.NoError(t, session.Data(strings.NewReader(sampleMessage)))

	msg := relayedMessage(t, captured)
	assert.True(t, strings.HasPrefix(msg, "X-Phish-Status: safe\r\n"))
	assert.Contains(t, msg, "X-Phish-Reason: Error during analysis: backend down\r\n")
}

func TestDataFlagsHiddenLinksInHTMLPart(t *testing.T) {
	htmlMessage := "From: alerts@secure-bank.example.com\r\n" +
		"To: victim@example.com\r\n" +
		"Subject: Invoice\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		`<html><body>Pay here <a href="http://evil.example.org/pay" style="display:none">x</a></body></html>` + "\r\n"

	host, port, captured := startFakeRelay(t)
	session := newTestSession(t, &stubClassifier{
		result: &core.ClassificationResult{Classification: core.ClassificationSuspicious, RiskScore: 58},
	}, false, host, port)

	require.NoError(t, session.Data(strings.NewReader(htmlMessage)))

	msg := relayedMessage(t, captured)
	assert.Contains(t, msg, "hidden links detected")
}
