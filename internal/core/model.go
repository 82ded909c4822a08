package core

import (
	"time"
)

// Classification is the verdict assigned to a URL or text blob by the
// classification backend.
type Classification string

const (
	ClassificationSafe       Classification = "safe"
	ClassificationSuspicious Classification = "suspicious"
	ClassificationMalicious  Classification = "malicious"
)

// Provider identifies a supported webmail vendor.
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
	ProviderYahoo   Provider = "yahoo"
	ProviderNone    Provider = "none"
)

// ScanType identifies what kind of content a scan targeted.
type ScanType string

const (
	ScanTypeContent ScanType = "content"
	ScanTypeURL     ScanType = "url"
	ScanTypePage    ScanType = "page"
	ScanTypeEmail   ScanType = "email"
)

// ExtractedLink is a single external link pulled out of a page or email body.
type ExtractedLink struct {
	URL  string
	Text string
}

// EmailDetection describes whether a page belongs to a supported webmail
// provider and whether a single message is currently open.
type EmailDetection struct {
	IsEmailPage    bool
	IsViewingEmail bool
	Provider       Provider
	ProviderName   string
}

// EmailWarnings holds the results of the structural phishing heuristics
// run over an extracted email body.
type EmailWarnings struct {
	HasHiddenLinks     bool
	HasMismatchedLinks bool
}

// ExtractedEmail is a normalized email record pulled from a webmail DOM.
type ExtractedEmail struct {
	Subject     string
	Sender      string
	SenderEmail string
	Body        string
	Date        string
	Links       []ExtractedLink
	LinkCount   int
	Warnings    EmailWarnings
}

// ClassificationResult is the verdict returned by a classifier. It is
// treated as immutable once received; the backend owns its contents.
type ClassificationResult struct {
	Classification  Classification `json:"classification"`
	RiskScore       float64        `json:"risk_score"`
	Reasons         []string       `json:"reasons,omitempty"`
	Explanation     string         `json:"explanation,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	AnalysisID      string         `json:"analysis_id,omitempty"`
	AIUsed          bool           `json:"ai_used,omitempty"`
	AIConfidence    float64        `json:"ai_confidence,omitempty"`
	AIReasoning     string         `json:"ai_reasoning,omitempty"`
	AnalyzedAt      time.Time      `json:"-"`
	Source          string         `json:"-"`
}

// URLResult pairs a URL with its classification inside a batch response.
type URLResult struct {
	URL            string         `json:"url"`
	Classification Classification `json:"classification"`
	RiskScore      float64        `json:"risk_score"`
}

// BatchSummary is the aggregate verdict count for a batch check.
type BatchSummary struct {
	Safe       int `json:"safe"`
	Suspicious int `json:"suspicious"`
	Malicious  int `json:"malicious"`
	Total      int `json:"total"`
}

// BatchResult is the response to a multi-URL check.
type BatchResult struct {
	Summary BatchSummary `json:"summary"`
	Results []URLResult  `json:"results"`
}

// CacheEntry is a memoized classification keyed by exact URL string.
// An entry is valid only while now - Timestamp < TTL.
type CacheEntry struct {
	URL       string
	Result    *ClassificationResult
	Timestamp time.Time
}

// ScanHistoryItem is one row of the rolling scan log. Only the verdict
// summary is kept, never the scanned content itself.
type ScanHistoryItem struct {
	ID             string         `json:"id"`
	Type           ScanType       `json:"type"`
	Classification Classification `json:"classification"`
	Score          float64        `json:"score"`
	Timestamp      time.Time      `json:"timestamp"`
}

// SessionUser is the authenticated account behind the backend session.
type SessionUser struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// FeedbackAck is the backend's response to a user feedback submission.
type FeedbackAck struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	LearningResult string `json:"learning_result,omitempty"`
}
