package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
)

// maxBatchSize mirrors the backend's per-request URL cap.
const maxBatchSize = 50

// Classifier is a direct LLM implementation of the Classifier port, for
// deployments without a classification backend. It produces the same
// verdict shape from a structured prompt.
type Classifier struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	maxBodySize int
	text        *utils.TextProcessor
	logger      *zap.Logger
}

// verdictResponse is the structured JSON the model is instructed to emit.
type verdictResponse struct {
	Classification string   `json:"classification"`
	RiskScore      float64  `json:"risk_score"`
	Reasons        []string `json:"reasons"`
	Explanation    string   `json:"explanation"`
}

const urlPrompt = `You are a phishing detection system. Analyze the following URL and decide whether it is safe, suspicious, or malicious.
Respond with a JSON object containing:
- classification: one of "safe", "suspicious", "malicious"
- risk_score: number between 0 and 100 (higher means more dangerous)
- reasons: array of short strings naming the indicators you found
- explanation: string (brief explanation of the verdict)

URL: %s

Respond only with the JSON object and nothing else.`

const textPrompt = `You are a phishing detection system. Analyze the following message and decide whether it is safe, suspicious, or malicious.
Respond with a JSON object containing:
- classification: one of "safe", "suspicious", "malicious"
- risk_score: number between 0 and 100 (higher means more dangerous)
- reasons: array of short strings naming the indicators you found
- explanation: string (brief explanation of the verdict)

Subject: %s
Sender: %s
Content:
%s

Respond only with the JSON object and nothing else.`

// NewClassifier creates a new direct LLM classifier.
func NewClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	text *utils.TextProcessor,
	logger *zap.Logger,
) *Classifier {
	return &Classifier{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		maxBodySize: maxBodySize,
		text:        text,
		logger:      logger,
	}
}

// CheckURL classifies a single URL.
func (c *Classifier) CheckURL(ctx context.Context, url string) (*core.ClassificationResult, error) {
	return c.complete(ctx, fmt.Sprintf(urlPrompt, url))
}

// CheckURLs classifies a batch of URLs one by one, aggregating verdicts
// into the same summary shape the backend returns. The batch is capped at
// 50 URLs.
func (c *Classifier) CheckURLs(ctx context.Context, urls []string) (*core.BatchResult, error) {
	if len(urls) > maxBatchSize {
		urls = urls[:maxBatchSize]
	}

	batch := &core.BatchResult{}
	for _, url := range urls {
		result, err := c.CheckURL(ctx, url)
		if err != nil {
			return nil, err
		}

		batch.Results = append(batch.Results, core.URLResult{
			URL:            url,
			Classification: result.Classification,
			RiskScore:      result.RiskScore,
		})
		switch result.Classification {
		case core.ClassificationMalicious:
			batch.Summary.Malicious++
		case core.ClassificationSuspicious:
			batch.Summary.Suspicious++
		default:
			batch.Summary.Safe++
		}
		batch.Summary.Total++
	}
	return batch, nil
}

// AnalyzeText classifies a free-text blob with optional metadata.
func (c *Classifier) AnalyzeText(ctx context.Context, content, subject, sender string) (*core.ClassificationResult, error) {
	content = c.text.ProcessText(content, c.maxBodySize)
	return c.complete(ctx, fmt.Sprintf(textPrompt, subject, sender, content))
}

func (c *Classifier) complete(ctx context.Context, prompt string) (*core.ClassificationResult, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: "json"}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &core.ClassificationResult{
		Classification: normalizeClassification(verdict.Classification),
		RiskScore:      verdict.RiskScore,
		Reasons:        verdict.Reasons,
		Explanation:    verdict.Explanation,
		AIUsed:         true,
		AIReasoning:    verdict.Explanation,
		AnalyzedAt:     time.Now(),
		Source:         c.modelName,
	}, nil
}

// parseVerdict decodes the model output, tolerating prose wrapped around
// the JSON object.
func parseVerdict(responseText string) (*verdictResponse, error) {
	var verdict verdictResponse
	if err := json.Unmarshal([]byte(responseText), &verdict); err == nil {
		return &verdict, nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &verdict, nil
}

func normalizeClassification(raw string) core.Classification {
	switch core.Classification(raw) {
	case core.ClassificationMalicious:
		return core.ClassificationMalicious
	case core.ClassificationSuspicious:
		return core.ClassificationSuspicious
	default:
		return core.ClassificationSafe
	}
}
