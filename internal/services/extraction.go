package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type InlineImage struct {
	MimeType string
	Data     []byte
}

type TopicContext struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ExtractionInput struct {
	Transcript  string
	SubjectName string
	Topics      []TopicContext
	Images      []InlineImage
}

type ExtractedTopic struct {
	TopicID      string            `json:"topicId"`
	Status       types.TopicStatus `json:"status"`
	Confidence   int               `json:"confidence"`
	Evidence     string            `json:"evidence"`
	FutureImpact string            `json:"futureImpact,omitempty"`
}

type SuggestedNode struct {
	Type        types.ProposalType `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ParentID    string             `json:"parentId,omitempty"`
}

type ExtractionResult struct {
	Topics            []ExtractedTopic `json:"topics"`
	SuggestedNewNodes []SuggestedNode  `json:"suggestedNewNodes"`
	Summary           string           `json:"summary"`
}

type ExtractionService interface {
	ExtractSessionInsights(ctx context.Context, input ExtractionInput) (*ExtractionResult, error)
}

type extractionClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
}

func NewExtractionClient(log *logger.Logger) (ExtractionService, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	timeoutSec := 180
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &extractionClient{
		log:        log.With("service", "ExtractionClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type providerHTTPError struct {
	StatusCode int
	Body       string
}

func (e *providerHTTPError) Error() string {
	return fmt.Sprintf("provider http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	if code >= 500 && code <= 599 {
		return true
	}
	return false
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}
	var httpErr *providerHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func (c *extractionClient) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &providerHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *extractionClient) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("provider decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !isRetryableErr(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("Extraction request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// ---- Chat completions (multimodal) ----

type chatContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const extractionSystemPrompt = `You are an expert tutoring analyst. Given a tutoring session transcript, the subject's existing topic list and optional homework images, identify which topics were touched and how well the student handled each. Respond with JSON only, shaped as:
{"topics":[{"topicId":"...","status":"new|learning|reviewed|mastered","confidence":0-100,"evidence":"quoted transcript excerpt","futureImpact":"optional note"}],"suggestedNewNodes":[{"type":"unit|topic","name":"...","description":"...","parentId":"unit id or name (topics only)"}],"summary":"2-3 sentence session summary"}
Only use topicId values from the provided topic list. Suggest new nodes only for material clearly discussed but absent from the list.`

func (c *extractionClient) ExtractSessionInsights(ctx context.Context, input ExtractionInput) (*ExtractionResult, error) {
	if strings.TrimSpace(input.Transcript) == "" {
		return nil, fmt.Errorf("transcript required")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\n\nExisting topics:\n", input.SubjectName)
	for _, t := range input.Topics {
		fmt.Fprintf(&sb, "- %s: %s\n", t.ID, t.Name)
	}
	sb.WriteString("\nTranscript:\n")
	sb.WriteString(input.Transcript)

	parts := []chatContentPart{{Type: "text", Text: sb.String()}}
	for _, img := range input.Images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		part := chatContentPart{Type: "image_url"}
		part.ImageURL = &struct {
			URL string `json:"url"`
		}{URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data))}
		parts = append(parts, part)
	}

	req := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: parts},
		},
		Temperature: 0.2,
	}

	var resp chatCompletionResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction response had no choices")
	}

	result := DecodeExtractionResult(resp.Choices[0].Message.Content)
	return sanitizeExtractionResult(result, input.Topics), nil
}

// DecodeExtractionResult parses the raw model text, tolerating code fences and
// prose wrapped around the JSON object. An unrecoverable response degrades to
// an empty result rather than failing the pipeline.
func DecodeExtractionResult(raw string) *ExtractionResult {
	block := ExtractJSONBlock(raw)
	if block != "" {
		var out ExtractionResult
		if err := json.Unmarshal([]byte(block), &out); err == nil {
			return &out
		}
	}
	return &ExtractionResult{Summary: "Could not parse the analysis result."}
}

// ExtractJSONBlock strips markdown code-fence markers and returns the first
// balanced {...} block, honoring string literals and escapes.
func ExtractJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeExtractionResult drops hallucinated topic ids, out-of-enum statuses
// and repeated topic ids, and clamps confidence into [0,100]. A topic repeated
// in the response keeps only its first entry; one session contributes at most
// one observation per topic.
func sanitizeExtractionResult(result *ExtractionResult, known []TopicContext) *ExtractionResult {
	knownIDs := make(map[string]bool, len(known))
	for _, t := range known {
		knownIDs[t.ID] = true
	}

	seen := make(map[string]bool, len(result.Topics))
	topics := result.Topics[:0]
	for _, t := range result.Topics {
		if t.TopicID == "" || !knownIDs[t.TopicID] {
			continue
		}
		if !t.Status.Valid() {
			continue
		}
		if seen[t.TopicID] {
			continue
		}
		seen[t.TopicID] = true
		if t.Confidence < 0 {
			t.Confidence = 0
		}
		if t.Confidence > 100 {
			t.Confidence = 100
		}
		topics = append(topics, t)
	}
	result.Topics = topics

	nodes := result.SuggestedNewNodes[:0]
	for _, n := range result.SuggestedNewNodes {
		if strings.TrimSpace(n.Name) == "" {
			continue
		}
		if n.Type != types.ProposalUnit && n.Type != types.ProposalTopic {
			continue
		}
		nodes = append(nodes, n)
	}
	result.SuggestedNewNodes = nodes
	return result
}
