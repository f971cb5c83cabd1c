package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skimguard/internal/config"
	"skimguard/internal/model"
)

// ErrMalformedResponse marks a reasoning response that could not be
// parsed into the assessment schema. Not retried.
var ErrMalformedResponse = errors.New("malformed reasoning response")

// Assessor produces one risk assessment per unique device in a batch.
type Assessor interface {
	Assess(ctx context.Context, scans []model.ScanRecord) ([]model.RiskAssessment, error)
}

// Client calls an OpenAI-compatible chat-completions endpoint with a
// single function tool whose schema pins the assessment shape.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

func NewClient(cfg config.ReasoningConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []toolDef     `json:"tools"`
	ToolChoice string        `json:"tool_choice"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolDef struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type assessmentEnvelope struct {
	Assessments []model.RiskAssessment `json:"assessments"`
}

func (c *Client) Assess(ctx context.Context, scans []model.ScanRecord) ([]model.RiskAssessment, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(scans)},
		},
		Tools:      []toolDef{assessmentTool},
		ToolChoice: "required",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reasoning call: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reasoning read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reasoning status %d: %s", resp.StatusCode, truncate(raw, 256))
	}
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool call in response", ErrMalformedResponse)
	}
	args := parsed.Choices[0].Message.ToolCalls[0].Function.Arguments
	var envelope assessmentEnvelope
	if err := json.Unmarshal([]byte(args), &envelope); err != nil {
		return nil, fmt.Errorf("%w: tool arguments: %v", ErrMalformedResponse, err)
	}
	return envelope.Assessments, nil
}

func buildUserMessage(scans []model.ScanRecord) string {
	ids := make([]string, 0, len(scans))
	for _, s := range scans {
		ids = append(ids, fmt.Sprintf("%q", s.DeviceID()))
	}
	data, _ := json.MarshalIndent(scans, "", "  ")
	var b strings.Builder
	b.WriteString("BEGIN WIFI SKIMMER ANALYSIS\n\n")
	fmt.Fprintf(&b, "TOTAL SCANS: %d\n", len(scans))
	fmt.Fprintf(&b, "DEVICES TO ANALYZE (by bssid):\n%s\n\n", strings.Join(ids, ", "))
	fmt.Fprintf(&b, "FULL DATA:\n%s\n\n", data)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("- Return EXACTLY one assessment per device\n")
	b.WriteString("- Use `device_id` = bssid (or mac)\n")
	b.WriteString("- DO NOT SKIP ANY DEVICE\n")
	b.WriteString("- Include risk_score, confidence, explanation, recommendation\n")
	return b.String()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
