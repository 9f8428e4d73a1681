package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lead-tracker-go/config"
	"lead-tracker-go/internal/model"
)

const (
	// maxBodyChars bounds the message body submitted for classification.
	// This is a cost and latency control, not a correctness requirement.
	maxBodyChars = 1500

	// FallbackSummary is returned when summarization fails, so callers
	// always receive a renderable value.
	FallbackSummary = "Summary could not be generated."
)

// GeminiClient classifies messages and summarizes interaction histories via
// the Gemini generateContent REST API. Both operations swallow transport and
// parse failures: Classify returns nil (treated downstream as not-a-lead) and
// Summarize returns a fixed fallback string. No failure ever reaches the
// caller as an error.
type GeminiClient struct {
	apiKey         string
	modelName      string
	baseURL        string
	internalDomain string
	httpClient     *http.Client
	log            *logrus.Logger
}

// NewGeminiClient creates a Gemini classification client.
func NewGeminiClient(cfg *config.GeminiConfig, log *logrus.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:         cfg.APIKey,
		modelName:      cfg.Model,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		internalDomain: cfg.InternalDomain,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		log:            log,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// leadPayload mirrors the flat JSON schema the model is prompted to emit.
type leadPayload struct {
	IsLead      bool   `json:"is_lead"`
	LeadStatus  string `json:"lead_status"`
	HasMeeting  bool   `json:"has_meeting"`
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	MeetingType string `json:"meeting_type"`
	ActionItems string `json:"action_items"`
	Deadline    string `json:"deadline"`
}

// Classify asks the model whether the message is a sales lead, returning the
// structured verdict or nil on any failure or unusable payload.
func (g *GeminiClient) Classify(ctx context.Context, subject, body string) *model.Classification {
	prompt := g.buildClassifyPrompt(subject, truncate(body, maxBodyChars))

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.log.Errorf("Failed to classify email with Gemini: %v", err)
		return nil
	}

	var payload leadPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &payload); err != nil {
		g.log.Errorf("Failed to parse Gemini classification response: %v", err)
		return nil
	}

	cls := &model.Classification{IsLead: payload.IsLead}
	if !payload.IsLead {
		return cls
	}

	cls.LeadStatus = payload.LeadStatus
	cls.ActionItems = payload.ActionItems
	cls.Deadline = payload.Deadline
	if payload.HasMeeting {
		cls.Meeting = &model.MeetingDetails{
			Subject:     payload.Subject,
			Date:        payload.Date,
			StartTime:   payload.StartTime,
			MeetingType: payload.MeetingType,
		}
	}

	return cls
}

// Summarize produces a one-paragraph relationship summary of an interaction
// history, falling back to a fixed string when the call fails.
func (g *GeminiClient) Summarize(ctx context.Context, history string) string {
	prompt := fmt.Sprintf(
		"Based on the following email interaction log, provide a one-paragraph summary of the relationship with this lead so far.\n\n%s",
		history,
	)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.log.Errorf("Failed to generate summary with Gemini: %v", err)
		return FallbackSummary
	}

	return strings.TrimSpace(text)
}

func (g *GeminiClient) buildClassifyPrompt(subject, body string) string {
	var b strings.Builder
	b.WriteString("Analyze this email. First, decide if it is a sales lead.")
	if g.internalDomain != "" {
		fmt.Fprintf(&b, " Ignore internal emails from @%s and automated replies.", strings.TrimPrefix(g.internalDomain, "@"))
	} else {
		b.WriteString(" Ignore automated replies.")
	}
	b.WriteString("\nIf it is NOT a lead, respond with: {\"is_lead\": false}\n")
	fmt.Fprintf(&b, "If it IS a lead, analyze its content and respond in valid JSON with the following structure. Today is %s.\n", time.Now().Format("2006-01-02"))
	b.WriteString(`{"is_lead": true, "lead_status": "string (e.g., New Lead, Meeting Scheduled, Proposal Sent)", "has_meeting": boolean, "subject": "string", "date": "YYYY-MM-DD", "start_time": "HH:MM", "meeting_type": "string", "action_items": "string", "deadline": "YYYY-MM-DD"}`)
	b.WriteString("\n\nEmail Subject: ")
	b.WriteString(subject)
	b.WriteString("\nEmail Body: ")
	b.WriteString(body)
	return b.String()
}

func (g *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.modelName, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("generate returned %d: %s", resp.StatusCode, string(respBody))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response contains no candidates")
	}

	return gen.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes markdown code fences the model wraps JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
