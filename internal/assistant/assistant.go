// Package assistant wraps a generative-AI text API for user-facing copy:
// schedule confirmations, the waste-disposal chat, and bulky-item photo
// advice. Output is presentation only and never gates a lifecycle or
// reminder decision, so every failure degrades to a fixed placeholder
// instead of an error.
package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	fallbackDisabled = "AI is disabled. Missing API key."
	fallbackGenerate = "Error communicating with the AI. Please try again later."
	fallbackChat     = "Oops! I encountered a glitch. Can we try again?"
	fallbackImage    = "Failed to analyze the image. Please try describing the item instead."

	systemInstruction = "You are a helpful waste management assistant for the Curbside pickup app. " +
		"Provide concise, friendly advice about recycling, disposal, and collection rules. " +
		"If a user provides an address, keep it in context. Be eco-conscious."
)

// Config holds assistant service configuration.
type Config struct {
	APIKey string
	Model  string
}

// Message is one turn of a chat conversation.
type Message struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Service calls a Gemini-style generateContent endpoint.
type Service struct {
	cfg     Config
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		logger:  logger,
	}
}

// Enabled reports whether an API key is configured.
func (s *Service) Enabled() bool {
	return s.cfg.APIKey != ""
}

// wire types for the generateContent API

type apiPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *apiInlineData `json:"inlineData,omitempty"`
}

type apiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiRequest struct {
	Contents          []apiContent `json:"contents"`
	SystemInstruction *apiContent  `json:"systemInstruction,omitempty"`
}

type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate runs a one-shot prompt and returns the reply text, or a
// placeholder if anything goes wrong.
func (s *Service) Generate(prompt string) string {
	if !s.Enabled() {
		return fallbackDisabled
	}

	req := apiRequest{
		Contents: []apiContent{{Role: "user", Parts: []apiPart{{Text: prompt}}}},
	}
	text, err := s.call(req)
	if err != nil {
		s.logger.Error("generate", "error", err)
		return fallbackGenerate
	}
	return text
}

// Chat continues a conversation. History turns carry the roles the model
// saw before; the new message is appended as a user turn.
func (s *Service) Chat(history []Message, message string) string {
	if !s.Enabled() {
		return fallbackDisabled
	}

	contents := make([]apiContent, 0, len(history)+1)
	for _, m := range history {
		role := m.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, apiContent{Role: role, Parts: []apiPart{{Text: m.Text}}})
	}
	contents = append(contents, apiContent{Role: "user", Parts: []apiPart{{Text: message}}})

	req := apiRequest{
		Contents:          contents,
		SystemInstruction: &apiContent{Parts: []apiPart{{Text: systemInstruction}}},
	}
	text, err := s.call(req)
	if err != nil {
		s.logger.Error("chat", "error", err)
		return fallbackChat
	}
	return text
}

// AnalyzeImage sends a prompt alongside base64 image data.
func (s *Service) AnalyzeImage(prompt, base64Image, mimeType string) string {
	if !s.Enabled() {
		return fallbackDisabled
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := apiRequest{
		Contents: []apiContent{{
			Role: "user",
			Parts: []apiPart{
				{InlineData: &apiInlineData{MimeType: mimeType, Data: base64Image}},
				{Text: prompt},
			},
		}},
	}
	text, err := s.call(req)
	if err != nil {
		s.logger.Error("analyze image", "error", err)
		return fallbackImage
	}
	return text
}

func (s *Service) call(req apiRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.cfg.Model, s.cfg.APIKey)
	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(api.Candidates) == 0 || len(api.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return api.Candidates[0].Content.Parts[0].Text, nil
}
