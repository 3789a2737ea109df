package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/perchwood/curbside/internal/assistant"
)

type AssistantHandler struct {
	service *assistant.Service
	logger  *slog.Logger
}

func NewAssistantHandler(s *assistant.Service, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{service: s, logger: logger}
}

type chatRequest struct {
	History []assistant.Message `json:"history"`
	Message string              `json:"message"`
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := h.service.Chat(req.History, req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type scheduleCheckRequest struct {
	Address string `json:"address"`
}

func (h *AssistantHandler) ScheduleCheck(w http.ResponseWriter, r *http.Request) {
	var req scheduleCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	prompt := fmt.Sprintf(
		"A resident at %q is asking about their municipal waste collection schedule. "+
			"Briefly explain the typical pickup days for that area and remind them to put bins out the night before.",
		strings.TrimSpace(req.Address),
	)
	reply := h.service.Generate(prompt)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type analyzeImageRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
}

func (h *AssistantHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	if req.MimeType == "" {
		req.MimeType = "image/jpeg"
	}

	prompt := "Identify the waste item in this photo and say how it should be disposed of: " +
		"recycling, organic, bulky pickup, or hazardous drop-off. Keep it to two sentences."
	reply := h.service.AnalyzeImage(prompt, req.Image, req.MimeType)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
