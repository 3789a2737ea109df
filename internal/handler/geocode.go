package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/perchwood/curbside/internal/geocode"
)

type GeocodeHandler struct {
	service *geocode.Service
	logger  *slog.Logger
}

func NewGeocodeHandler(s *geocode.Service, logger *slog.Logger) *GeocodeHandler {
	return &GeocodeHandler{service: s, logger: logger}
}

func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	if !h.service.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	result, err := h.service.Geocode(address)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}
		h.logger.Error("geocode", "error", err, "address", address)
		writeError(w, http.StatusBadGateway, "geocoding service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
