package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/perchwood/curbside/internal/auth"
	"github.com/perchwood/curbside/internal/lifecycle"
	"github.com/perchwood/curbside/internal/model"
	"github.com/perchwood/curbside/internal/store"
	"github.com/perchwood/curbside/internal/websocket"
)

type RequestHandler struct {
	lifecycle *lifecycle.Manager
	requests  *store.RequestStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewRequestHandler(lm *lifecycle.Manager, rs *store.RequestStore, hub *websocket.Hub, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{lifecycle: lm, requests: rs, hub: hub, logger: logger}
}

func (h *RequestHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type createRequestBody struct {
	Kind           string   `json:"kind"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	WasteTypes     []string `json:"wasteTypes"`
	Description    string   `json:"description"`
	PreferredDate  string   `json:"preferredDate"`
	HasImage       bool     `json:"hasImage"`
	RequesterName  string   `json:"requesterName"`
	RequesterPhone string   `json:"requesterPhone"`
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req, err := h.lifecycle.Create(lifecycle.CreateInput{
		Kind:           model.RequestKind(body.Kind),
		Address:        body.Address,
		Latitude:       body.Latitude,
		Longitude:      body.Longitude,
		WasteTypes:     body.WasteTypes,
		Description:    body.Description,
		PreferredDate:  body.PreferredDate,
		HasImage:       body.HasImage,
		RequesterName:  body.RequesterName,
		RequesterPhone: body.RequesterPhone,
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrNoWasteTypes) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create request", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create request")
		return
	}

	h.broadcast(websocket.NewMessage("request", "created", req.PublicID, nil))
	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RequestStatus(r.URL.Query().Get("status"))
	switch status {
	case "", model.StatusPending, model.StatusAccepted, model.StatusCompleted:
	default:
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	requests, err := h.lifecycle.ListByStatus(status)
	if err != nil {
		h.logger.Error("list requests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.GetByPublicID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get request", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load request")
		return
	}
	if req == nil {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, err := h.lifecycle.Accept(r.PathValue("id"), ac.AccountID)
	if err != nil {
		h.writeTransitionError(w, err, "accept")
		return
	}

	h.broadcast(websocket.NewMessage("request", "accepted", req.PublicID, nil))
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, err := h.lifecycle.Complete(r.PathValue("id"), ac.AccountID)
	if err != nil {
		h.writeTransitionError(w, err, "complete")
		return
	}

	h.broadcast(websocket.NewMessage("request", "completed", req.PublicID, nil))
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) writeTransitionError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		writeError(w, http.StatusNotFound, "request not found")
	case errors.Is(err, lifecycle.ErrIncompleteProfile):
		writeError(w, http.StatusConflict, "complete your profile before accepting requests")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "request is no longer available for this action")
	case errors.Is(err, lifecycle.ErrNotAcceptor):
		writeError(w, http.StatusForbidden, "only the accepting collector may complete this request")
	default:
		h.logger.Error(op+" request", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op+" request")
	}
}
