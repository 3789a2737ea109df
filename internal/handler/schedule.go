package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/perchwood/curbside/internal/auth"
	"github.com/perchwood/curbside/internal/model"
	"github.com/perchwood/curbside/internal/reminder"
	"github.com/perchwood/curbside/internal/store"
	"github.com/perchwood/curbside/internal/websocket"
)

type ScheduleHandler struct {
	schedules *store.ScheduleStore
	engine    *reminder.Engine
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewScheduleHandler(ss *store.ScheduleStore, engine *reminder.Engine, hub *websocket.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: ss, engine: engine, hub: hub, logger: logger}
}

func (h *ScheduleHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *ScheduleHandler) kick() {
	if h.engine != nil {
		h.engine.Kick()
	}
}

type scheduleRequest struct {
	OwnerName  string   `json:"ownerName"`
	Address    string   `json:"address"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	WasteTypes []string `json:"wasteTypes"`
	DaysOfWeek []int    `json:"daysOfWeek"`
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tags := make([]string, 0, len(req.WasteTypes))
	for _, t := range req.WasteTypes {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		writeError(w, http.StatusBadRequest, "at least one waste type is required")
		return
	}
	if len(req.DaysOfWeek) == 0 {
		writeError(w, http.StatusBadRequest, "at least one day of week is required")
		return
	}
	seen := make(map[int]bool, len(req.DaysOfWeek))
	days := make([]int, 0, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		if d < 0 || d > 6 {
			writeError(w, http.StatusBadRequest, "days of week must be 0 (Sunday) through 6 (Saturday)")
			return
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	sc, err := h.schedules.Create(&model.Schedule{
		AccountID:  ac.AccountID,
		OwnerName:  strings.TrimSpace(req.OwnerName),
		Address:    strings.TrimSpace(req.Address),
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		WasteTypes: tags,
		DaysOfWeek: days,
	})
	if err != nil {
		h.logger.Error("create schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create schedule")
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "created", sc.PublicID, nil))
	h.kick()
	writeJSON(w, http.StatusCreated, sc)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	schedules, err := h.schedules.ListByAccount(ac.AccountID)
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}

	writeJSON(w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	publicID := r.PathValue("id")
	ok, err := h.schedules.Disable(publicID, ac.AccountID)
	if err != nil {
		h.logger.Error("disable schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to disable schedule")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "disabled", publicID, nil))
	h.kick()
	writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}
