package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error)
}

// RoomHandler serves the room catalog.
type RoomHandler struct {
	service   roomService
	responder responder
	clock     clock
	logger    *slog.Logger
}

// NewRoomHandler returns a handler rendering local times in display.
func NewRoomHandler(service roomService, display *time.Location, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), clock: newClock(display), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Create")
	if !ok {
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: h.toRoomDTO(room)})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Get")
	if !ok {
		return
	}
	roomID, ok := h.roomID(w, r, "Get")
	if !ok {
		return
	}

	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "room_id", roomID).
			ErrorContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: h.toRoomDTO(room)})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Update")
	if !ok {
		return
	}
	roomID, ok := h.roomID(w, r, "Update")
	if !ok {
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: h.toRoomDTO(room)})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Delete")
	if !ok {
		return
	}
	roomID, ok := h.roomID(w, r, "Delete")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID)
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		logger.ErrorContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "List")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	rooms, err := h.service.ListRooms(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rooms)).InfoContext(r.Context(), "rooms listed")
	dtos := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, h.toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: dtos})
}

func (h *RoomHandler) principal(w http.ResponseWriter, r *http.Request, operation string) (application.Principal, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.Principal{}, false
	}
	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.log(r.Context(), operation, "error_kind", "unauthorized").ErrorContext(r.Context(), "missing authenticated principal")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingPrincipal)
		return application.Principal{}, false
	}
	return principal, true
}

func (h *RoomHandler) roomID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	roomID := strings.TrimSpace(chi.URLParam(r, "roomID"))
	if roomID == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return "", false
	}
	return roomID, true
}

type roomRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
	Details  string `json:"details"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:     strings.TrimSpace(r.Name),
		Location: strings.TrimSpace(r.Location),
		Capacity: r.Capacity,
		Details:  strings.TrimSpace(r.Details),
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Location         string `json:"location"`
	Capacity         int    `json:"capacity"`
	Details          string `json:"details,omitempty"`
	OccupiedNow      bool   `json:"occupied_now"`
	CurrentMeetingID string `json:"current_meeting_id,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	UpdatedAtLocal   string `json:"updated_at_local"`
}

func (h *RoomHandler) toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:               room.ID,
		Name:             room.Name,
		Location:         room.Location,
		Capacity:         room.Capacity,
		Details:          room.Details,
		OccupiedNow:      room.OccupiedNow,
		CurrentMeetingID: room.CurrentMeetingID,
		CreatedAt:        h.clock.utc(room.CreatedAt),
		UpdatedAt:        h.clock.utc(room.UpdatedAt),
		UpdatedAtLocal:   h.clock.local(room.UpdatedAt),
	}
}
