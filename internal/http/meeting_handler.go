package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/scheduler"
)

type meetingService interface {
	CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.CreatedMeeting, error)
	GetMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.MeetingDetails, error)
	ListMeetings(ctx context.Context, principal application.Principal, filter application.MeetingFilter) ([]application.Meeting, error)
	DeleteMeeting(ctx context.Context, principal application.Principal, meetingID string) error
	ApproveMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
	RejectMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
	RespondToInvitation(ctx context.Context, params application.RespondParams) (application.Invitee, error)
	CheckRoomAvailability(ctx context.Context, principal application.Principal, roomID string, start time.Time, duration time.Duration) (scheduler.Availability, error)
}

// MeetingHandler serves bookings, reviews and invitation responses.
type MeetingHandler struct {
	service   meetingService
	responder responder
	clock     clock
	logger    *slog.Logger
}

// NewMeetingHandler returns a handler rendering local times in display.
func NewMeetingHandler(service meetingService, display *time.Location, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), clock: newClock(display), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Create")
	if !ok {
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, field, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "validation").
			WarnContext(r.Context(), "invalid meeting request", "field", field, "error", err)
		h.responder.writeFieldError(r.Context(), w, field, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", input.RoomID)
	created, err := h.service.CreateMeeting(r.Context(), application.CreateMeetingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("meeting_id", created.Meeting.ID).InfoContext(r.Context(), "meeting created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, meetingResponse{
		Meeting: h.toMeetingDTO(created.Meeting, created.RoomName, created.Invitees),
	})
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Get")
	if !ok {
		return
	}
	meetingID, ok := h.meetingID(w, r, "Get")
	if !ok {
		return
	}

	details, err := h.service.GetMeeting(r.Context(), principal, meetingID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "meeting_id", meetingID).
			ErrorContext(r.Context(), "meeting lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{
		Meeting: h.toMeetingDTO(details.Meeting, details.RoomName, details.Invitees),
	})
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "List")
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := application.MeetingFilter{RoomID: strings.TrimSpace(query.Get("room_id"))}
	for _, bound := range []struct {
		key    string
		target **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := query.Get(bound.key)
		if raw == "" {
			continue
		}
		instant, err := parseInstant(raw)
		if err != nil {
			h.responder.writeFieldError(r.Context(), w, bound.key, errInvalidTimestamp)
			return
		}
		*bound.target = &instant
	}
	if raw := query.Get("include_deleted"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		filter.IncludeDeleted = include
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "room_id", filter.RoomID)
	meetings, err := h.service.ListMeetings(r.Context(), principal, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(meetings)).InfoContext(r.Context(), "meetings listed")
	dtos := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		dtos = append(dtos, h.toMeetingDTO(meeting, "", nil))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetingsResponse{Meetings: dtos})
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Delete")
	if !ok {
		return
	}
	meetingID, ok := h.meetingID(w, r, "Delete")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "meeting_id", meetingID)
	if err := h.service.DeleteMeeting(r.Context(), principal, meetingID); err != nil {
		logger.ErrorContext(r.Context(), "meeting delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "Approve", meetingService.ApproveMeeting)
}

func (h *MeetingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "Reject", meetingService.RejectMeeting)
}

func (h *MeetingHandler) review(w http.ResponseWriter, r *http.Request, operation string, apply func(meetingService, context.Context, application.Principal, string) (application.Meeting, error)) {
	principal, ok := h.principal(w, r, operation)
	if !ok {
		return
	}
	meetingID, ok := h.meetingID(w, r, operation)
	if !ok {
		return
	}

	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "meeting_id", meetingID)
	meeting, err := apply(h.service, r.Context(), principal, meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting review failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("approval_status", meeting.ApprovalStatus).InfoContext(r.Context(), "meeting reviewed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: h.toMeetingDTO(meeting, "", nil)})
}

func (h *MeetingHandler) Respond(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Respond")
	if !ok {
		return
	}
	meetingID, ok := h.meetingID(w, r, "Respond")
	if !ok {
		return
	}
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	status, err := scheduler.ParseResponseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		h.responder.writeFieldError(r.Context(), w, "status", errInvalidStatusBody)
		return
	}

	logger := h.log(r.Context(), "Respond", "principal_id", principal.UserID, "meeting_id", meetingID, "user_id", userID)
	invitee, err := h.service.RespondToInvitation(r.Context(), application.RespondParams{
		Principal: principal,
		MeetingID: meetingID,
		UserID:    userID,
		Status:    status,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "invitation response failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "invitation response recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, inviteeResponse{Invitee: h.toInviteeDTO(invitee)})
}

func (h *MeetingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r, "Availability")
	if !ok {
		return
	}
	roomID := strings.TrimSpace(chi.URLParam(r, "roomID"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	query := r.URL.Query()
	start, err := parseInstant(query.Get("start"))
	if err != nil {
		h.responder.writeFieldError(r.Context(), w, "start", errInvalidTimestamp)
		return
	}
	duration, err := time.ParseDuration(strings.TrimSpace(query.Get("duration")))
	if err != nil {
		h.responder.writeFieldError(r.Context(), w, "duration", errInvalidDuration)
		return
	}

	availability, err := h.service.CheckRoomAvailability(r.Context(), principal, roomID, start, duration)
	if err != nil {
		h.log(r.Context(), "Availability", "principal_id", principal.UserID, "room_id", roomID).
			ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	conflicts := make([]conflictDTO, 0, len(availability.Conflicts))
	for _, booking := range availability.Conflicts {
		conflicts = append(conflicts, conflictDTO{
			MeetingID: booking.MeetingID,
			StartAt:   h.clock.utc(booking.Interval.Start),
			EndAt:     h.clock.utc(booking.Interval.End),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		RoomID:     roomID,
		StartAt:    h.clock.utc(availability.Candidate.Start),
		EndAt:      h.clock.utc(availability.Candidate.End),
		StartLocal: h.clock.local(availability.Candidate.Start),
		EndLocal:   h.clock.local(availability.Candidate.End),
		Available:  availability.Available(),
		Conflicts:  conflicts,
	})
}

func (h *MeetingHandler) principal(w http.ResponseWriter, r *http.Request, operation string) (application.Principal, bool) {
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

func (h *MeetingHandler) meetingID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	meetingID := strings.TrimSpace(chi.URLParam(r, "meetingID"))
	if meetingID == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing meeting id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return "", false
	}
	return meetingID, true
}

type meetingRequest struct {
	Subject    string   `json:"subject"`
	Content    string   `json:"content"`
	RoomID     string   `json:"room_id"`
	StartDate  string   `json:"start_date"`
	Duration   string   `json:"duration"`
	InviteeIDs []string `json:"invitee_ids"`
}

// toInput converts the wire request. It reports the offending field when a
// timestamp or duration cannot be parsed.
func (r meetingRequest) toInput() (application.MeetingInput, string, error) {
	start, err := parseInstant(r.StartDate)
	if err != nil {
		return application.MeetingInput{}, "start_date", errInvalidTimestamp
	}
	duration, err := time.ParseDuration(strings.TrimSpace(r.Duration))
	if err != nil {
		return application.MeetingInput{}, "duration", errInvalidDuration
	}
	return application.MeetingInput{
		Subject:    r.Subject,
		Content:    r.Content,
		RoomID:     strings.TrimSpace(r.RoomID),
		StartDate:  start,
		Duration:   duration,
		InviteeIDs: r.InviteeIDs,
	}, "", nil
}

type respondRequest struct {
	Status string `json:"status"`
}

type meetingResponse struct {
	Meeting meetingDTO `json:"meeting"`
}

type listMeetingsResponse struct {
	Meetings []meetingDTO `json:"meetings"`
}

type inviteeResponse struct {
	Invitee inviteeDTO `json:"invitee"`
}

type meetingDTO struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	Content        string       `json:"content,omitempty"`
	RoomID         string       `json:"room_id"`
	RoomName       string       `json:"room_name,omitempty"`
	CreatorID      string       `json:"creator_id"`
	StartAt        string       `json:"start_at"`
	EndAt          string       `json:"end_at"`
	StartAtLocal   string       `json:"start_at_local"`
	EndAtLocal     string       `json:"end_at_local"`
	ApprovalStatus string       `json:"approval_status"`
	IsApproved     bool         `json:"is_approved"`
	ApprovedBy     *string      `json:"approved_by,omitempty"`
	ApprovedAt     *string      `json:"approved_at,omitempty"`
	DeletedAt      *string      `json:"deleted_at,omitempty"`
	Invitees       []inviteeDTO `json:"invitees,omitempty"`
}

type inviteeDTO struct {
	UserID     string  `json:"user_id"`
	Status     string  `json:"status"`
	ResponseAt *string `json:"response_at,omitempty"`
}

type conflictDTO struct {
	MeetingID string `json:"meeting_id"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
}

type availabilityResponse struct {
	RoomID     string        `json:"room_id"`
	StartAt    string        `json:"start_at"`
	EndAt      string        `json:"end_at"`
	StartLocal string        `json:"start_at_local"`
	EndLocal   string        `json:"end_at_local"`
	Available  bool          `json:"available"`
	Conflicts  []conflictDTO `json:"conflicts"`
}

func (h *MeetingHandler) toMeetingDTO(meeting application.Meeting, roomName string, invitees []application.Invitee) meetingDTO {
	dto := meetingDTO{
		ID:             meeting.ID,
		Subject:        meeting.Subject,
		Content:        meeting.Content,
		RoomID:         meeting.RoomID,
		RoomName:       roomName,
		CreatorID:      meeting.CreatorID,
		StartAt:        h.clock.utc(meeting.StartAt),
		EndAt:          h.clock.utc(meeting.EndAt),
		StartAtLocal:   h.clock.local(meeting.StartAt),
		EndAtLocal:     h.clock.local(meeting.EndAt),
		ApprovalStatus: string(meeting.ApprovalStatus),
		IsApproved:     meeting.IsApproved,
		ApprovedBy:     meeting.ApprovedBy,
		ApprovedAt:     h.clock.utcPtr(meeting.ApprovedAt),
		DeletedAt:      h.clock.utcPtr(meeting.DeletedAt),
	}
	for _, invitee := range invitees {
		dto.Invitees = append(dto.Invitees, h.toInviteeDTO(invitee))
	}
	return dto
}

func (h *MeetingHandler) toInviteeDTO(invitee application.Invitee) inviteeDTO {
	return inviteeDTO{
		UserID:     invitee.UserID,
		Status:     invitee.Status.String(),
		ResponseAt: h.clock.utcPtr(invitee.ResponseAt),
	}
}
