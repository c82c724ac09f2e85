package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-booking/internal/application"
)

var (
	errBadRequestBody    = errors.New("無効なリクエスト形式です。")
	errInvalidRoomID     = errors.New("無効な会議室 ID です。")
	errInvalidMeetingID  = errors.New("無効な会議 ID です。")
	errMissingPrincipal  = errors.New("認証が必要です。")
	errInvalidTimestamp  = errors.New("日時は UTC オフセット付きの RFC3339 形式で指定してください。")
	errInvalidDuration   = errors.New("所要時間の形式が不正です。")
	errInvalidStatusBody = errors.New("回答は approved または rejected で指定してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) writeFieldError(ctx context.Context, w http.ResponseWriter, field string, err error) {
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
		Errors:    map[string]string{field: err.Error()},
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		availabilityErr *application.AvailabilityError
		vErr            *application.ValidationError
	)
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrRoomNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "ROOM_NOT_FOUND", Message: "指定された会議室が見つかりません。"})
	case errors.Is(err, application.ErrMeetingNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "MEETING_NOT_FOUND", Message: "指定された会議が見つかりません。"})
	case errors.Is(err, application.ErrInvitationNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "INVITATION_NOT_FOUND", Message: "この会議への招待が見つかりません。"})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.As(err, &availabilityErr):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode:            "ROOM_NOT_AVAILABLE",
			Message:              "指定された時間帯は既に予約されています。",
			ConflictingMeetingID: availabilityErr.ConflictingMeetingID,
		})
	case errors.Is(err, application.ErrRoomNotAvailable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BOOKING_CONFLICT",
			Message:   "同じ時間帯に別の予約が確定しました。時間を変えて再度お試しください。",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_EXISTS", Message: "同じ名前の会議室が既に存在します。"})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "入力内容に誤りがあります。",
			Errors:    localizeValidationErrors(vErr),
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "会議室名は必須です。"
	case "location is required":
		return "所在地は必須です。"
	case "capacity must be positive":
		return "収容人数は正の整数で指定してください。"
	case "subject is required":
		return "件名は必須です。"
	case "room_id is required":
		return "会議室 ID は必須です。"
	case "start_date is required":
		return "開始日時は必須です。"
	case "duration must be positive":
		return "所要時間は正の値で指定してください。"
	case "invitee ids must not be blank":
		return "招待者 ID に空の値は指定できません。"
	case "status must be approved or rejected":
		return "回答は approved または rejected で指定してください。"
	case "to must not be before from":
		return "終了日時は開始日時以降を指定してください。"
	default:
		if strings.HasPrefix(message, "capacity must not exceed ") {
			return "収容人数は " + strings.TrimPrefix(message, "capacity must not exceed ") + " 以下で指定してください。"
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode            string            `json:"error_code,omitempty"`
	Message              string            `json:"message"`
	Errors               map[string]string `json:"errors,omitempty"`
	ConflictingMeetingID string            `json:"conflicting_meeting_id,omitempty"`
}
