package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	broadcastDomain "github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/oops"
)

const maxAdminBody = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// writeError maps domain errors to a status code and an operator-facing
// message. Unknown errors are logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "เกิดข้อผิดพลาดภายในระบบ"

	switch {
	case errors.Is(err, apperrors.ErrChannelNotFound),
		errors.Is(err, apperrors.ErrRuleNotFound),
		errors.Is(err, apperrors.ErrRecordNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrChannelDisabled):
		status, message = http.StatusBadRequest, "ไม่พบ Channel หรือ Channel ถูกปิดการใช้งาน"
	case errors.Is(err, apperrors.ErrMulticastCapacity):
		status, message = http.StatusBadRequest, broadcastDomain.ReasonMulticastCapacity
	case errors.Is(err, apperrors.ErrInvalidContent):
		status, message = http.StatusBadRequest, "รูปแบบข้อความไม่ถูกต้อง: "+err.Error()
	}

	if status == http.StatusInternalServerError {
		slog.Error("Admin request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody))
	if err := dec.Decode(v); err != nil {
		return oops.With("context", "malformed request body").Wrap(errors.Join(apperrors.ErrInvalidContent, err))
	}
	return nil
}
