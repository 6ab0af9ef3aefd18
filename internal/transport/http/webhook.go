package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
	"github.com/samber/lo"
)

const (
	signatureHeader       = "X-Signature"
	legacySignatureHeader = "X-Line-Signature"
)

// handleWebhook authenticates the raw body before parsing it, so a request
// that fails the signature check never reaches the event handlers.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.WebhookMaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(signatureHeader)
	if signature == "" {
		signature = r.Header.Get(legacySignatureHeader)
	}

	entry, err := s.registry.Authenticate(body, signature)
	switch {
	case errors.Is(err, apperrors.ErrNoChannelsConfigured):
		writeText(w, http.StatusOK, "No channels configured")
		return
	case errors.Is(err, apperrors.ErrMissingSignature):
		writeText(w, http.StatusUnauthorized, "No signature")
		return
	case errors.Is(err, apperrors.ErrNoMatchingChannel):
		slog.Warn("Webhook signature rejected", "remote_addr", r.RemoteAddr)
		writeText(w, http.StatusUnauthorized, "Invalid signature")
		return
	case err != nil:
		slog.Error("Webhook authentication failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var payload line.Webhook
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Warn("Malformed webhook payload", "channel_id", entry.Channel.ID, "error", err)
		writeText(w, http.StatusBadRequest, "Bad Request")
		return
	}

	outcomes := s.events.HandleWebhook(r.Context(), entry, payload.Events)
	slog.Info("Webhook processed",
		"channel_id", entry.Channel.ID,
		"channel_name", entry.Channel.Name,
		"events", len(payload.Events),
		"outcomes", lo.CountValues(outcomes),
	)

	writeText(w, http.StatusOK, "OK")
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, text)
}
