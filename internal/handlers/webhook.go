package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/benx421/billpay/internal/service"
)

const signatureHeader = "X-Signature"

// maxWebhookBody bounds how much of a notification body is read.
const maxWebhookBody = 1 << 20

// BillerWebhook handles POST /api/v1/webhooks/biller. The body must carry a
// valid HMAC-SHA256 signature; an unverifiable notification never reaches the
// ledger.
func (h *Handler) BillerWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	if !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		h.logger.Warn("webhook with invalid signature rejected",
			"remote", r.RemoteAddr,
		)
		respondError(w, h.logger, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	var n service.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_body", "malformed notification")
		return
	}
	n.Raw = body

	if err := h.webhookService.Process(r.Context(), n); err != nil {
		h.logger.Error("failed to process webhook", "error", err)
		// Non-2xx makes the biller redeliver; processing is idempotent so a
		// retry is safe.
		respondError(w, h.logger, http.StatusInternalServerError, service.ErrCodeInternalError, "notification not processed")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	// Without a secret nothing can be verified, so nothing is accepted.
	// Config validation requires a secret in live mode.
	if h.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
