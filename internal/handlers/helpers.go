package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/benx421/billpay/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	respondJSON(w, logger, status, errorResponse{Error: code, Message: message})
}

// respondServiceError maps a service error to the appropriate HTTP status
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		logger.Error("unexpected error", "error", err)
		respondError(w, logger, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
		return
	}

	respondError(w, logger, statusForCode(svcErr.Code), svcErr.Code, svcErr.Message)
}

func statusForCode(code string) int {
	switch code {
	case service.ErrCodeInvalidCategory,
		service.ErrCodeInvalidAmount,
		service.ErrCodeInvalidTarget:
		return http.StatusBadRequest
	case service.ErrCodeInsufficientFunds:
		return http.StatusPaymentRequired
	case service.ErrCodeWalletNotFound, "purchase_not_found":
		return http.StatusNotFound
	case service.ErrCodeProviderRejected:
		return http.StatusUnprocessableEntity
	case service.ErrCodeProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
