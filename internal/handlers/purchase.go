package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benx421/billpay/internal/models"
	"github.com/benx421/billpay/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type purchaseRequest struct {
	UserID      string `json:"user_id"`
	Target      string `json:"target"`
	AmountCents int64  `json:"amount_cents"`
	RequestID   string `json:"request_id,omitempty"`
}

// CreatePurchase handles POST /api/v1/purchases/{category}
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, service.ErrCodeInvalidCategory, "unknown purchase category")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_body", "malformed request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_user_id", "user_id must be a UUID")
		return
	}

	result, err := h.purchaseService.Submit(r.Context(), service.SubmitRequest{
		UserID:      userID,
		Category:    category,
		Target:      req.Target,
		AmountCents: req.AmountCents,
		RequestID:   req.RequestID,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Status == models.TransactionStatusPending {
		status = http.StatusAccepted
	}

	respondJSON(w, h.logger, status, result)
}

// GetPurchase handles GET /api/v1/purchases/{requestId}
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	txn, err := h.purchaseService.GetPurchase(r.Context(), mux.Vars(r)["requestId"])
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"request_id":            txn.RequestID,
		"user_id":               txn.UserID.String(),
		"category":              txn.Category,
		"status":                txn.Status,
		"provider_amount_cents": txn.ProviderAmountCents,
		"charged_amount_cents":  txn.ChargedAmountCents,
		"provider_reference":    txn.ProviderReference,
		"retry_count":           txn.RetryCount,
		"created_at":            txn.CreatedAt,
		"updated_at":            txn.UpdatedAt,
	})
}

// GetWallet handles GET /api/v1/wallets/{userId}
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_user_id", "user id must be a UUID")
		return
	}

	wallet, err := h.walletRepo.FindByUserID(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, http.StatusNotFound, service.ErrCodeWalletNotFound, "wallet not found")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"user_id":               wallet.UserID.String(),
		"current_balance_cents": wallet.CurrentBalanceCents,
		"updated_at":            wallet.UpdatedAt,
	})
}
