package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/benx421/billpay/internal/config"
)

// httpBiller talks to the biller's REST API. Pay and requery calls carry the
// configured timeout via the underlying http.Client; a transport error or
// timeout surfaces to the caller as a plain error.
type httpBiller struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds the biller client for the variant selected in configuration.
func New(cfg *config.ProviderConfig, logger *slog.Logger) (Biller, error) {
	base := cfg.BaseURL()
	if base == "" {
		return nil, fmt.Errorf("no biller endpoint configured for mode %s", cfg.Mode)
	}

	logger.Info("biller client configured",
		"mode", string(cfg.Mode),
		"base_url", base,
		"timeout", cfg.Timeout,
	)

	return &httpBiller{
		baseURL:   base,
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// Pay submits a purchase to the biller.
func (b *httpBiller) Pay(ctx context.Context, req PayRequest) (*Response, error) {
	body := map[string]any{
		"request_id": req.RequestID,
		"category":   string(req.Category),
		"target":     req.Target,
		"amount":     req.AmountCents,
	}

	b.logger.Info("submitting purchase to biller",
		"request_id", req.RequestID,
		"category", string(req.Category),
	)

	return b.post(ctx, "/pay", body)
}

// Requery fetches the current state of a previously submitted purchase.
func (b *httpBiller) Requery(ctx context.Context, requestID string) (*Response, error) {
	body := map[string]any{
		"request_id": requestID,
	}

	b.logger.Debug("requerying biller", "request_id", requestID)

	return b.post(ctx, "/requery", body)
}

func (b *httpBiller) post(ctx context.Context, path string, body map[string]any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal biller request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create biller request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("secret-key", b.secretKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("biller request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read biller response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("biller returned status %d: %s", resp.StatusCode, raw)
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode biller response: %w", err)
	}
	decoded.Raw = raw

	return &decoded, nil
}
