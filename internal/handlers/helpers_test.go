package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/benx421/billpay/internal/models"
	"github.com/benx421/billpay/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePurchaser is a canned service.Purchaser.
type fakePurchaser struct {
	submitResult *service.SubmitResult
	submitErr    error
	txn          *models.Transaction
	getErr       error
	submitted    []service.SubmitRequest
}

func (f *fakePurchaser) Submit(_ context.Context, req service.SubmitRequest) (*service.SubmitResult, error) {
	f.submitted = append(f.submitted, req)
	return f.submitResult, f.submitErr
}

func (f *fakePurchaser) GetPurchase(context.Context, string) (*models.Transaction, error) {
	return f.txn, f.getErr
}

// fakeProcessor records webhook notifications.
type fakeProcessor struct {
	err      error
	received []service.Notification
}

func (f *fakeProcessor) Process(_ context.Context, n service.Notification) error {
	f.received = append(f.received, n)
	return f.err
}
