// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchasesTotal counts purchase submissions by category and final
	// classification of the synchronous path.
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billpay_purchases_total",
		Help: "Purchase submissions by category and outcome.",
	}, []string{"category", "outcome"})

	// RefundsTotal counts wallet refunds by the path that issued them.
	RefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billpay_refunds_total",
		Help: "Wallet refunds by reconciliation source.",
	}, []string{"source"})

	// RefundFailuresTotal counts refund attempts that errored. These are
	// logged and not retried, so a non-zero value needs operator attention.
	RefundFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billpay_refund_failures_total",
		Help: "Refund attempts that failed and were not retried.",
	})

	// ProviderRequestSeconds measures biller call latency per operation.
	ProviderRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billpay_provider_request_seconds",
		Help:    "Latency of biller pay and requery calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// ProviderTimeoutsTotal counts pay calls that failed at the transport
	// layer and were refunded. Each one is a potential liability mismatch if
	// the biller processed the charge anyway; reconcile against statements.
	ProviderTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billpay_provider_timeouts_total",
		Help: "Biller pay calls that failed at transport level and triggered a refund.",
	})

	// ReconciliationExhaustedTotal gauges pending rows past the retry ceiling
	// or age window. They require manual intervention.
	ReconciliationExhaustedTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "billpay_reconciliation_exhausted",
		Help: "Pending transactions no longer eligible for automatic requery.",
	})

	// WebhookDroppedTotal counts webhook notifications dropped before any
	// mutation, by reason.
	WebhookDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billpay_webhook_dropped_total",
		Help: "Webhook notifications dropped without effect.",
	}, []string{"reason"})

	// SweepSeconds measures reconciliation sweep duration.
	SweepSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "billpay_reconcile_sweep_seconds",
		Help:    "Duration of reconciliation sweeps.",
		Buckets: prometheus.DefBuckets,
	})
)
