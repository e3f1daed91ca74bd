// Package metrics определяет счетчики Prometheus для платежного и
// почтового контуров. Метрики отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsInitiated количество инициированных платежей.
	PaymentsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_payments_initiated_total",
		Help: "Number of charge initiations sent to the payment gateway.",
	})

	// PaymentVerifications исходы верификации по меткам outcome.
	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_payment_verifications_total",
		Help: "Payment verification outcomes.",
	}, []string{"outcome"})

	// EmailsSent отправленные письма по типу.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_emails_sent_total",
		Help: "Emails successfully handed to the SMTP server.",
	}, []string{"kind"})

	// EmailSendFailures отправки, провалившиеся после всех повторов.
	EmailSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_email_send_failures_total",
		Help: "Email sends that failed after exhausting retries.",
	})
)
