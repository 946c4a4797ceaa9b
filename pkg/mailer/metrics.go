package mailer

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/courier/pkg/template"
)

// Failure reasons reported in the failed counter.
const (
	ReasonClosed     = "closed"
	ReasonInvalid    = "invalid"
	ReasonTemplate   = "template"
	ReasonAttachment = "attachment"
	ReasonTransport  = "transport"
	ReasonCanceled   = "canceled"
	ReasonUnknown    = "unknown"
)

// Metrics holds the prometheus collectors for a mailer.
type Metrics struct {
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates mailer collectors and registers them with reg.
// Collectors already registered under the same names are reused, so several
// mailers can share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "mail",
		Name:      "sent_total",
		Help:      "Total number of emails accepted by the transport",
	}, []string{"transport"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "mail",
		Name:      "failed_total",
		Help:      "Total number of emails that failed, by reason",
	}, []string{"transport", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "courier",
		Subsystem: "mail",
		Name:      "send_duration_seconds",
		Help:      "Time spent preparing and sending one email",
		Buckets:   prometheus.DefBuckets,
	}, []string{"transport"})

	var err error
	if sent, err = register(reg, sent); err != nil {
		return nil, err
	}
	if failed, err = register(reg, failed); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{sent: sent, failed: failed, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (mt *Metrics) observe(transport string, res SendResult, elapsed time.Duration) {
	if mt == nil {
		return
	}
	mt.duration.WithLabelValues(transport).Observe(elapsed.Seconds())
	if res.Success {
		mt.sent.WithLabelValues(transport).Inc()
		return
	}
	mt.failed.WithLabelValues(transport, FailureReason(res.Err)).Inc()
}

// FailureReason classifies a send error into a low-cardinality label.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMailerClosed):
		return ReasonClosed
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrNoContent):
		return ReasonInvalid
	case errors.Is(err, template.ErrCompile),
		errors.Is(err, template.ErrRender),
		errors.Is(err, template.ErrInvalidData):
		return ReasonTemplate
	case errors.Is(err, ErrAttachment):
		return ReasonAttachment
	case errors.Is(err, ErrTransport):
		return ReasonTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonUnknown
	}
}
