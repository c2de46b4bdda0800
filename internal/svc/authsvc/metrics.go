package authsvc

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeDuplicate   = "duplicate_username"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "storage_unavailable"
	OutcomeError       = "error"
)

// Metrics counts authentication outcomes. A nil *Metrics records nothing.
type Metrics struct {
	// LoginsTotal counts login attempts by outcome.
	LoginsTotal *prometheus.CounterVec
	// RegistrationsTotal counts registration attempts by outcome.
	RegistrationsTotal *prometheus.CounterVec
	// SessionsClosedTotal counts sessions closed by logout.
	SessionsClosedTotal prometheus.Counter
}

// NewMetrics creates the auth counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Total login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Subsystem: "auth",
				Name:      "registrations_total",
				Help:      "Total registration attempts by outcome.",
			},
			[]string{"outcome"},
		),
		SessionsClosedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Subsystem: "auth",
				Name:      "sessions_closed_total",
				Help:      "Total sessions closed by logout.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.LoginsTotal, m.RegistrationsTotal, m.SessionsClosedTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register auth metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) login(err error) {
	if m != nil {
		m.LoginsTotal.WithLabelValues(outcome(err)).Inc()
	}
}

func (m *Metrics) registration(err error) {
	if m != nil {
		m.RegistrationsTotal.WithLabelValues(outcome(err)).Inc()
	}
}

func (m *Metrics) sessionsClosed(n int64) {
	if m != nil && n > 0 {
		m.SessionsClosedTotal.Add(float64(n))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrStorageUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, domain.ErrInvalidCredentials):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrDuplicateUsername):
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrNoUsername),
		errors.Is(err, domain.ErrNoPassword),
		errors.Is(err, domain.ErrUnknownRole):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
