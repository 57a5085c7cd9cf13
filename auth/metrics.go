package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	resultSuccess         = "success"
	resultInvalidPassword = "invalid_password"
	resultUnknownUser     = "unknown_user"
	resultCreated         = "created"
	resultDuplicate       = "duplicate"
	resultRoleNotFound    = "role_not_found"
	resultError           = "error"
	resultValid           = "valid"
	resultInvalid         = "invalid"
)

// Metrics holds the authentication counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	LoginAttemptsTotal    *prometheus.CounterVec
	RegistrationsTotal    *prometheus.CounterVec
	TokenValidationsTotal *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them when registry is not nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_registrations_total",
				Help: "Total number of registration requests by result",
			},
			[]string{"result"},
		),
		TokenValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_token_validations_total",
				Help: "Total number of bearer token validations by result",
			},
			[]string{"result"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.LoginAttemptsTotal,
			m.RegistrationsTotal,
			m.TokenValidationsTotal,
		)
	}

	return m
}

func (m *Metrics) observeLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRegistration(result string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) observeTokenValidation(valid bool) {
	if m == nil {
		return
	}
	result := resultInvalid
	if valid {
		result = resultValid
	}
	m.TokenValidationsTotal.WithLabelValues(result).Inc()
}
