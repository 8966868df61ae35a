package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AccessMetrics records identity and tenancy resolution outcomes.
type AccessMetrics struct {
	authFailures     *prometheus.CounterVec
	tenantDecisions  *prometheus.CounterVec
	impersonations   *prometheus.CounterVec
}

// NewAccessMetrics registers the access metrics on the provided registerer.
func NewAccessMetrics(reg prometheus.Registerer) *AccessMetrics {
	if reg == nil {
		return &AccessMetrics{}
	}
	authFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Authentication failures by error code.",
	}, []string{"code"})
	tenantDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenant_decisions_total",
		Help: "Tenant access decisions by outcome.",
	}, []string{"outcome"})
	impersonations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impersonation_transitions_total",
		Help: "Impersonation state transitions.",
	}, []string{"transition"})
	reg.MustRegister(authFailures, tenantDecisions, impersonations)
	return &AccessMetrics{
		authFailures:     authFailures,
		tenantDecisions:  tenantDecisions,
		impersonations:   impersonations,
	}
}

// IncAuthFailure increments the auth failure counter for the given code.
func (m *AccessMetrics) IncAuthFailure(code string) {
	if m == nil || m.authFailures == nil {
		return
	}
	m.authFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncTenantDecision increments the tenancy outcome counter.
func (m *AccessMetrics) IncTenantDecision(outcome string) {
	if m == nil || m.tenantDecisions == nil {
		return
	}
	m.tenantDecisions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncImpersonation increments the impersonation transition counter.
func (m *AccessMetrics) IncImpersonation(transition string) {
	if m == nil || m.impersonations == nil {
		return
	}
	m.impersonations.WithLabelValues(normalizeLabel(transition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
