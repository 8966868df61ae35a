package tenancy

import "github.com/mercaterra/storefront-backend/pkg/config"

// Environment classifies how tenant checks behave for a request.
type Environment string

const (
	// EnvironmentProduction enforces hostname based tenant resolution.
	EnvironmentProduction Environment = "production"
	// EnvironmentSingleTenantDev treats the platform as a trusted
	// single-tenant deployment and bypasses hostname checks.
	EnvironmentSingleTenantDev Environment = "single-tenant-dev"
)

// ParseEnvironment maps a configured environment string to a known value.
// Unknown values fall back to production so a typo never disables checks.
func ParseEnvironment(raw string) Environment {
	if Environment(raw) == EnvironmentSingleTenantDev {
		return EnvironmentSingleTenantDev
	}
	return EnvironmentProduction
}

// environmentFor classifies a single request's bare domain. The configured
// dev domain is always treated as single-tenant, whatever the deployment
// environment says.
func environmentFor(cfg config.TenancyConfig, domain string) Environment {
	if domain == cfg.DevDomain {
		return EnvironmentSingleTenantDev
	}
	return ParseEnvironment(cfg.Environment)
}
