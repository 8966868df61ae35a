package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercaterra/storefront-backend/api/controllers"
	"github.com/mercaterra/storefront-backend/api/middleware"
	"github.com/mercaterra/storefront-backend/internal/auth"
	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/internal/products"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/metrics"
)

// The router depends on behavior, not concrete services, so tests can wire
// stubs without a database or redis behind them.

type Pinger interface {
	Ping(ctx context.Context) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
}

type IdentityLoader interface {
	Load(ctx context.Context, sessionID string, state *session.State) (*identity.Identity, error)
}

type TenantResolver interface {
	Resolve(ctx context.Context, ident *identity.Identity, hostname string, route tenancy.RouteInfo) (*tenancy.Decision, error)
	Describe(ctx context.Context, ident *identity.Identity, hostname string) (*tenancy.Decision, error)
}

type ImpersonationService interface {
	Start(ctx context.Context, sessionID string, state *session.State, actor *models.User, targetID uuid.UUID) (*models.User, error)
	Exit(ctx context.Context, sessionID string, state *session.State) (*models.User, error)
}

type UserRepo interface {
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) (*models.User, error)
}

type VendorRepo interface {
	FindByDomain(ctx context.Context, domain string) (*models.Vendor, error)
}

type ProductRepo interface {
	Create(ctx context.Context, dto products.CreateProductDTO) (*models.Product, error)
	ListByVendor(ctx context.Context, q products.ListQuery) ([]models.Product, error)
	ListPublishedByVendor(ctx context.Context, q products.ListQuery) ([]models.Product, error)
}

type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            Pinger
	Cache         Pinger
	RateLimiter   RateLimiterStore
	Sessions      SessionStore
	Loader        IdentityLoader
	Resolver      TenantResolver
	Auth          AuthService
	Impersonation ImpersonationService
	Users         UserRepo
	Vendors       VendorRepo
	Products      ProductRepo
	Access        *metrics.AccessMetrics
	Registry      *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	authenticated := middleware.Authenticated(cfg.JWT, p.Sessions, p.Loader, logg, p.Access)
	tenantAccess := middleware.TenantAccess(p.Resolver, logg, p.Access)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(p.DB, p.Cache, logg))
	})

	if p.Registry != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).
			Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(authenticated).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	// Anonymous storefront catalog. Tenant resolution runs without an
	// identity; guests browse published products only.
	r.With(tenantAccess).Get("/api/storefront/products", controllers.ProductsList(p.Products, p.Vendors, cfg.Tenancy, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticated)

		// Read-only reconciliation: Describe never rejects an unresolvable
		// hostname, so this route skips the tenant middleware.
		r.Get("/auth/user", controllers.AuthUser(p.Resolver, logg))

		r.Route("/products", func(r chi.Router) {
			r.Use(tenantAccess)
			r.Get("/", controllers.ProductsList(p.Products, p.Vendors, cfg.Tenancy, logg))
			r.Post("/", controllers.ProductsCreate(p.Products, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			// While impersonating, the session presents the target's role,
			// so the durable-role gate would lock the admin out of the exit.
			// The service rejects sessions with no active impersonation.
			r.Post("/exit-impersonation", controllers.AdminExitImpersonation(p.Impersonation, p.Sessions, logg, p.Access))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Post("/impersonate/{userId}", controllers.AdminImpersonate(p.Impersonation, p.Sessions, logg, p.Access))
				r.Patch("/users/{userId}/role", controllers.AdminUpdateUserRole(p.Users, logg))
			})
		})
	})

	return r
}
