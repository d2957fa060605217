package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/jwtx"
	"github.com/pgnest/pgnest/pkg/slogx"

	_ "github.com/pgnest/pgnest/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	TokenService      *service.TokenService
	UserService       *service.UserService
	OnboardingService *service.OnboardingService
	MFAService        *service.MFAService
	BootstrapService  *service.BootstrapService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerOnboarding()
	r.registerMFA()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			PGNest Auth Service API
//	@version		0.1.0
//	@description	Authentication and session lifecycle service for the PGNest hostel management platform.
//	@description
//	@description				Access tokens are short-lived JWTs verifiable against the JWKS endpoint.
//	@description				Refresh tokens are opaque, single use, and rotated on every refresh.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /login - strict rate limit by IP to slow credential stuffing
	loginHandler := &LoginHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /mfa - strict rate limit by IP (OTP brute force)
	mfaHandler := &MFACompleteHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/auth/mfa",
		httpx.Chain(mfaHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - strict rate limit by IP
	refreshHandler := &RefreshHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - moderate rate limit
	logoutHandler := &LogoutHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /me - authenticated, any role
	meHandler := &MeHandler{UserService: r.UserService}
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RoleResident.String(), domain.RoleAdmin.String(), domain.RoleSuperAdmin.String()),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /password - authenticated, strict limit (password guessing)
	passwordHandler := &ChangePasswordHandler{UserService: r.UserService}
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(passwordHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	// GET /users - staff only, scoped inside the service
	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole(domain.RoleAdmin.String(), domain.RoleSuperAdmin.String()),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/users", secured)
}

func (r *Router) registerOnboarding() {
	mintHandler := &OnboardingMintHandler{OnboardingService: r.OnboardingService, UserService: r.UserService}
	redeemHandler := &OnboardingRedeemHandler{OnboardingService: r.OnboardingService, TokenService: r.TokenService}

	// POST /onboarding/tokens - staff operation
	securedMint := httpx.Chain(mintHandler,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole(domain.RoleAdmin.String(), domain.RoleSuperAdmin.String()),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/onboarding/tokens", securedMint)

	// POST /onboarding/redeem - public signup endpoint, strict limit by IP
	r.Mux.Handle("POST /v1/onboarding/redeem",
		httpx.Chain(redeemHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	// POST /mfa/totp/enroll - staff operation
	securedEnroll := httpx.Chain(http.HandlerFunc(h.HandleEnroll),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole(domain.RoleAdmin.String(), domain.RoleSuperAdmin.String()),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// POST /mfa/totp/verify - strict limit (TOTP brute force)
	securedVerify := httpx.Chain(http.HandlerFunc(h.HandleVerify),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)

	// POST /mfa/backup-codes - regenerate
	securedRegenerate := httpx.Chain(http.HandlerFunc(h.HandleRegenerateBackupCodes),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// DELETE /mfa/totp - remove
	securedRemove := httpx.Chain(http.HandlerFunc(h.HandleRemove),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/mfa/totp/enroll", securedEnroll)
	r.Mux.Handle("POST /v1/mfa/totp/verify", securedVerify)
	r.Mux.Handle("POST /v1/mfa/backup-codes", securedRegenerate)
	r.Mux.Handle("DELETE /v1/mfa/totp", securedRemove)
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - one-time setup endpoint, strict limit
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
