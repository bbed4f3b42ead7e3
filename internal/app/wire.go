package app

import (
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/observability"
	"github.com/storefront/storefront/internal/products"
	"github.com/storefront/storefront/internal/rbac"
	"github.com/storefront/storefront/internal/users"
	"github.com/storefront/storefront/jobs"
)

// Deps are the external collaborators the HTTP application is built on.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Accounts users.Repository
	Products products.Repository
	// Redis backs token revocation; nil leaves logout without effect.
	Redis *redis.Client
	// Purger receives deleted products; nil purges references inline.
	Purger products.ReferencePurger
	// Inspector reports queue depth on /jobs/health when set.
	Inspector *asynq.Inspector
}

// Build wires services and handlers and returns the application router.
func Build(cfg *Config, deps Deps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewPasswordHasher(cfg.AuthHashCost, cfg.AuthHashConcurrency)

	var revocations auth.RevocationStore
	if deps.Redis != nil {
		revocations = auth.NewRedisRevocationStore(deps.Redis)
	}
	gate := auth.NewGate(issuer, revocations, logger, deps.Metrics)
	policy := rbac.Middleware{Policy: rbac.DefaultPolicy(), Logger: logger}

	usersService := users.NewService(deps.Accounts, deps.Products, hasher)
	purger := deps.Purger
	if purger == nil {
		purger = usersService
	}
	productsService := products.NewService(deps.Products, purger, logger)
	authService := auth.NewService(deps.Accounts, hasher, issuer, revocations, logger, deps.Metrics)

	authPerMinute := cfg.AuthRateLimitPerMinute
	if authPerMinute <= 0 {
		authPerMinute = 20
	}

	return NewRouter(RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthHandler:     auth.NewHandler(logger, authService, gate, RateLimit(authPerMinute)),
		UsersHandler:    users.NewHandler(logger, usersService, gate.Authenticate, policy),
		ProductsHandler: products.NewHandler(logger, productsService, gate.Authenticate, policy),
		JobHandler:      jobs.NewHandler(deps.Inspector, logger),
		Metrics:         deps.Metrics,
	}), nil
}
