package core

import (
	"net/http"

	"github.com/keilerkonzept/topk/sliding"

	"github.com/startupgate/startupgate/router"
	"github.com/startupgate/startupgate/topk"
)

// Routes mounts every API endpoint with its middleware chain. The
// blocklist and sketch are built here so a single pair backs every
// guarded route.
func (a *App) Routes(r *router.Router) {
	cfg := a.Config()

	chain := func(h http.Handler) http.Handler { return h }
	if cfg.BlockIp.Activated {
		sketch := topk.NewSketch(
			sliding.New(cfg.BlockIp.K, cfg.BlockIp.Window),
			cfg.BlockIp.TickSize,
		)
		block := a.BlockAbusive(sketch, NewBlockList())
		chain = func(h http.Handler) http.Handler { return block(h) }
	}
	limited := a.RateLimit(NewRateLimiter(cfg.RateLimits.PerIPPerSecond, cfg.RateLimits.Burst))

	// Unauthenticated flows sit behind the rate limiter; the
	// throttles inside them are per-email and would not stop a raw
	// request flood on their own.
	r.Post("/api/register", chain(limited(http.HandlerFunc(a.RegisterHandler))))
	r.Get("/api/verify-email", chain(limited(http.HandlerFunc(a.VerifyEmailHandler))))
	r.Post("/api/verify-email", chain(limited(http.HandlerFunc(a.VerifyEmailHandler))))
	r.Post("/api/resend-verification", chain(limited(http.HandlerFunc(a.ResendVerificationHandler))))
	r.Post("/api/login", chain(limited(http.HandlerFunc(a.LoginHandler))))
	r.Post("/api/refresh", chain(limited(http.HandlerFunc(a.RefreshHandler))))
	r.Post("/api/request-password-reset", chain(limited(http.HandlerFunc(a.RequestPasswordResetHandler))))
	r.Post("/api/confirm-password-reset", chain(limited(http.HandlerFunc(a.ConfirmPasswordResetHandler))))

	// Session-scoped routes.
	r.Get("/api/me", chain(a.RequireAuth(http.HandlerFunc(a.MeHandler))))
	r.Patch("/api/projects/:id/status", chain(a.RequireAuth(http.HandlerFunc(a.UpdateProjectStatusHandler))))
	r.Patch("/api/projects/:id/raised-amount", chain(a.RequireAuth(http.HandlerFunc(a.UpdateRaisedAmountHandler))))
}
