package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/topk"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "role"
	ctxStaff  contextKey = "staff"
)

// UserIDFrom returns the authenticated user id stored by RequireAuth.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

// StaffFrom returns the staff flag stored by RequireAuth.
func StaffFrom(ctx context.Context) bool {
	staff, _ := ctx.Value(ctxStaff).(bool)
	return staff
}

// RoleFrom returns the role label stored by RequireAuth.
func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(ctxRole).(string)
	return role
}

// RequireAuth validates the Bearer access token and stores the session
// claims in the request context.
func (a *App) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJsonResponse(w, errorNoAuthHeader)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeJsonResponse(w, errorInvalidTokenFormat)
			return
		}

		claims, err := crypto.ParseJwt(tokenString, []byte(a.Config().Jwt.AuthSecret))
		if err != nil {
			if errors.Is(err, crypto.ErrJwtTokenExpired) {
				writeJsonResponse(w, errorSessionExpired)
				return
			}
			writeJsonResponse(w, errorInvalidSession)
			return
		}
		if err := crypto.ValidateTokenType(claims, crypto.ClaimTypeAccess); err != nil {
			writeJsonResponse(w, errorInvalidSession)
			return
		}
		userID, ok := claims[crypto.ClaimUserID].(string)
		if !ok || userID == "" {
			writeJsonResponse(w, errorInvalidSession)
			return
		}
		role, _ := claims[crypto.ClaimRole].(string)
		staff, _ := claims[crypto.ClaimStaff].(bool)

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxRole, role)
		ctx = context.WithValue(ctx, ctxStaff, staff)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket with stale-entry cleanup.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()
	return entry.limiter.Allow()
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		rl.mu.Lock()
		for ip, entry := range rl.limiters {
			if time.Since(entry.lastSeen) > 10*time.Minute {
				delete(rl.limiters, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests whose source IP exceeds its token bucket.
func (a *App) RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(a.getClientIP(r)) {
				writeJsonResponse(w, errorTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BlockAbusive rejects blocked IPs and feeds the top-k sketch that
// decides which IPs get blocked.
func (a *App) BlockAbusive(sketch *topk.Sketch, blocklist *BlockList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := a.getClientIP(r)
			if blocklist.Contains(ip) {
				writeJsonResponse(w, errorIpBlocked)
				return
			}
			for _, flagged := range sketch.Observe(ip) {
				a.Logger().Warn("blocking abusive ip", "ip", flagged)
				blocklist.Add(flagged)
			}
			next.ServeHTTP(w, r)
		})
	}
}
