package identity

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/db"
)

// RoleFallback is the role label reported for a user with no role row.
const RoleFallback = "member"

// UserSummary is the client-facing identity slice embedded in a login
// response.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResult carries the minted session tokens.
type AuthResult struct {
	AccessToken    string      `json:"access"`
	AccessExpires  time.Time   `json:"access_expires"`
	RefreshToken   string      `json:"refresh"`
	RefreshExpires time.Time   `json:"refresh_expires"`
	User           UserSummary `json:"user"`
}

// Authenticator performs credential login behind the lockout tracker and
// mints session tokens.
type Authenticator struct {
	dbAuth      db.DbAuth
	lockout     LockoutTracker
	secret      []byte
	accessDur   time.Duration
	refreshDur  time.Duration
	rememberDur time.Duration
	logger      *slog.Logger
}

func NewAuthenticator(dbAuth db.DbAuth, lockout LockoutTracker, cfg *config.Config, logger *slog.Logger) (*Authenticator, error) {
	if len(cfg.Jwt.AuthSecret) < crypto.MinKeyLength {
		return nil, fmt.Errorf("auth secret must be at least %d bytes", crypto.MinKeyLength)
	}
	return &Authenticator{
		dbAuth:      dbAuth,
		lockout:     lockout,
		secret:      []byte(cfg.Jwt.AuthSecret),
		accessDur:   cfg.Jwt.AccessTokenDuration.Duration,
		refreshDur:  cfg.Jwt.RefreshTokenDuration.Duration,
		rememberDur: cfg.Jwt.RefreshTokenRememberDuration.Duration,
		logger:      logger,
	}, nil
}

// Login authenticates an email/password pair. The lockout tracker is
// consulted before touching the credential store and rechecked after a
// failure, since the failed attempt itself can cross the threshold.
//
// Access tokens always get the short lifetime; remember only extends the
// refresh token.
func (a *Authenticator) Login(email, password string, remember bool, ip string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	key := LockoutKey(ip, email)

	if a.lockout.IsLocked(key) {
		return nil, ErrLocked
	}

	user, err := a.dbAuth.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("lookup user for login: %w", err)
	}
	if user == nil || !crypto.CheckPassword(password, user.Password) {
		a.lockout.RecordFailure(key)
		if a.lockout.IsLocked(key) {
			return nil, ErrLocked
		}
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactive
	}

	a.lockout.Reset(key)
	return a.mintSession(user, remember)
}

// Refresh exchanges a live refresh token for a fresh access token.
func (a *Authenticator) Refresh(refreshToken string) (*AuthResult, error) {
	claims, err := crypto.ParseJwt(refreshToken, a.secret)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}
	if err := crypto.ValidateTokenType(claims, crypto.ClaimTypeRefresh); err != nil {
		return nil, ErrInvalidOrExpiredToken
	}
	userID, ok := claims[crypto.ClaimUserID].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := a.dbAuth.GetUserById(userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user for refresh: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidOrExpiredToken
	}
	if !user.IsActive {
		return nil, ErrInactive
	}

	role, err := a.roleLabel(user.ID)
	if err != nil {
		return nil, err
	}
	access, accessExp, err := crypto.NewAccessToken(user.ID, user.Email, role, user.Staff, a.secret, a.accessDur)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	return &AuthResult{
		AccessToken:   access,
		AccessExpires: accessExp,
		User:          UserSummary{ID: user.ID, Email: user.Email, Role: role},
	}, nil
}

func (a *Authenticator) mintSession(user *db.User, remember bool) (*AuthResult, error) {
	role, err := a.roleLabel(user.ID)
	if err != nil {
		return nil, err
	}

	access, accessExp, err := crypto.NewAccessToken(user.ID, user.Email, role, user.Staff, a.secret, a.accessDur)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refreshDur := a.refreshDur
	if remember {
		refreshDur = a.rememberDur
	}
	refresh, refreshExp, err := crypto.NewRefreshToken(user.ID, a.secret, refreshDur)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
		User:           UserSummary{ID: user.ID, Email: user.Email, Role: role},
	}, nil
}

func (a *Authenticator) roleLabel(userID string) (string, error) {
	role, err := a.dbAuth.GetUserRole(userID)
	if err != nil {
		return "", fmt.Errorf("lookup user role: %w", err)
	}
	if role == "" {
		return RoleFallback, nil
	}
	return role, nil
}
