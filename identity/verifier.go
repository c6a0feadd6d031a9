package identity

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/startupgate/startupgate/cache"
	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/db"
)

// Verifier issues and consumes email verification tokens and throttles
// resends. Tokens are stateless signatures over "userID:email:nonce";
// only the nonce is persisted, which gives single-use semantics: consuming
// clears it, re-issuing overwrites it and supersedes every outstanding
// token.
type Verifier struct {
	dbAuth   db.DbAuth
	throttle cache.Cache[string, bool]
	signer   *crypto.Signer
	maxAge   time.Duration
	emailTTL time.Duration
	ipTTL    time.Duration
	logger   *slog.Logger
}

func NewVerifier(dbAuth db.DbAuth, throttle cache.Cache[string, bool], cfg *config.Config, logger *slog.Logger) (*Verifier, error) {
	signer, err := crypto.NewSigner([]byte(cfg.Tokens.VerificationSecret))
	if err != nil {
		return nil, fmt.Errorf("verification signer: %w", err)
	}
	return &Verifier{
		dbAuth:   dbAuth,
		throttle: throttle,
		signer:   signer,
		maxAge:   cfg.Tokens.VerificationMaxAge.Duration,
		emailTTL: cfg.Resend.EmailTTL.Duration,
		ipTTL:    cfg.Resend.IPTTL.Duration,
		logger:   logger,
	}, nil
}

// IssueToken generates a fresh nonce, persists it on the user record and
// returns a signed verification token embedding it. Any previously issued
// token for this user stops verifying the moment the nonce is overwritten.
func (v *Verifier) IssueToken(user *db.User) (string, error) {
	nonce := crypto.RandomHex(16)
	if err := v.dbAuth.SetVerificationNonce(user.ID, nonce); err != nil {
		return "", fmt.Errorf("persist verification nonce: %w", err)
	}
	payload := user.ID + ":" + user.Email + ":" + nonce
	return v.signer.Sign(payload), nil
}

// ConsumeToken validates a verification token and flips the user to
// verified and active, clearing the nonce so the same token cannot be
// consumed twice. Every token defect returns ErrInvalidOrExpiredToken;
// only infrastructure failures surface as other errors.
func (v *Verifier) ConsumeToken(token string) (*db.User, error) {
	payload, err := v.signer.Unsign(token, v.maxAge)
	if err != nil {
		v.logger.Info("verification token rejected", "reason", err)
		return nil, ErrInvalidOrExpiredToken
	}

	// Payload is userID:email:nonce. userID and nonce cannot contain a
	// colon, so split from both ends and keep the middle as the email.
	// A two-part payload from before nonces existed lands on i == j and
	// is rejected.
	i := strings.Index(payload, ":")
	j := strings.LastIndex(payload, ":")
	if i <= 0 || j <= i || j == len(payload)-1 {
		v.logger.Info("verification token rejected", "reason", "malformed payload")
		return nil, ErrInvalidOrExpiredToken
	}
	userID, email, nonce := payload[:i], payload[i+1:j], payload[j+1:]

	user, err := v.dbAuth.GetUserById(userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user for verification: %w", err)
	}
	if user == nil {
		v.logger.Info("verification token rejected", "reason", "unknown user")
		return nil, ErrInvalidOrExpiredToken
	}
	if !strings.EqualFold(email, user.Email) {
		v.logger.Info("verification token rejected", "reason", "email mismatch", "user_id", user.ID)
		return nil, ErrInvalidOrExpiredToken
	}
	// An empty stored nonce means the token was already consumed or
	// never issued.
	if user.VerificationNonce == "" ||
		subtle.ConstantTimeCompare([]byte(nonce), []byte(user.VerificationNonce)) != 1 {
		v.logger.Info("verification token rejected", "reason", "nonce mismatch", "user_id", user.ID)
		return nil, ErrInvalidOrExpiredToken
	}

	if err := v.dbAuth.MarkVerified(user.ID); err != nil {
		return nil, fmt.Errorf("mark user verified: %w", err)
	}

	user.Verified = true
	user.IsActive = true
	user.VerificationNonce = ""
	return user, nil
}

// IsResendThrottled reports whether a resend for (email, ip) is inside a
// throttle window, and opens fresh windows when it is not. When the email
// does not belong to a known user only the IP key is set, so the cache
// cannot be probed to learn which emails exist.
func (v *Verifier) IsResendThrottled(email, ip string, emailKnown bool) bool {
	emailKey := "resend:email:" + NormalizeEmail(email)
	ipKey := "resend:ip:" + ip

	if _, found := v.throttle.Get(ipKey); found {
		return true
	}
	if emailKnown {
		if _, found := v.throttle.Get(emailKey); found {
			return true
		}
	}

	throttled := false
	if !v.throttle.SetIfAbsent(ipKey, true, 1, v.ipTTL) {
		throttled = true
	}
	if emailKnown && !v.throttle.SetIfAbsent(emailKey, true, 1, v.emailTTL) {
		throttled = true
	}
	return throttled
}
