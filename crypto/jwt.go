package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT claim constants
const (
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
	ClaimUserID    = "user_id"
	ClaimEmail     = "email"
	ClaimRole      = "role"
	ClaimStaff     = "staff"
	ClaimType      = "type"

	ClaimTypeAccess  = "access"
	ClaimTypeRefresh = "refresh"
)

var (
	// ErrJwtTokenExpired is returned when the token has expired
	ErrJwtTokenExpired = errors.New("token expired")
	// ErrJwtInvalidToken is returned when the token is invalid
	ErrJwtInvalidToken = errors.New("invalid token")
	// ErrJwtInvalidSigningMethod is returned when the signing method is not HS256
	ErrJwtInvalidSigningMethod = errors.New("unexpected signing method")
)

// NewJwt generates a signed JWT with the provided claims plus iat/exp.
func NewJwt(payload jwt.MapClaims, signingKey []byte, duration time.Duration) (string, time.Time, error) {
	if len(signingKey) < MinKeyLength {
		return "", time.Time{}, ErrInvalidSecretLength
	}

	now := time.Now()
	expirationTime := now.Add(duration)
	payload[ClaimIssuedAt] = now.Unix()
	payload[ClaimExpiresAt] = expirationTime.Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expirationTime, nil
}

// NewAccessToken mints a short-lived access token carrying the user's
// identity, role label and staff flag.
func NewAccessToken(userID, email, role string, staff bool, signingKey []byte, duration time.Duration) (string, time.Time, error) {
	claims := jwt.MapClaims{
		ClaimUserID: userID,
		ClaimEmail:  email,
		ClaimRole:   role,
		ClaimStaff:  staff,
		ClaimType:   ClaimTypeAccess,
	}
	return NewJwt(claims, signingKey, duration)
}

// NewRefreshToken mints a refresh token bound to the user id only.
func NewRefreshToken(userID string, signingKey []byte, duration time.Duration) (string, time.Time, error) {
	claims := jwt.MapClaims{
		ClaimUserID: userID,
		ClaimType:   ClaimTypeRefresh,
	}
	return NewJwt(claims, signingKey, duration)
}

// ParseJwt verifies and parses a JWT and returns its claims.
func ParseJwt(token string, verificationKey []byte) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	parsedToken, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		return verificationKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrJwtTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrJwtInvalidSigningMethod
		}
		return nil, fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}

	if claims, ok := parsedToken.Claims.(jwt.MapClaims); ok && parsedToken.Valid {
		return claims, nil
	}

	return nil, ErrJwtInvalidToken
}

// ValidateTokenType checks the presence of the user_id claim and that the
// type claim matches want. The parser validates format, signature and exp;
// presence of custom claims is our responsibility.
func ValidateTokenType(claims jwt.MapClaims, want string) error {
	userID, ok := claims[ClaimUserID].(string)
	if !ok || userID == "" {
		return fmt.Errorf("%w: missing user_id claim", ErrJwtInvalidToken)
	}
	typ, ok := claims[ClaimType].(string)
	if !ok || typ != want {
		return fmt.Errorf("%w: wrong type claim", ErrJwtInvalidToken)
	}
	return nil
}
