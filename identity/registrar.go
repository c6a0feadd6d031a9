package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/startupgate/startupgate/crypto"
	"github.com/startupgate/startupgate/db"
)

// RegisterInput carries a registration request. Role selects which
// profile variant is created; pitch and website belong to startups only.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        string `json:"role" validate:"required,oneof=startup investor"`
	CompanyName string `json:"company_name" validate:"required,max=200"`
	ShortPitch  string `json:"short_pitch" validate:"omitempty,max=500"`
	Website     string `json:"website" validate:"omitempty,url,max=200"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
}

// Registrar creates accounts. Registration is idempotent on email:
// re-registering an existing address returns the existing user and never
// reveals to the caller that it already existed.
type Registrar struct {
	dbAuth db.DbAuth
	logger *slog.Logger
}

func NewRegistrar(dbAuth db.DbAuth, logger *slog.Logger) *Registrar {
	return &Registrar{dbAuth: dbAuth, logger: logger}
}

// Register creates an inactive, unverified user with exactly one profile
// matching the requested role. The user, the role link and the profile
// are written in one transaction.
//
// Returns (user, created, shouldSendEmail). For a duplicate email,
// created is false and shouldSendEmail follows the existing user's
// verified flag: an unverified duplicate triggers a fresh verification
// email, a verified one is accepted silently with no side effect.
func (r *Registrar) Register(input RegisterInput) (*db.User, bool, bool, error) {
	if err := validateStruct(&input); err != nil {
		return nil, false, false, err
	}
	if input.Role == db.RoleInvestor && (input.ShortPitch != "" || input.Website != "") {
		return nil, false, false, fmt.Errorf("%w: short_pitch and website are not valid for investor accounts", ErrValidation)
	}

	email := NormalizeEmail(input.Email)

	existing, err := r.dbAuth.GetUserByEmail(email)
	if err != nil {
		return nil, false, false, fmt.Errorf("lookup existing user: %w", err)
	}
	if existing != nil {
		return existing, false, !existing.Verified, nil
	}

	hash, err := crypto.GenerateHash(input.Password)
	if err != nil {
		return nil, false, false, fmt.Errorf("hash password: %w", err)
	}

	userID := newID()
	user := db.User{
		ID:       userID,
		Email:    email,
		Handle:   "user_" + strings.ToLower(newID()),
		Password: hash,
		Phone:    input.Phone,
		Verified: false,
		IsActive: false,
	}
	profile := buildProfile(input, userID)

	created, err := r.dbAuth.CreateAccount(user, input.Role, profile)
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			// Lost a race with a concurrent registration for the same
			// email. Fall back to the duplicate path.
			existing, lookupErr := r.dbAuth.GetUserByEmail(email)
			if lookupErr == nil && existing != nil {
				return existing, false, !existing.Verified, nil
			}
		}
		return nil, false, false, fmt.Errorf("create account: %w", err)
	}

	r.logger.Info("registered new account", "user_id", created.ID, "role", input.Role)
	return created, true, true, nil
}

func buildProfile(input RegisterInput, userID string) db.Profile {
	if input.Role == db.RoleInvestor {
		return db.Profile{
			Role: db.RoleInvestor,
			Investor: &db.InvestorProfile{
				ID:          newID(),
				UserID:      userID,
				CompanyName: input.CompanyName,
			},
		}
	}
	return db.Profile{
		Role: db.RoleStartup,
		Startup: &db.StartupProfile{
			ID:          newID(),
			UserID:      userID,
			CompanyName: input.CompanyName,
			ShortPitch:  input.ShortPitch,
			Website:     input.Website,
		},
	}
}
