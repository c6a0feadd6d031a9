package crypto

import "golang.org/x/crypto/bcrypt"

// GenerateHash hashes a password with bcrypt at the default cost.
// bcrypt truncates input beyond 72 bytes; registration validation caps
// passwords below that.
func GenerateHash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
