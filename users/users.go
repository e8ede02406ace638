package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string    `json:"id,omitempty"`    // Unique identifier for the user
	Email        string    `json:"email,omitempty"` // Empty for federated identities whose provider withheld it
	PasswordHash string    `json:"-"`               // Hashed version of the user's password - never serialize
	Verified     bool      `json:"verified,omitempty"`
	Generation   int64     `json:"-"` // Refresh-token generation; starts at 1, bumped on revocation
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// dummyHash is a valid bcrypt digest of a throwaway string. Login compares
// against it when the email is unknown so the unknown-email and
// wrong-password paths cost the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// CompareDummy burns one bcrypt comparison and always reports a mismatch.
func CompareDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
	return false
}
