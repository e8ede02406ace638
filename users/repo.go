package users

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrLinkTaken       = errors.New("provider link already exists")
	ErrAlreadyVerified = errors.New("user already verified")
)

// Repo persists users and their provider links. All mutations must be
// conditionally guarded at the store: multiple requests for the same user or
// external identity can race, and the store is the only shared resource
// across process instances.
type Repo interface {
	// Create inserts a new user. Returns ErrEmailTaken when the email is
	// already registered (unique-constraint guarded).
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetVerified flips the verified flag with a conditional write. Returns
	// ErrAlreadyVerified when the flag was already set, so exactly one of any
	// number of concurrent calls succeeds.
	SetVerified(ctx context.Context, id string) error

	// BumpGeneration atomically increments the refresh-token generation and
	// returns the new value. Single-statement increment, never read-modify-write.
	BumpGeneration(ctx context.Context, id string) (int64, error)

	// GetByProviderLink returns the user linked to (providerID, subjectID),
	// or ErrNotFound.
	GetByProviderLink(ctx context.Context, providerID int64, subjectID string) (*User, error)

	// CreateWithLink inserts the user and its provider link in one atomic
	// step. Returns ErrLinkTaken when another request linked the same
	// external identity first (callers refetch on that error) and
	// ErrEmailTaken when the asserted email is already registered.
	CreateWithLink(ctx context.Context, user *User, providerID int64, subjectID string) error
}
