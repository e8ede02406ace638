package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bigmini/auth-service/providers"
	"github.com/bigmini/auth-service/users"
)

var (
	ErrUnknownProvider = errors.New("unknown identity provider")

	// ErrEmailConflict means the asserted email already belongs to an account
	// that is not linked to this external identity.
	ErrEmailConflict = errors.New("email already registered to another account")
)

// Resolver maps a provider assertion to a stable internal user. It is the
// only place where identity-to-user mapping logic lives.
type Resolver struct {
	providers providers.Repo
	users     users.Repo
	newID     func() string
}

type ResolverOption func(*Resolver)

// WithIDGenerator overrides user-id generation (primarily for testing).
func WithIDGenerator(newID func() string) ResolverOption {
	return func(r *Resolver) {
		r.newID = newID
	}
}

func NewResolver(providerRepo providers.Repo, userRepo users.Repo, options ...ResolverOption) (*Resolver, error) {
	if providerRepo == nil {
		return nil, errors.New("[NewResolver] provider repo is required")
	}
	if userRepo == nil {
		return nil, errors.New("[NewResolver] user repo is required")
	}

	r := &Resolver{
		providers: providerRepo,
		users:     userRepo,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Resolve finds or creates the internal user for a verified assertion and
// returns its id and current refresh-token generation. Resolving the same
// (provider, subject) twice returns the same user, including under concurrent
// first logins: creation races are settled by the store's link constraint and
// lost races refetch the winner's row.
func (r *Resolver) Resolve(ctx context.Context, assertion Assertion) (string, int64, error) {
	provider, err := r.providers.GetByName(ctx, assertion.Provider)
	if err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return "", 0, errors.Wrap(ErrUnknownProvider, assertion.Provider)
		}
		return "", 0, errors.Wrap(err, "[Resolve] providers.GetByName")
	}

	user, err := r.users.GetByProviderLink(ctx, provider.ID, assertion.SubjectID)
	if err == nil {
		return user.ID, user.Generation, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return "", 0, errors.Wrap(err, "[Resolve] users.GetByProviderLink")
	}

	// First login from this external identity. Federated users are created
	// verified: the provider already asserted the email.
	newUser := &users.User{
		ID:         r.newID(),
		Email:      assertion.Email,
		Verified:   true,
		Generation: 1,
	}
	err = r.users.CreateWithLink(ctx, newUser, provider.ID, assertion.SubjectID)
	if err == nil {
		return newUser.ID, newUser.Generation, nil
	}
	if errors.Is(err, users.ErrEmailTaken) {
		return "", 0, errors.Wrap(ErrEmailConflict, assertion.Email)
	}
	if !errors.Is(err, users.ErrLinkTaken) {
		return "", 0, errors.Wrap(err, "[Resolve] users.CreateWithLink")
	}

	// Lost the race; the link now exists.
	user, err = r.users.GetByProviderLink(ctx, provider.ID, assertion.SubjectID)
	if err != nil {
		return "", 0, errors.Wrap(err, "[Resolve] refetch after link conflict")
	}
	return user.ID, user.Generation, nil
}
