package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bigmini/auth-service/email"
	"github.com/bigmini/auth-service/identity"
	"github.com/bigmini/auth-service/providers"
	"github.com/bigmini/auth-service/token"
	"github.com/bigmini/auth-service/users"
)

// Identity is the outcome of authenticating a caller: which internal user
// they are and the refresh-token generation current at that moment.
type Identity struct {
	UserID     string
	Generation int64
}

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users     users.Repo
	Providers providers.Repo
}

// Service is the core of the system: identity federation, local credentials,
// and the token lifecycle. The HTTP layer is a thin adapter over it.
type Service struct {
	repos      Repos
	tokens     *token.Manager
	resolver   *identity.Resolver
	mail       email.Sender
	appBaseURL string
	logger     zerolog.Logger
	newID      func() string
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAppBaseURL sets the frontend base URL used to build verification links.
func WithAppBaseURL(baseURL string) ServiceOption {
	return func(s *Service) {
		s.appBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithIDGenerator overrides user-id generation (primarily for testing).
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService initializes the core service with its required collaborators.
func NewService(repos Repos, tokens *token.Manager, mail email.Sender, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Providers == nil {
		return nil, errors.New("[NewService] Providers repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if mail == nil {
		return nil, errors.New("[NewService] mail sender is required")
	}

	s := &Service{
		repos:      repos,
		tokens:     tokens,
		mail:       mail,
		appBaseURL: "http://localhost:3000",
		logger:     zerolog.Nop(),
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(s)
	}

	resolver, err := identity.NewResolver(repos.Providers, repos.Users, identity.WithIDGenerator(s.newID))
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] identity.NewResolver")
	}
	s.resolver = resolver
	return s, nil
}

// ResolveIdentity maps a verified provider assertion to an internal user,
// creating the user on first login. Idempotent per (provider, subject).
func (s *Service) ResolveIdentity(ctx context.Context, assertion identity.Assertion) (Identity, error) {
	userID, generation, err := s.resolver.Resolve(ctx, assertion)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUnknownProvider):
			return Identity{}, errors.Wrap(ErrUnknownProvider, assertion.Provider)
		case errors.Is(err, identity.ErrEmailConflict):
			return Identity{}, ErrEmailInUse
		}
		return Identity{}, storeErr("ResolveIdentity", err)
	}
	s.logger.Info().Str("user_id", userID).Str("provider", assertion.Provider).Msg("identity resolved")
	return Identity{UserID: userID, Generation: generation}, nil
}

// Signup registers a local email/password account and sends the verification
// mail. The user row is only created after the mail is accepted for delivery:
// an account nobody can ever verify must not exist.
func (s *Service) Signup(ctx context.Context, emailAddr, password string) error {
	emailAddr = normalizeEmail(emailAddr)

	if _, err := s.repos.Users.GetByEmail(ctx, emailAddr); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, users.ErrNotFound) {
		return storeErr("Signup GetByEmail", err)
	}

	userID := s.newID()
	verificationToken, err := s.tokens.IssueVerification(userID)
	if err != nil {
		return errors.Wrap(err, "[Signup] IssueVerification")
	}

	verificationURL := s.appBaseURL + "/verify/" + verificationToken
	if err := s.mail.SendVerification(ctx, emailAddr, verificationURL); err != nil {
		return errors.Wrap(ErrEmailDelivery, err.Error())
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[Signup] HashPassword")
	}

	err = s.repos.Users.Create(ctx, &users.User{
		ID:           userID,
		Email:        emailAddr,
		PasswordHash: passwordHash,
		Verified:     false,
		Generation:   1,
	})
	if err != nil {
		// Concurrent signup with the same email won the constraint.
		if errors.Is(err, users.ErrEmailTaken) {
			return ErrEmailInUse
		}
		return storeErr("Signup Create", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("signup: verification email sent")
	return nil
}

// VerifyEmail consumes a verification token. It succeeds exactly once per
// user, even under concurrent use of the same token: the store flips the
// verified flag with a conditional write and only the winning call gets nil.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	userID, err := s.tokens.ValidateVerification(rawToken)
	if err != nil {
		return errors.Wrap(ErrInvalidOrExpiredToken, err.Error())
	}

	if err := s.repos.Users.SetVerified(ctx, userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, users.ErrAlreadyVerified):
			return ErrAlreadyVerified
		}
		return storeErr("VerifyEmail SetVerified", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("email verified")
	return nil
}

// Login checks local credentials. Unknown email and wrong password return
// the identical error, and both cost one bcrypt comparison.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (Identity, error) {
	emailAddr = normalizeEmail(emailAddr)

	user, err := s.repos.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			users.CompareDummy(password)
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, storeErr("Login GetByEmail", err)
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}

	s.logger.Info().Str("user_id", user.ID).Msg("login")
	return Identity{UserID: user.ID, Generation: user.Generation}, nil
}

// IssueTokenPair mints an access/refresh pair for an authenticated identity.
func (s *Service) IssueTokenPair(userID string, generation int64) (token.Pair, error) {
	pair, err := s.tokens.IssuePair(userID, generation)
	if err != nil {
		return token.Pair{}, errors.Wrap(err, "[IssueTokenPair]")
	}
	return pair, nil
}

// ValidateAccessToken verifies an access token and returns the user id it
// asserts. Stateless fast path: revocation never applies to access tokens,
// which is why they are short-lived.
func (s *Service) ValidateAccessToken(rawToken string) (string, error) {
	userID, err := s.tokens.ValidateAccess(rawToken)
	if err != nil {
		return "", mapTokenErr(err)
	}
	return userID, nil
}

// RefreshTokenPair exchanges a valid refresh token for a fresh pair. The new
// pair is minted under the user's CURRENT generation; renewal neither bumps
// the generation nor invalidates the presented token, so a refresh token
// stays usable until it expires or the user's sessions are revoked. Weaker
// than single-use rotation, and deliberate: only explicit revocation cuts
// tokens off.
func (s *Service) RefreshTokenPair(ctx context.Context, rawToken string) (token.Pair, error) {
	userID, tokenGeneration, err := s.tokens.ValidateRefresh(rawToken)
	if err != nil {
		return token.Pair{}, mapTokenErr(err)
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return token.Pair{}, ErrUserNotFound
		}
		return token.Pair{}, storeErr("RefreshTokenPair GetByID", err)
	}

	if tokenGeneration != user.Generation {
		return token.Pair{}, ErrStaleToken
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Generation)
	if err != nil {
		return token.Pair{}, errors.Wrap(err, "[RefreshTokenPair] IssuePair")
	}
	return pair, nil
}

// RevokeAllSessions bumps the user's refresh-token generation, permanently
// invalidating every refresh token minted before this call. Already-issued
// access tokens stay valid until their own expiry; callers must treat
// revocation as taking up to one access-token lifetime to fully land.
func (s *Service) RevokeAllSessions(ctx context.Context, userID string) error {
	generation, err := s.repos.Users.BumpGeneration(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUserNotFound
		}
		return storeErr("RevokeAllSessions", err)
	}
	s.logger.Info().Str("user_id", userID).Int64("generation", generation).Msg("sessions revoked")
	return nil
}

func mapTokenErr(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return ErrTokenExpired
	}
	return errors.Wrap(ErrInvalidToken, err.Error())
}

func storeErr(op string, err error) error {
	return errors.Wrapf(ErrStoreUnavailable, "%s: %v", op, err)
}

func normalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}
