package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// Token classes. Each class is signed with its own key and carries its class
// in the typ claim, so a token can never be replayed as another class even if
// two keys were misconfigured to the same secret.
const (
	typAccess  = "access"
	typRefresh = "refresh"
	typVerify  = "verify"
)

// Pair is an access/refresh token pair issued together for one user.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Manager mints and validates the three token classes: short-lived access
// tokens, generation-bound refresh tokens, and single-purpose email
// verification tokens. Validation is pure; it never touches a store.
type Manager struct {
	access        Signer
	refresh       Signer
	verify        Signer
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	verifyExpiry  time.Duration
	nowFunc       func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessExpiry, refreshExpiry, verifyExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessExpiry = accessExpiry
		m.refreshExpiry = refreshExpiry
		m.verifyExpiry = verifyExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(access, refresh, verify Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		access:  access,
		refresh: refresh,
		verify:  verify,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessExpiry == 0 {
		m.accessExpiry = 15 * time.Minute
	}
	if m.refreshExpiry == 0 {
		m.refreshExpiry = 7 * 24 * time.Hour
	}
	if m.verifyExpiry == 0 {
		m.verifyExpiry = time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// IssuePair mints an access/refresh pair for a user. The refresh token embeds
// the generation it was minted under; it stays usable only while the user's
// stored generation still matches.
func (m *Manager) IssuePair(userID string, generation int64) (Pair, error) {
	now := m.nowFunc()

	accessToken, err := m.access.Sign(jwt.MapClaims{
		"sub": userID,
		"typ": typAccess,
		"iat": now.Unix(),
		"exp": now.Add(m.accessExpiry).Unix(),
	})
	if err != nil {
		return Pair{}, errors.Wrap(err, "[IssuePair] access sign")
	}

	refreshToken, err := m.refresh.Sign(jwt.MapClaims{
		"sub":        userID,
		"typ":        typRefresh,
		"generation": generation,
		"iat":        now.Unix(),
		"exp":        now.Add(m.refreshExpiry).Unix(),
	})
	if err != nil {
		return Pair{}, errors.Wrap(err, "[IssuePair] refresh sign")
	}

	return Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// IssueVerification mints a one-hour email verification token for a user id.
func (m *Manager) IssueVerification(userID string) (string, error) {
	now := m.nowFunc()
	signed, err := m.verify.Sign(jwt.MapClaims{
		"sub": userID,
		"typ": typVerify,
		"iat": now.Unix(),
		"exp": now.Add(m.verifyExpiry).Unix(),
	})
	if err != nil {
		return "", errors.Wrap(err, "[IssueVerification] sign")
	}
	return signed, nil
}

// ValidateAccess checks signature and expiry of an access token and returns
// the user id it asserts.
func (m *Manager) ValidateAccess(rawToken string) (string, error) {
	claims, err := m.parse(rawToken, m.access, typAccess)
	if err != nil {
		return "", err
	}
	return subject(claims)
}

// ValidateRefresh checks signature and expiry of a refresh token and returns
// the user id and the generation embedded at issuance. Comparing that
// generation with the stored one is the caller's job.
func (m *Manager) ValidateRefresh(rawToken string) (string, int64, error) {
	claims, err := m.parse(rawToken, m.refresh, typRefresh)
	if err != nil {
		return "", 0, err
	}
	userID, err := subject(claims)
	if err != nil {
		return "", 0, err
	}
	generation, ok := claims["generation"].(float64)
	if !ok {
		return "", 0, errors.Wrap(ErrInvalid, "missing generation claim")
	}
	return userID, int64(generation), nil
}

// ValidateVerification checks an email verification token and returns the
// user id it was issued for.
func (m *Manager) ValidateVerification(rawToken string) (string, error) {
	claims, err := m.parse(rawToken, m.verify, typVerify)
	if err != nil {
		return "", err
	}
	return subject(claims)
}

func (m *Manager) parse(rawToken string, signer Signer, typ string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, errors.Wrap(ErrInvalid, err.Error())
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(ErrInvalid, "error extracting claims")
	}
	if claimTyp, _ := claims["typ"].(string); claimTyp != typ {
		return nil, errors.Wrapf(ErrInvalid, "token is not a %s token", typ)
	}
	return claims, nil
}

func subject(claims jwt.MapClaims) (string, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.Wrap(ErrInvalid, "missing sub claim")
	}
	return sub, nil
}
