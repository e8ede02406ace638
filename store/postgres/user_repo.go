package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/bigmini/auth-service/users"
)

var _ users.Repo = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const (
	uniqueViolation = "23505"

	// Default constraint names for the schema in postgres.go.
	emailUniqueConstraint = "users_email_key"
	linkPKConstraint      = "provider_links_pkey"
)

// uniqueViolationOn reports whether err is a unique violation on the named
// constraint. Matching the constraint keeps an id collision from being
// misreported as a taken email.
func uniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, is_verified, refresh_token_generation)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)`,
		user.ID, user.Email, user.PasswordHash, user.Verified, user.Generation)
	if err != nil {
		if uniqueViolationOn(err, emailUniqueConstraint) {
			return users.ErrEmailTaken
		}
		return errors.Wrap(err, "[UserRepo.Create]")
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*users.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(email, ''), COALESCE(password_hash, ''), is_verified, refresh_token_generation, created_at
		 FROM users `+where, arg)

	var user users.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Verified, &user.Generation, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, errors.Wrap(err, "[UserRepo.get]")
	}
	return &user, nil
}

// SetVerified guards the flip in the statement itself so exactly one of any
// number of concurrent calls flips the flag.
func (r *UserRepo) SetVerified(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_verified = TRUE WHERE id = $1 AND is_verified = FALSE`, id)
	if err != nil {
		return errors.Wrap(err, "[UserRepo.SetVerified]")
	}
	if tag.RowsAffected() == 0 {
		// Either the user does not exist or a concurrent call won the flip.
		user, err := r.get(ctx, `WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if user.Verified {
			return users.ErrAlreadyVerified
		}
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepo) BumpGeneration(ctx context.Context, id string) (int64, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET refresh_token_generation = refresh_token_generation + 1
		 WHERE id = $1
		 RETURNING refresh_token_generation`, id)

	var generation int64
	if err := row.Scan(&generation); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, users.ErrNotFound
		}
		return 0, errors.Wrap(err, "[UserRepo.BumpGeneration]")
	}
	return generation, nil
}

func (r *UserRepo) GetByProviderLink(ctx context.Context, providerID int64, subjectID string) (*users.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT u.id, COALESCE(u.email, ''), COALESCE(u.password_hash, ''), u.is_verified, u.refresh_token_generation, u.created_at
		 FROM users u
		 JOIN provider_links pl ON pl.user_id = u.id
		 WHERE pl.provider_id = $1 AND pl.provider_subject_id = $2`,
		providerID, subjectID)

	var user users.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Verified, &user.Generation, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, errors.Wrap(err, "[UserRepo.GetByProviderLink]")
	}
	return &user, nil
}

// CreateWithLink inserts the user and the provider link in one transaction.
// The link's primary key settles concurrent first logins: the loser gets
// users.ErrLinkTaken, rolls back, and refetches the winner's row.
func (r *UserRepo) CreateWithLink(ctx context.Context, user *users.User, providerID int64, subjectID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "[UserRepo.CreateWithLink] begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, is_verified, refresh_token_generation)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)`,
		user.ID, user.Email, user.PasswordHash, user.Verified, user.Generation)
	if err != nil {
		if uniqueViolationOn(err, emailUniqueConstraint) {
			return users.ErrEmailTaken
		}
		return errors.Wrap(err, "[UserRepo.CreateWithLink] user insert")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO provider_links (provider_id, provider_subject_id, user_id)
		 VALUES ($1, $2, $3)`,
		providerID, subjectID, user.ID)
	if err != nil {
		if uniqueViolationOn(err, linkPKConstraint) {
			// Lost the first-login race; rollback discards the user row.
			return users.ErrLinkTaken
		}
		return errors.Wrap(err, "[UserRepo.CreateWithLink] link insert")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "[UserRepo.CreateWithLink] commit")
	}
	return nil
}
