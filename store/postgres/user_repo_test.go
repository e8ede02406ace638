package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestUniqueViolationOnMatchesConstraint(t *testing.T) {
	emailErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: emailUniqueConstraint}
	require.True(t, uniqueViolationOn(emailErr, emailUniqueConstraint))
	require.True(t, uniqueViolationOn(errors.Wrap(emailErr, "insert"), emailUniqueConstraint))

	// A primary-key collision on users.id is not a taken email.
	pkErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_pkey"}
	require.False(t, uniqueViolationOn(pkErr, emailUniqueConstraint))

	require.False(t, uniqueViolationOn(&pgconn.PgError{Code: "23503", ConstraintName: emailUniqueConstraint}, emailUniqueConstraint))
	require.False(t, uniqueViolationOn(errors.New("connection reset"), emailUniqueConstraint))
}
