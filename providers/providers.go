// Package providers holds the identity-provider catalog. The catalog is
// static reference data: unknown providers are never auto-registered.
package providers

import (
	"context"

	"github.com/pkg/errors"
)

const (
	Google   = "Google"
	Facebook = "Facebook"
	Discord  = "Discord"
)

var ErrNotFound = errors.New("identity provider not found")

type Provider struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // Unique, e.g. "Google"
}

type Repo interface {
	GetByName(ctx context.Context, name string) (*Provider, error)
}
