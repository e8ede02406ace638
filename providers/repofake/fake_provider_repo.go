package fakeproviderrepo

import (
	"context"

	"github.com/bigmini/auth-service/providers"
)

var _ providers.Repo = (*FakeProviderRepo)(nil)

// FakeProviderRepo serves the provider catalog from memory. Seeded once,
// read-only afterwards, so no locking is needed.
type FakeProviderRepo struct {
	byName map[string]*providers.Provider
}

// NewFakeProviderRepo seeds the standard catalog.
func NewFakeProviderRepo() *FakeProviderRepo {
	return NewFakeProviderRepoWith(providers.Google, providers.Facebook, providers.Discord)
}

func NewFakeProviderRepoWith(names ...string) *FakeProviderRepo {
	r := &FakeProviderRepo{byName: make(map[string]*providers.Provider)}
	for i, name := range names {
		r.byName[name] = &providers.Provider{ID: int64(i + 1), Name: name}
	}
	return r
}

func (r *FakeProviderRepo) GetByName(_ context.Context, name string) (*providers.Provider, error) {
	provider, ok := r.byName[name]
	if !ok {
		return nil, providers.ErrNotFound
	}
	return provider, nil
}
