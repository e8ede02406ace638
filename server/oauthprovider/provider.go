// Package oauthprovider adapts per-provider OAuth2 handshakes into a single
// verified identity assertion. Each adapter owns one provider's consent
// redirect and code exchange; the core never sees provider-specific shapes.
package oauthprovider

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/bigmini/auth-service/identity"
)

// Adapter completes one provider's OAuth2 flow and produces an assertion.
type Adapter interface {
	// Name is the provider's catalog name, e.g. "Google".
	Name() string

	// AuthCodeURL builds the consent-screen redirect for a CSRF state value.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for the provider's identity
	// claims. The returned assertion is verified: the adapter has confirmed
	// with the provider that the subject authenticated.
	Exchange(ctx context.Context, code string) (identity.Assertion, error)
}

// Registry maps lowercase path segments ("google") to adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[strings.ToLower(a.Name())] = a
	}
	return r
}

// Names returns the configured adapter names, lowercased and sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("no adapter configured for provider %q", name)
	}
	return adapter, nil
}
