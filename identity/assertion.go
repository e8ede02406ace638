package identity

// Assertion is a verified claim from an external identity provider that a
// given subject is authenticated. Provider adapters produce one per completed
// handshake; the core consumes it without caring which provider it came from.
type Assertion struct {
	Provider  string // Catalog name, e.g. "Google"
	SubjectID string // Provider-issued stable subject identifier
	Email     string // Optional; providers may withhold it
}
