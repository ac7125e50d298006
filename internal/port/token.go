package port

import "context"

// TokenSource supplies a bearer credential for backend calls. An
// implementation refreshes the credential before expiry; callers never
// manage refresh themselves.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
