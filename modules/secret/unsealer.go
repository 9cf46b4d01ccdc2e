package secret

import (
	"context"
	"fmt"
)

// unsealable is implemented by both Envelope and Vault.
type unsealable interface {
	Content
	Unseal(ctx context.Context, provider string, res Resolver) ([]byte, error)
}

// Unseal dispatches to the secret's content layout (Envelope or Vault),
// routing the fetch to the KBS or to the named KMS driver according to
// s.Provider.
func (s *Secret) Unseal(ctx context.Context, res Resolver) ([]byte, error) {
	u, ok := s.Content.(unsealable)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownSecretType, s.Content)
	}
	return u.Unseal(ctx, s.Provider, res)
}
