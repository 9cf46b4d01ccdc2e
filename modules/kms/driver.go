// Package kms defines the capability-set interface the hub uses to reach a
// cloud or on-prem key management service, and a registry of configured
// drivers keyed by provider name.
package kms

import "context"

// Annotations carries provider-specific, opaque key/value context a driver
// may need alongside an encrypt/decrypt call (e.g. a key ARN or key ring
// path). The hub never interprets these values itself.
type Annotations map[string]string

// Driver is the capability set a KMS integration must implement. A driver
// need not implement every method meaningfully — Encrypt/Decrypt-only
// drivers and secret-store-only drivers both satisfy this interface, and
// unsupported operations return ErrUnsupportedOperation.
type Driver interface {
	// Name identifies the provider this driver speaks for, e.g. "aliyun"
	// or "exec:vault-helper". It's the string annotation packets and
	// Secret.Provider route on.
	Name() string

	// Encrypt wraps plaintext under the key identified by keyID.
	Encrypt(ctx context.Context, keyID string, plaintext []byte, annotations Annotations) (ciphertext []byte, err error)

	// Decrypt unwraps ciphertext that was wrapped under keyID.
	Decrypt(ctx context.Context, keyID string, ciphertext []byte, annotations Annotations) (plaintext []byte, err error)

	// GetSecret fetches a named secret's raw bytes.
	GetSecret(ctx context.Context, name string, annotations Annotations) ([]byte, error)

	// SetSecret stores a named secret's raw bytes.
	SetSecret(ctx context.Context, name string, value []byte, annotations Annotations) error
}
