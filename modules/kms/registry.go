package kms

import (
	"context"
	"fmt"
	"sync"
)

// entry pairs a driver with its own mutex, so calls against different
// providers never block each other while calls against the same provider
// are serialized — a cloud KMS client handle is rarely safe to fan out
// concurrent calls against.
type entry struct {
	mu     sync.Mutex
	driver Driver
}

// Registry holds the set of configured KMS drivers, keyed by provider name.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]*entry
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]*entry)}
}

// Register adds driver under its own Name(). Registering the same name
// twice is an error — drivers are wired once at startup.
func (r *Registry) Register(driver Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := driver.Name()
	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDriverAlreadyRegistered, name)
	}
	r.drivers[name] = &entry{driver: driver}
	return nil
}

func (r *Registry) lookup(provider string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.drivers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDriverNotRegistered, provider)
	}
	return e, nil
}

// Encrypt dispatches to the named driver, holding that driver's mutex for
// the duration of the call.
func (r *Registry) Encrypt(ctx context.Context, provider, keyID string, plaintext []byte, ann Annotations) ([]byte, error) {
	e, err := r.lookup(provider)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driver.Encrypt(ctx, keyID, plaintext, ann)
}

// Decrypt dispatches to the named driver, holding that driver's mutex for
// the duration of the call.
func (r *Registry) Decrypt(ctx context.Context, provider, keyID string, ciphertext []byte, ann Annotations) ([]byte, error) {
	e, err := r.lookup(provider)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driver.Decrypt(ctx, keyID, ciphertext, ann)
}

// GetSecret dispatches to the named driver, holding that driver's mutex for
// the duration of the call.
func (r *Registry) GetSecret(ctx context.Context, provider, name string, ann Annotations) ([]byte, error) {
	e, err := r.lookup(provider)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driver.GetSecret(ctx, name, ann)
}

// SetSecret dispatches to the named driver, holding that driver's mutex for
// the duration of the call.
func (r *Registry) SetSecret(ctx context.Context, provider, name string, value []byte, ann Annotations) error {
	e, err := r.lookup(provider)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driver.SetSecret(ctx, name, value, ann)
}
