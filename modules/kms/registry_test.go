package kms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct {
	name    string
	secrets map[string][]byte
	calls   int
}

func (d *stubDriver) Name() string { return d.name }

func (d *stubDriver) Encrypt(ctx context.Context, keyID string, plaintext []byte, ann Annotations) ([]byte, error) {
	d.calls++
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return append([]byte("enc:"), out...), nil
}

func (d *stubDriver) Decrypt(ctx context.Context, keyID string, ciphertext []byte, ann Annotations) ([]byte, error) {
	d.calls++
	return ciphertext[len("enc:"):], nil
}

func (d *stubDriver) GetSecret(ctx context.Context, name string, ann Annotations) ([]byte, error) {
	d.calls++
	if d.secrets == nil {
		return nil, ErrUnsupportedOperation
	}
	v, ok := d.secrets[name]
	if !ok {
		return nil, ErrDriverNotRegistered
	}
	return v, nil
}

func (d *stubDriver) SetSecret(ctx context.Context, name string, value []byte, ann Annotations) error {
	d.calls++
	if d.secrets == nil {
		d.secrets = make(map[string][]byte)
	}
	d.secrets[name] = value
	return nil
}

func TestRegistryRoundTripsEncryptDecrypt(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubDriver{name: "stub"}))

	ct, err := reg.Encrypt(context.Background(), "stub", "key-1", []byte("secret"), nil)
	require.NoError(t, err)

	pt, err := reg.Decrypt(context.Background(), "stub", "key-1", ct, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pt)
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubDriver{name: "stub"}))
	err := reg.Register(&stubDriver{name: "stub"})
	assert.ErrorIs(t, err, ErrDriverAlreadyRegistered)
}

func TestRegistryUnknownProviderFails(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Encrypt(context.Background(), "missing", "key", []byte("x"), nil)
	assert.ErrorIs(t, err, ErrDriverNotRegistered)
}

func TestRegistrySetGetSecret(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubDriver{name: "vault"}))

	require.NoError(t, reg.SetSecret(context.Background(), "vault", "db-password", []byte("hunter2"), nil))
	got, err := reg.GetSecret(context.Background(), "vault", "db-password", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), got)
}
