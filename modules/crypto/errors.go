package crypto

import "errors"

// Static error definitions, matching the package's preference for
// package-level sentinel errors over inline errors.New calls.
var (
	ErrUnsupportedAEAD    = errors.New("unsupported AEAD algorithm")
	ErrUnsupportedPadding = errors.New("unsupported RSA padding mode")
	ErrCiphertextTooShort = errors.New("ciphertext shorter than authentication tag")
	ErrInvalidIVLength    = errors.New("invalid IV length for algorithm")
	ErrInvalidKeyLength   = errors.New("invalid key length for algorithm")
)
