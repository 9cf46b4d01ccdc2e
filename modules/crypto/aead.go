package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// AEADAlgorithm identifies a symmetric algorithm used to wrap DEKs and
// encrypt resource payloads, matching the "enc" field of the KBS protected
// header.
type AEADAlgorithm string

const (
	// AlgA256GCM is AES-256-GCM with a 12-byte IV and a 16-byte trailing tag.
	AlgA256GCM AEADAlgorithm = "A256GCM"
	// AlgA256CTR is AES-256-CTR with a 16-byte IV and no integrity tag.
	AlgA256CTR AEADAlgorithm = "A256CTR"
)

const (
	aesKeySize  = 32
	gcmIVSize   = 12
	gcmTagSize  = 16
	ctrIVSize   = 16
)

// Decrypt decrypts ciphertext under key and iv using alg. For A256GCM, the
// final gcmTagSize bytes of ciphertext are the authentication tag, matching
// the KBS wire format where ciphertext and tag are concatenated.
func Decrypt(alg AEADAlgorithm, key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != aesKeySize {
		return nil, fmt.Errorf("%w: want %d got %d", ErrInvalidKeyLength, aesKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("constructing AES cipher: %w", err)
	}

	switch alg {
	case AlgA256GCM:
		if len(iv) != gcmIVSize {
			return nil, fmt.Errorf("%w: want %d got %d", ErrInvalidIVLength, gcmIVSize, len(iv))
		}
		if len(ciphertext) < gcmTagSize {
			return nil, ErrCiphertextTooShort
		}
		gcm, err := cipher.NewGCMWithTagSize(block, gcmTagSize)
		if err != nil {
			return nil, fmt.Errorf("constructing GCM: %w", err)
		}
		pt, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("GCM open: %w", err)
		}
		return pt, nil
	case AlgA256CTR:
		if len(iv) != ctrIVSize {
			return nil, fmt.Errorf("%w: want %d got %d", ErrInvalidIVLength, ctrIVSize, len(iv))
		}
		stream := cipher.NewCTR(block, iv)
		pt := make([]byte, len(ciphertext))
		stream.XORKeyStream(pt, ciphertext)
		return pt, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAEAD, alg)
	}
}

// Encrypt encrypts plaintext under key using alg, generating a fresh random
// IV. It returns the IV and ciphertext (with trailing tag, for A256GCM)
// separately, mirroring the fields of the KBS wire format.
func Encrypt(alg AEADAlgorithm, key, plaintext []byte) (iv, ciphertext []byte, err error) {
	if len(key) != aesKeySize {
		return nil, nil, fmt.Errorf("%w: want %d got %d", ErrInvalidKeyLength, aesKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("constructing AES cipher: %w", err)
	}

	switch alg {
	case AlgA256GCM:
		iv = make([]byte, gcmIVSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, nil, fmt.Errorf("generating IV: %w", err)
		}
		gcm, err := cipher.NewGCMWithTagSize(block, gcmTagSize)
		if err != nil {
			return nil, nil, fmt.Errorf("constructing GCM: %w", err)
		}
		ciphertext = gcm.Seal(nil, iv, plaintext, nil)
		return iv, ciphertext, nil
	case AlgA256CTR:
		iv = make([]byte, ctrIVSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, nil, fmt.Errorf("generating IV: %w", err)
		}
		stream := cipher.NewCTR(block, iv)
		ciphertext = make([]byte, len(plaintext))
		stream.XORKeyStream(ciphertext, plaintext)
		return iv, ciphertext, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedAEAD, alg)
	}
}

// GenerateDEK generates a fresh random 256-bit data-encryption key.
func GenerateDEK() (*Zeroizing, error) {
	key := make([]byte, aesKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating DEK: %w", err)
	}
	return NewZeroizing(key), nil
}
