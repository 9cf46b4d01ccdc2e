package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// RSAKeySizeBits is the key size used for every TEE key pair generated by
// the hub, matching the size the KBS protocol's wire format assumes.
const RSAKeySizeBits = 2048

// PaddingMode identifies an RSA encryption scheme. The String/ParsePaddingMode
// pair maps to the exact wire labels used in KBS protected headers ("alg").
type PaddingMode int

const (
	// PaddingOAEP is RSA-OAEP with SHA-256, wire label "RSA-OAEP".
	PaddingOAEP PaddingMode = iota
	// PaddingPKCS1v15 is RSA PKCS#1 v1.5, wire label "RSA1_5".
	PaddingPKCS1v15
)

// String returns the KBS wire label for the padding mode.
func (p PaddingMode) String() string {
	switch p {
	case PaddingOAEP:
		return "RSA-OAEP"
	case PaddingPKCS1v15:
		return "RSA1_5"
	default:
		return "unknown"
	}
}

// ParsePaddingMode maps a KBS wire label back to a PaddingMode.
func ParsePaddingMode(alg string) (PaddingMode, error) {
	switch alg {
	case "RSA-OAEP":
		return PaddingOAEP, nil
	case "RSA1_5":
		return PaddingPKCS1v15, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedPadding, alg)
	}
}

// RSAKeyPair is the TEE's public/private key pair, generated once per
// kbs.Handshaker and presented to the KBS on every handshake as the
// wrapping target for resource keys.
type RSAKeyPair struct {
	Private *rsa.PrivateKey
}

// GenerateRSAKeyPair generates a new 2048-bit RSA key pair.
func GenerateRSAKeyPair() (*RSAKeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeySizeBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key pair: %w", err)
	}
	return &RSAKeyPair{Private: priv}, nil
}

// PublicKeyModulusExponent returns the public modulus and exponent, the
// values bound into the attestation challenge digest alongside the nonce.
func (k *RSAKeyPair) PublicKeyModulusExponent() (modulus, exponent []byte) {
	pub := k.Private.PublicKey
	modulus = pub.N.Bytes()
	exponent = big.NewInt(int64(pub.E)).Bytes()
	return modulus, exponent
}

// Unwrap decrypts an RSA-encrypted key according to mode.
func (k *RSAKeyPair) Unwrap(mode PaddingMode, ciphertext []byte) ([]byte, error) {
	switch mode {
	case PaddingOAEP:
		pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, k.Private, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("RSA-OAEP unwrap: %w", err)
		}
		return pt, nil
	case PaddingPKCS1v15:
		pt, err := rsa.DecryptPKCS1v15(rand.Reader, k.Private, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("RSA1_5 unwrap: %w", err)
		}
		return pt, nil
	default:
		return nil, fmt.Errorf("%w: mode %d", ErrUnsupportedPadding, mode)
	}
}

// Wrap encrypts plaintext key material for the given RSA public key
// according to mode. It is the inverse of Unwrap.
func Wrap(mode PaddingMode, pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	switch mode {
	case PaddingOAEP:
		ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
		if err != nil {
			return nil, fmt.Errorf("RSA-OAEP wrap: %w", err)
		}
		return ct, nil
	case PaddingPKCS1v15:
		ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
		if err != nil {
			return nil, fmt.Errorf("RSA1_5 wrap: %w", err)
		}
		return ct, nil
	default:
		return nil, fmt.Errorf("%w: mode %d", ErrUnsupportedPadding, mode)
	}
}
