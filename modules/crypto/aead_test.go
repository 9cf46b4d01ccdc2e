package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		alg  AEADAlgorithm
	}{
		{"gcm", AlgA256GCM},
		{"ctr", AlgA256CTR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dek, err := GenerateDEK()
			require.NoError(t, err)
			plaintext := []byte("confidential workload payload")

			iv, ciphertext, err := Encrypt(tt.alg, dek.Bytes(), plaintext)
			require.NoError(t, err)

			got, err := Decrypt(tt.alg, dek.Bytes(), iv, ciphertext)
			require.NoError(t, err)
			assert.Equal(t, plaintext, got)
		})
	}
}

func TestDecryptRejectsBadKeyLength(t *testing.T) {
	_, err := Decrypt(AlgA256GCM, []byte("short"), make([]byte, 12), []byte("ciphertexttagtagtagtag"))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestDecryptRejectsUnknownAlgorithm(t *testing.T) {
	key := make([]byte, 32)
	_, err := Decrypt("A128GCM", key, make([]byte, 12), []byte("ciphertexttagtagtagtag"))
	assert.ErrorIs(t, err, ErrUnsupportedAEAD)
}

func TestRSAWrapUnwrapRoundTrip(t *testing.T) {
	for _, mode := range []PaddingMode{PaddingOAEP, PaddingPKCS1v15} {
		kp, err := GenerateRSAKeyPair()
		require.NoError(t, err)

		plaintext := []byte("a 32 byte data encryption key!!")
		ct, err := Wrap(mode, &kp.Private.PublicKey, plaintext)
		require.NoError(t, err)

		got, err := kp.Unwrap(mode, ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestParsePaddingMode(t *testing.T) {
	mode, err := ParsePaddingMode("RSA-OAEP")
	require.NoError(t, err)
	assert.Equal(t, PaddingOAEP, mode)
	assert.Equal(t, "RSA-OAEP", mode.String())

	mode, err = ParsePaddingMode("RSA1_5")
	require.NoError(t, err)
	assert.Equal(t, PaddingPKCS1v15, mode)

	_, err = ParsePaddingMode("bogus")
	assert.ErrorIs(t, err, ErrUnsupportedPadding)
}
