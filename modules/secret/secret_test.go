package secret

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretJSONRoundTripEnvelope(t *testing.T) {
	s := Secret{
		Version:  "0.1.0",
		Provider: "kbs",
		Content: &Envelope{
			KeyID:         "kbs:///default/key/kek",
			EncryptedKey:  "d2VsbA",
			Iv:            "aXY",
			WrapType:      "A256GCM",
			EncryptedData: "Y2lwaGVydGV4dA",
			Annotations:   map[string]string{"iv": "ZGF0YWl2"},
		},
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Secret
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, s.Version, decoded.Version)
	assert.Equal(t, s.Provider, decoded.Provider)
	env, ok := decoded.Content.(*Envelope)
	require.True(t, ok)
	assert.Equal(t, "kbs:///default/key/kek", env.KeyID)
}

func TestSecretJSONRoundTripVault(t *testing.T) {
	s := Secret{
		Version:  "0.1.0",
		Provider: "aliyun",
		Content:  &Vault{Name: "db-password"},
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Secret
	require.NoError(t, json.Unmarshal(raw, &decoded))

	vault, ok := decoded.Content.(*Vault)
	require.True(t, ok)
	assert.Equal(t, "db-password", vault.Name)
}

func TestSecretUnmarshalRejectsUnknownType(t *testing.T) {
	var decoded Secret
	err := json.Unmarshal([]byte(`{"version":"0.1.0","provider":"kbs","type":"Bogus"}`), &decoded)
	assert.ErrorIs(t, err, ErrUnknownSecretType)
}

func TestUnsealRejectsSecretWithNoContent(t *testing.T) {
	s := Secret{Provider: "kbs"}
	_, err := s.Unseal(context.Background(), Resolver{})
	assert.ErrorIs(t, err, ErrUnknownSecretType)
}
