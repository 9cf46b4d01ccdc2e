// Package secret implements the two secret layouts the hub can unseal: an
// Envelope (a key-encryption key wraps a data-encryption key, which in turn
// wraps the payload) and a Vault reference (an indirect pointer to a secret
// held entirely by the remote authority).
package secret

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownSecretType is returned when a Secret's "type" discriminator
// doesn't match a known layout.
var ErrUnknownSecretType = errors.New("unknown secret type")

// Content is implemented by Envelope and Vault.
type Content interface {
	secretContent()
}

// Secret is the wire envelope around either an Envelope or a Vault layout,
// discriminated by its "type" field and flattened into the same JSON object
// (i.e. Content's own fields appear alongside Version/Provider, not nested
// under a "content" key).
type Secret struct {
	Version  string  `json:"version"`
	Provider string  `json:"provider"`
	Content  Content `json:"-"`
}

type wireHeader struct {
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
}

func (s Secret) MarshalJSON() ([]byte, error) {
	var typeName string
	switch s.Content.(type) {
	case *Envelope:
		typeName = "Envelope"
	case *Vault:
		typeName = "Vault"
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownSecretType, s.Content)
	}

	contentJSON, err := json.Marshal(s.Content)
	if err != nil {
		return nil, fmt.Errorf("encoding secret content: %w", err)
	}
	var contentMap map[string]json.RawMessage
	if err := json.Unmarshal(contentJSON, &contentMap); err != nil {
		return nil, fmt.Errorf("flattening secret content: %w", err)
	}

	out := map[string]json.RawMessage{}
	for k, v := range contentMap {
		out[k] = v
	}
	versionJSON, _ := json.Marshal(s.Version)
	providerJSON, _ := json.Marshal(s.Provider)
	typeJSON, _ := json.Marshal(typeName)
	out["version"] = versionJSON
	out["provider"] = providerJSON
	out["type"] = typeJSON

	return json.Marshal(out)
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var header wireHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("decoding secret header: %w", err)
	}
	s.Version = header.Version
	s.Provider = header.Provider

	switch header.Type {
	case "Envelope":
		var e Envelope
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("decoding envelope secret: %w", err)
		}
		s.Content = &e
	case "Vault":
		var v Vault
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decoding vault secret: %w", err)
		}
		s.Content = &v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSecretType, header.Type)
	}
	return nil
}
