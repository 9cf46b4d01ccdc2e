// Package annotation decodes the key-wrapping metadata OCI image layers
// carry in their "org.opencontainers.image.encryption.keys" annotation,
// unwrapping the per-layer symmetric key the container runtime needs.
package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Xynnn007/confidential-data-hub/modules/crypto"
	"github.com/Xynnn007/confidential-data-hub/modules/kbs"
	"github.com/Xynnn007/confidential-data-hub/modules/kms"
)

// ErrMalformedPacket is returned when a packet is neither a valid V1 nor a
// valid V2 annotation packet.
var ErrMalformedPacket = errors.New("malformed annotation packet")

// Resolver is the set of remote authorities Packet.UnwrapKey may need.
type Resolver struct {
	KBS *kbs.Client
	KMS *kms.Registry
}

// Packet is implemented by PacketV1 and PacketV2.
type Packet interface {
	// UnwrapKey resolves the KEK for this packet and uses it to unwrap the
	// packet's wrapped per-layer key, returning the plaintext key.
	UnwrapKey(ctx context.Context, res Resolver) ([]byte, error)
}

// versionProbe is decoded first to distinguish V1 from V2: V2 packets carry
// a top-level numeric "version" field that V1 packets never have.
type versionProbe struct {
	Version *int `json:"version"`
}

// Parse decodes a packet, trying the V2 schema (presence of "version")
// before falling back to the legacy V1 schema.
func Parse(data []byte) (Packet, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}

	if probe.Version != nil {
		var v2 PacketV2
		if err := json.Unmarshal(data, &v2); err != nil {
			return nil, fmt.Errorf("%w: decoding v2: %w", ErrMalformedPacket, err)
		}
		if err := v2.validate(); err != nil {
			return nil, err
		}
		return &v2, nil
	}

	var v1 PacketV1
	if err := json.Unmarshal(data, &v1); err != nil {
		return nil, fmt.Errorf("%w: decoding v1: %w", ErrMalformedPacket, err)
	}
	if v1.Kid == "" {
		return nil, fmt.Errorf("%w: v1 packet missing kid", ErrMalformedPacket)
	}
	return &v1, nil
}

// v1 and v2 routing share the Resolver above and unwrapKEKed below.

// unwrapKEKed unwraps wrappedData, shared by the V1 (always KBS) and V2
// (KBS-or-KMS) code paths. For "kbs" it fetches the KEK resource and
// decrypts locally; for any other provider it hands the wrapped key to that
// KMS driver's Decrypt.
func unwrapKEKed(ctx context.Context, res Resolver, provider, keyID, wrapType, ivB64, wrappedB64 string, annotations map[string]string) ([]byte, error) {
	wrapped, err := crypto.Base64URLDecode(wrappedB64)
	if err != nil {
		return nil, fmt.Errorf("decoding wrapped key: %w", err)
	}

	if provider == "kbs" {
		uri, err := kbs.ParseResourceURI(keyID)
		if err != nil {
			return nil, fmt.Errorf("annotation key_id as kbs resource: %w", err)
		}
		kek, err := res.KBS.GetResource(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("fetching annotation kek: %w", err)
		}
		zeroKek := crypto.NewZeroizing(kek)
		defer zeroKek.Zero()

		iv, err := crypto.Base64URLDecode(ivB64)
		if err != nil {
			return nil, fmt.Errorf("decoding wrap iv: %w", err)
		}
		plaintext, err := crypto.Decrypt(crypto.AEADAlgorithm(wrapType), zeroKek.Bytes(), iv, wrapped)
		if err != nil {
			return nil, fmt.Errorf("unwrapping layer key with kek: %w", err)
		}
		return plaintext, nil
	}

	plaintext, err := res.KMS.Decrypt(ctx, provider, keyID, wrapped, kms.Annotations(annotations))
	if err != nil {
		return nil, fmt.Errorf("unwrapping layer key via kms %s: %w", provider, err)
	}
	return plaintext, nil
}
