package secret

import (
	"context"
	"fmt"

	"github.com/Xynnn007/confidential-data-hub/modules/crypto"
	"github.com/Xynnn007/confidential-data-hub/modules/kbs"
	"github.com/Xynnn007/confidential-data-hub/modules/kms"
)

// Envelope is a two-layer secret: a key-encryption key (KEK), addressed by
// KeyID and fetched from a KBS resource or a KMS decrypt call, unwraps a
// data-encryption key (DEK), which in turn decrypts EncryptedData.
//
// When the owning Secret's Provider is "kbs", KeyID is a kbs:/// resource
// URI whose resolved bytes are the KEK. The KEK always unwraps EncryptedKey
// under AES-256-GCM, with that wrap's IV carried in Annotations["iv"] (never
// as a top-level field); Iv and WrapType instead describe how the DEK
// decrypts EncryptedData. When Provider names a KMS driver, the driver's
// Decrypt call folds the KEK-unwrap step into one round trip and returns
// the DEK directly from EncryptedKey.
type Envelope struct {
	KeyID         string            `json:"key_id"`
	EncryptedKey  string            `json:"encrypted_key"`
	EncryptedData string            `json:"encrypted_data"`
	WrapType      string            `json:"wrap_type"`
	Iv            string            `json:"iv"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

func (*Envelope) secretContent() {}

// Resolver is the set of remote authorities Unseal may need: the shared KBS
// client and the registry of configured KMS drivers.
type Resolver struct {
	KBS *kbs.Client
	KMS *kms.Registry
}

// Unseal resolves the DEK (via KBS or the named KMS driver) and uses it to
// decrypt EncryptedData, zeroizing the DEK once the payload is decrypted.
func (e *Envelope) Unseal(ctx context.Context, provider string, res Resolver) ([]byte, error) {
	wrappedKey, err := crypto.Base64URLDecode(e.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encrypted key: %w", err)
	}

	var dek *crypto.Zeroizing
	if provider == "kbs" {
		dek, err = e.unwrapDataKeyViaKBS(ctx, res.KBS, wrappedKey)
	} else {
		dek, err = e.unwrapDataKeyViaKMS(ctx, res.KMS, provider, wrappedKey)
	}
	if err != nil {
		return nil, err
	}
	defer dek.Zero()

	iv, err := crypto.Base64URLDecode(e.Iv)
	if err != nil {
		return nil, fmt.Errorf("decoding iv: %w", err)
	}
	ciphertext, err := crypto.Base64URLDecode(e.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("decoding encrypted data: %w", err)
	}

	plaintext, err := crypto.Decrypt(crypto.AEADAlgorithm(e.WrapType), dek.Bytes(), iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting envelope payload: %w", err)
	}
	return plaintext, nil
}

// ErrMissingKEKIv is returned when an Envelope routed to the KBS has no
// annotations["iv"] entry, so the KEK-unwrap step has no IV to use.
var ErrMissingKEKIv = fmt.Errorf("envelope annotations missing required %q entry", "iv")

func (e *Envelope) unwrapDataKeyViaKBS(ctx context.Context, client *kbs.Client, wrappedKey []byte) (*crypto.Zeroizing, error) {
	uri, err := kbs.ParseResourceURI(e.KeyID)
	if err != nil {
		return nil, fmt.Errorf("envelope key_id as kbs resource: %w", err)
	}
	kek, err := client.GetResource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("fetching envelope kek: %w", err)
	}
	zeroKek := crypto.NewZeroizing(kek)
	defer zeroKek.Zero()

	kekIvB64, ok := e.Annotations["iv"]
	if !ok {
		return nil, ErrMissingKEKIv
	}
	kekIv, err := crypto.Base64URLDecode(kekIvB64)
	if err != nil {
		return nil, fmt.Errorf("decoding kek-wrap iv: %w", err)
	}

	// The KEK always wraps the DEK under A256GCM, regardless of the
	// algorithm WrapType names for the DEK-wraps-data layer.
	dek, err := crypto.Decrypt(crypto.AlgA256GCM, zeroKek.Bytes(), kekIv, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping data key with kek: %w", err)
	}
	return crypto.NewZeroizing(dek), nil
}

func (e *Envelope) unwrapDataKeyViaKMS(ctx context.Context, registry *kms.Registry, provider string, wrappedKey []byte) (*crypto.Zeroizing, error) {
	ann := kms.Annotations(e.Annotations)
	dek, err := registry.Decrypt(ctx, provider, e.KeyID, wrappedKey, ann)
	if err != nil {
		return nil, fmt.Errorf("unwrapping data key via kms %s: %w", provider, err)
	}
	return crypto.NewZeroizing(dek), nil
}
