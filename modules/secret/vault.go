package secret

import (
	"context"
	"fmt"

	"github.com/Xynnn007/confidential-data-hub/modules/kbs"
	"github.com/Xynnn007/confidential-data-hub/modules/kms"
)

// Vault is an indirect secret reference: Name is resolved against a KBS
// resource (when the owning Secret's Provider is "kbs") or a named KMS
// driver's secret store, with no local unwrap step — the remote authority
// returns the plaintext directly.
type Vault struct {
	Name        string            `json:"name"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

func (*Vault) secretContent() {}

// Unseal fetches the referenced secret's plaintext bytes.
func (v *Vault) Unseal(ctx context.Context, provider string, res Resolver) ([]byte, error) {
	if provider == "kbs" {
		uri, err := kbs.ParseResourceURI(v.Name)
		if err != nil {
			return nil, fmt.Errorf("vault name as kbs resource: %w", err)
		}
		plaintext, err := res.KBS.GetResource(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("fetching vault secret: %w", err)
		}
		return plaintext, nil
	}

	plaintext, err := res.KMS.GetSecret(ctx, provider, v.Name, kms.Annotations(v.Annotations))
	if err != nil {
		return nil, fmt.Errorf("fetching vault secret via kms %s: %w", provider, err)
	}
	return plaintext, nil
}
