package annotation

import (
	"context"
	"fmt"
)

// PacketV2 is the versioned annotation packet schema: Provider names either
// "kbs" or a configured KMS driver. Iv and WrapType are only meaningful
// (and required) when Provider is "kbs" — a KMS driver's Decrypt call folds
// the KEK-unwrap step in, so no local AEAD parameters are needed.
type PacketV2 struct {
	Version     int               `json:"version"`
	Provider    string            `json:"provider"`
	Kid         string            `json:"kid"`
	WrappedKey  string            `json:"wrapped_data"`
	Iv          string            `json:"iv,omitempty"`
	WrapType    string            `json:"wrap_type,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

func (p *PacketV2) validate() error {
	if p.Provider == "" {
		return fmt.Errorf("%w: v2 packet missing provider", ErrMalformedPacket)
	}
	if p.Kid == "" {
		return fmt.Errorf("%w: v2 packet missing kid", ErrMalformedPacket)
	}
	if p.Provider == "kbs" && (p.Iv == "" || p.WrapType == "") {
		return fmt.Errorf("%w: v2 kbs packet requires iv and wrap_type", ErrMalformedPacket)
	}
	return nil
}

func (p *PacketV2) UnwrapKey(ctx context.Context, res Resolver) ([]byte, error) {
	return unwrapKEKed(ctx, res, p.Provider, p.Kid, p.WrapType, p.Iv, p.WrappedKey, p.Annotations)
}
