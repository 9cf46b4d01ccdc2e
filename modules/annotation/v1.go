package annotation

import "context"

// PacketV1 is the legacy annotation packet schema: it always routes to the
// KBS (there was no concept of alternate KMS providers when this schema was
// introduced), addressing the KEK by a kbs:/// resource URI in Kid.
type PacketV1 struct {
	Kid        string `json:"kid"`
	WrappedKey string `json:"wrapped_data"`
	Iv         string `json:"iv"`
	WrapType   string `json:"wrap_type"`
}

func (p *PacketV1) UnwrapKey(ctx context.Context, res Resolver) ([]byte, error) {
	return unwrapKEKed(ctx, res, "kbs", p.Kid, p.WrapType, p.Iv, p.WrappedKey, nil)
}
