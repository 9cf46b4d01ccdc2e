package keyprovider

import (
	"context"
	"encoding/json"
	"fmt"
)

// KeyUnwrapper is the capability the hub exposes to this protocol layer,
// kept as a narrow interface so this package doesn't import the hub
// package that in turn wires this package into a transport.
type KeyUnwrapper interface {
	UnwrapKey(ctx context.Context, annotationPacket []byte) ([]byte, error)
}

// HandleRequest validates and dispatches one protocol request. Any
// non-empty, unrecognized Op (anything other than "keywrap"/"keyunwrap")
// is ErrUnsupportedOp; an empty Op is ErrMissingOp.
func HandleRequest(ctx context.Context, hub KeyUnwrapper, input []byte) ([]byte, error) {
	var req KeyProviderKeyWrapProtocolInput
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("decoding key provider request: %w", err)
	}

	switch req.Op {
	case "":
		return nil, ErrMissingOp
	case OpKeyUnwrap:
		return handleKeyUnwrap(ctx, hub, req)
	case OpKeyWrap:
		return nil, fmt.Errorf("%w: keywrap", ErrUnsupportedOp)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOp, req.Op)
	}
}

func handleKeyUnwrap(ctx context.Context, hub KeyUnwrapper, req KeyProviderKeyWrapProtocolInput) ([]byte, error) {
	if req.KeyUnwrapParams == nil {
		return nil, fmt.Errorf("%w: keyunwrap missing keyunwrapparams", ErrMissingOp)
	}

	plaintext, err := hub.UnwrapKey(ctx, req.KeyUnwrapParams.Annotation)
	if err != nil {
		return nil, fmt.Errorf("unwrapping image layer key: %w", err)
	}

	out := KeyProviderKeyWrapProtocolOutput{
		KeyUnwrapResults: &KeyUnwrapResults{OptsData: plaintext},
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding key provider response: %w", err)
	}
	return encoded, nil
}
