// Package keyprovider implements the OCI-crypt "keyprovider" protocol
// surface: the container runtime calls into the hub with a small JSON
// envelope naming an operation, and the hub either wraps or unwraps an
// image layer key.
package keyprovider

import "errors"

// Op-validation errors, returned verbatim to the caller per the wire
// protocol's error taxonomy.
var (
	ErrMissingOp    = errors.New("missing op in key provider request")
	ErrUnsupportedOp = errors.New("unsupported op in key provider request")
)

const (
	OpKeyWrap   = "keywrap"
	OpKeyUnwrap = "keyunwrap"
)

// KeyProviderKeyWrapProtocolInput is the top-level request envelope.
type KeyProviderKeyWrapProtocolInput struct {
	Op              string           `json:"op"`
	KeyWrapParams   *KeyWrapParams   `json:"keywrapparams,omitempty"`
	KeyUnwrapParams *KeyUnwrapParams `json:"keyunwrapparams,omitempty"`
}

// KeyProviderKeyWrapProtocolOutput is the top-level response envelope.
type KeyProviderKeyWrapProtocolOutput struct {
	KeyWrapResults   *KeyWrapResults   `json:"keywrapresults,omitempty"`
	KeyUnwrapResults *KeyUnwrapResults `json:"keyunwrapresults,omitempty"`
}

// KeyWrapParams carries the plaintext and annotation needed to wrap a new
// image layer key. Wrapping is not implemented by this hub: a keywrap
// request is answered with ErrUnsupportedOp, the same error an unrecognized
// op gets. The schema is kept for protocol completeness.
type KeyWrapParams struct {
	OptsData  []byte                 `json:"optsdata,omitempty"`
	Ec        *EncryptConfig         `json:"ec,omitempty"`
	Annotation []byte                `json:"annotation,omitempty"`
}

// KeyUnwrapParams carries the decrypt config (which holds the wrapped
// annotation packets) for a keyunwrap call.
type KeyUnwrapParams struct {
	Dc         DecryptConfig `json:"dc"`
	Annotation []byte        `json:"annotation"`
}

// DecryptConfig mirrors containerd/ocicrypt's DecryptConfig: a bag of
// provider-specific parameters, each a set of opaque byte blobs.
type DecryptConfig struct {
	Parameters map[string][][]byte `json:"Parameters,omitempty"`
}

// EncryptConfig mirrors containerd/ocicrypt's EncryptConfig.
type EncryptConfig struct {
	Parameters map[string][][]byte `json:"Parameters,omitempty"`
}

// KeyWrapResults is the result of a keywrap call.
type KeyWrapResults struct {
	Annotation []byte `json:"annotation"`
}

// KeyUnwrapResults is the result of a keyunwrap call: the unwrapped
// plaintext layer key.
type KeyUnwrapResults struct {
	OptsData []byte `json:"optsdata"`
}
