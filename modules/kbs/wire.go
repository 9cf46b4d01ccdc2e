package kbs

import "github.com/Xynnn007/confidential-data-hub/modules/tee"

// Challenge is returned by POST /kbs/v0/auth, carrying the server nonce the
// handshaker must bind into its attestation evidence.
type Challenge struct {
	Nonce       string `json:"nonce"`
	ExtraParams string `json:"extra_params,omitempty"`
}

// Request is the body of POST /kbs/v0/auth, announcing which TEE is
// attempting to authenticate.
type Request struct {
	Version     string  `json:"version"`
	Tee         tee.Tee `json:"tee"`
	ExtraParams string  `json:"extra_params"`
}

// Attestation is the body of POST /kbs/v0/attest.
type Attestation struct {
	TeePubKey TeePubKey `json:"tee_pubkey"`
	Evidence  string    `json:"tee_evidence"`
}

// TeePubKey carries the handshaker's ephemeral RSA public key in the shape
// the KBS expects it, so it can wrap the session's response-encryption key
// to that key.
type TeePubKey struct {
	KTY   string `json:"kty"`
	Alg   string `json:"alg"`
	K_Mod string `json:"k_mod"`
	K_Exp string `json:"k_exp"`
}

// AttestResponse is returned by a successful POST /kbs/v0/attest. The
// session cookie carries the actual session state; Token is advisory.
type AttestResponse struct {
	Token string `json:"token,omitempty"`
}

// ProtectedHeader is the JOSE-like header describing how a resource
// response's payload was wrapped. On the wire it travels as a JSON-encoded
// string under Response.Protected, not as a nested object.
type ProtectedHeader struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
}

// Response is the JWE-like envelope returned by GET /kbs/v0/<repo>/<type>/<tag>.
// Protected is itself a JSON-encoded ProtectedHeader and must be parsed
// separately, matching the KBS's JWE-shaped response.
type Response struct {
	Protected    string `json:"protected"`
	EncryptedKey string `json:"encrypted_key"`
	Iv           string `json:"iv"`
	Ciphertext   string `json:"ciphertext"`
}
