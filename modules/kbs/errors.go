package kbs

import "errors"

// Attestation-phase errors.
var (
	ErrHandshakeFailed     = errors.New("kbs handshake failed")
	ErrAttestationRejected = errors.New("kbs rejected attestation evidence")
	ErrNoTeeDetected       = errors.New("no trusted execution environment detected")
)

// Session and resource errors.
var (
	ErrNotAuthenticated = errors.New("no attested session established")
	ErrResourceNotFound = errors.New("kbs resource not found")
	ErrUnauthorized     = errors.New("kbs session unauthorized")
	ErrKBSServerError   = errors.New("kbs server error")
)

// Wire-parsing errors.
var (
	ErrUnsupportedAlg    = errors.New("unsupported kbs protected-header alg")
	ErrAlgorithmMismatch = errors.New("kbs protected-header alg does not match the hub's key-wrap policy")
)
