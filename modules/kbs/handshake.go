package kbs

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/Xynnn007/confidential-data-hub/modules/crypto"
	"github.com/Xynnn007/confidential-data-hub/modules/tee"
	"github.com/golang-jwt/jwt/v5"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const protocolVersion = "0.1.0"

// Handshaker owns the ephemeral TEE key pair and the attested HTTP session
// used to talk to one KBS. It performs the two-step auth/attest exchange
// and tracks whether a session is currently established.
//
// A single Handshaker is shared by every call into one KBS host. mu guards
// only the handshake state; Client holds its own mutex for the full
// authenticate-then-retry window so concurrent callers don't race each
// other into two overlapping handshakes.
type Handshaker struct {
	mu               sync.Mutex
	tee              tee.Tee
	key              *crypto.RSAKeyPair
	evidence         tee.EvidenceClient
	httpClient       *http.Client
	baseClient       *http.Client
	kbsHostURL       string
	authenticated    bool
	sessionExpiresAt time.Time
}

// NewHandshaker constructs a Handshaker against kbsHostURL, detecting the
// local TEE type and eagerly generating the RSA key pair used for every
// subsequent handshake attempt on this Handshaker's lifetime.
func NewHandshaker(ctx context.Context, kbsHostURL string, evidenceClient tee.EvidenceClient, timeout time.Duration) (*Handshaker, error) {
	detected, err := evidenceClient.DetectTeeType(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTeeDetected, err)
	}

	keyPair, err := crypto.GenerateRSAKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating tee key pair: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("constructing cookie jar: %w", err)
	}
	base := cleanhttp.DefaultPooledClient()
	base.Jar = jar
	if timeout > 0 {
		base.Timeout = timeout
	}

	// The auth/attest exchange happens over a single TCP connection to a
	// sidecar KBS; retryablehttp absorbs the transient connection resets
	// that occur while that sidecar is still starting up.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.Logger = nil
	retryClient.RetryMax = 3
	client := retryClient.StandardClient()

	return &Handshaker{
		tee:        detected,
		key:        keyPair,
		evidence:   evidenceClient,
		httpClient: client,
		baseClient: base,
		kbsHostURL: kbsHostURL,
	}, nil
}

// Authenticated reports whether a session has been established.
func (h *Handshaker) Authenticated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.authenticated
}

// Handshake runs the auth/attest exchange, establishing a new session. The
// caller must not hold h.mu.
func (h *Handshaker) Handshake(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handshakeLocked(ctx)
}

func (h *Handshaker) handshakeLocked(ctx context.Context) error {
	h.authenticated = false

	challenge, err := h.requestChallenge(ctx)
	if err != nil {
		return err
	}

	evidence, err := h.generateEvidence(ctx, challenge.Nonce)
	if err != nil {
		return err
	}

	if err := h.submitAttestation(ctx, evidence); err != nil {
		return err
	}

	h.authenticated = true
	return nil
}

func (h *Handshaker) requestChallenge(ctx context.Context) (*Challenge, error) {
	reqBody, err := json.Marshal(Request{Version: protocolVersion, Tee: h.tee, ExtraParams: ""})
	if err != nil {
		return nil, fmt.Errorf("encoding auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.kbsHostURL+"/kbs/v0/auth", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: auth request: %w", ErrHandshakeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: auth returned status %d", ErrHandshakeFailed, resp.StatusCode)
	}

	var challenge Challenge
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return nil, fmt.Errorf("decoding challenge: %w", err)
	}
	return &challenge, nil
}

// generateEvidence computes the SHA-384 digest binding the server nonce to
// the handshaker's public key, and asks the local evidence producer to
// embed that digest as runtime data in a fresh quote.
func (h *Handshaker) generateEvidence(ctx context.Context, nonce string) (string, error) {
	modulus, exponent := h.key.PublicKeyModulusExponent()

	digest := sha512.New384()
	digest.Write([]byte(nonce))
	digest.Write(modulus)
	digest.Write(exponent)
	runtimeData := digest.Sum(nil)

	evidence, err := h.evidence.GetEvidence(ctx, runtimeData)
	if err != nil {
		return "", fmt.Errorf("%w: generating evidence: %w", ErrHandshakeFailed, err)
	}
	return string(evidence), nil
}

func (h *Handshaker) submitAttestation(ctx context.Context, evidence string) error {
	modulus, exponent := h.key.PublicKeyModulusExponent()

	attestation := Attestation{
		TeePubKey: TeePubKey{
			KTY:   "RSA",
			Alg:   "RSA1_5",
			K_Mod: crypto.Base64URLEncode(modulus),
			K_Exp: crypto.Base64URLEncode(exponent),
		},
		Evidence: evidence,
	}
	body, err := json.Marshal(attestation)
	if err != nil {
		return fmt.Errorf("encoding attestation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.kbsHostURL+"/kbs/v0/attest", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building attest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: attest request: %w", ErrAttestationRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: attest returned status %d", ErrAttestationRejected, resp.StatusCode)
	}

	var attestResp AttestResponse
	if err := json.NewDecoder(resp.Body).Decode(&attestResp); err != nil && err.Error() != "EOF" {
		return fmt.Errorf("decoding attest response: %w", err)
	}
	h.sessionExpiresAt = parseAdvisorySessionExpiry(attestResp.Token)
	return nil
}

// parseAdvisorySessionExpiry extracts the exp claim from the KBS's advisory
// session token, if one was returned. The token is not used for
// authorization (the cookie jar carries the real session) so an unparsable
// or absent token just means the expiry is unknown, not an error.
func parseAdvisorySessionExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}
	}
	return expiry.Time
}

// SessionExpiresAt returns the advisory session expiry reported by the last
// successful handshake, or the zero Time if the KBS didn't report one.
func (h *Handshaker) SessionExpiresAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionExpiresAt
}

// RawDo executes req using the handshaker's base HTTP client (which carries
// the session cookie jar, but not the retrying wrapper used for auth/attest)
// without acquiring any lock or triggering a handshake. Client.GetResource
// is responsible for serializing the authenticate-then-retry window around
// calls to RawDo and Handshake.
func (h *Handshaker) RawDo(req *http.Request) (*http.Response, error) {
	return h.baseClient.Do(req)
}

// HostURL returns the configured KBS host URL.
func (h *Handshaker) HostURL() string {
	return h.kbsHostURL
}
