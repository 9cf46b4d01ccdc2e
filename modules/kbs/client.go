package kbs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/Xynnn007/confidential-data-hub/modules/crypto"
)

// Client fetches resources from one KBS host, handshaking once when it is
// constructed and re-handshaking exactly once if a session expires mid-flight.
type Client struct {
	mu         sync.Mutex
	handshaker *Handshaker
	kbsHostURL string
}

// NewClient constructs a Client and performs the initial handshake eagerly,
// so a Client is never returned in an unauthenticated state.
func NewClient(ctx context.Context, handshaker *Handshaker) (*Client, error) {
	c := &Client{
		handshaker: handshaker,
		kbsHostURL: handshaker.HostURL(),
	}
	if err := handshaker.Handshake(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// GetResource fetches the resource identified by uri, decoding and
// decrypting the JWE-like response with the handshaker's RSA key. On a 401
// response it re-handshakes exactly once and retries the GET; a second 401
// is returned as ErrUnauthorized rather than retried again.
func (c *Client) GetResource(ctx context.Context, uri ResourceURI) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, status, err := c.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		if err := c.handshaker.Handshake(ctx); err != nil {
			return nil, err
		}
		resp, status, err = c.fetch(ctx, uri)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
	}

	switch {
	case status == http.StatusOK:
		return c.decrypt(resp)
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	default:
		return nil, fmt.Errorf("%w: status %d for %s", ErrKBSServerError, status, uri)
	}
}

func (c *Client) fetch(ctx context.Context, uri ResourceURI) (*Response, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.kbsHostURL+uri.Path(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building resource request: %w", err)
	}

	httpResp, err := c.handshaker.RawDo(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching resource %s: %w", uri, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		// Drain and discard the body; non-200 responses carry no payload
		// this client needs to decode.
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return nil, httpResp.StatusCode, nil
	}

	var decoded Response
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, 0, fmt.Errorf("decoding resource response: %w", err)
	}
	return &decoded, httpResp.StatusCode, nil
}

// decrypt unwraps the DEK with the handshaker's RSA key, then decrypts the
// resource ciphertext with the DEK.
func (c *Client) decrypt(resp *Response) ([]byte, error) {
	var header ProtectedHeader
	if err := json.Unmarshal([]byte(resp.Protected), &header); err != nil {
		return nil, fmt.Errorf("decoding protected header: %w", err)
	}

	// The hub's key-wrap policy only trusts RSA1_5-wrapped resource keys; a
	// KBS offering RSA-OAEP (or anything else) is rejected outright rather
	// than accepted opportunistically.
	if header.Alg != "RSA1_5" {
		return nil, fmt.Errorf("%w: got %q", ErrAlgorithmMismatch, header.Alg)
	}
	mode, err := crypto.ParsePaddingMode(header.Alg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAlg, err)
	}

	wrappedKey, err := crypto.Base64URLDecode(resp.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encrypted_key: %w", err)
	}
	iv, err := crypto.Base64URLDecode(resp.Iv)
	if err != nil {
		return nil, fmt.Errorf("decoding iv: %w", err)
	}
	ciphertext, err := crypto.Base64URLDecode(resp.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	dek, err := c.handshaker.key.Unwrap(mode, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping resource key: %w", err)
	}
	zeroDek := crypto.NewZeroizing(dek)
	defer zeroDek.Zero()

	plaintext, err := crypto.Decrypt(crypto.AEADAlgorithm(header.Enc), zeroDek.Bytes(), iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting resource payload: %w", err)
	}
	return plaintext, nil
}
