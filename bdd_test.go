package datahub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	hubcrypto "github.com/Xynnn007/confidential-data-hub/modules/crypto"
	"github.com/cucumber/godog"
)

var (
	errMismatch      = errors.New("unsealed payload did not match the original")
	errNoRehandshake = errors.New("expected the hub to re-handshake after a 401")
)

// dataHubBDDContext holds the state one scenario's steps share, following
// this codebase's established BDD context-struct convention.
type dataHubBDDContext struct {
	kekPlaintext    []byte
	kbsServer       *httptest.Server
	kbsState        *fakeKBS
	hub             *Hub
	expectedPayload []byte

	lastErr    error
	lastResult []byte
}

func (c *dataHubBDDContext) reset() {
	if c.kbsServer != nil {
		c.kbsServer.Close()
	}
	*c = dataHubBDDContext{}
}

func (c *dataHubBDDContext) aKbsServerHoldingAKeyEncryptionKey() error {
	c.kekPlaintext = make([]byte, 32)
	for i := range c.kekPlaintext {
		c.kekPlaintext[i] = byte(i + 1)
	}
	c.kbsServer, c.kbsState = newFakeKBSWithState(c.kekPlaintext)
	return nil
}

func (c *dataHubBDDContext) aHubAttestedAgainstThatKbsServer() error {
	c.hub = newTestHubForBDD(c.kbsServer.URL)
	return nil
}

func (c *dataHubBDDContext) theHubUnsealsAnEnvelopeSecretWrappedUnderThatKeyEncryptionKey() error {
	secretJSON, payload, err := buildEnvelopeSecretJSON(c.kekPlaintext, "kbs:///default/key/kek")
	if err != nil {
		return err
	}
	c.expectedPayload = payload
	c.lastResult, c.lastErr = c.hub.UnsealSecret(context.Background(), secretJSON)
	return nil
}

func (c *dataHubBDDContext) theUnsealSucceedsAndReturnsTheOriginalPayload() error {
	if c.lastErr != nil {
		return c.lastErr
	}
	if string(c.lastResult) != string(c.expectedPayload) {
		return errMismatch
	}
	return nil
}

func (c *dataHubBDDContext) theKbsServersSessionHasExpired() error {
	c.kbsState.failResourceCount = 1
	return nil
}

func (c *dataHubBDDContext) theHubFetchesAResourceFromThatKbsServer() error {
	c.lastResult, c.lastErr = c.hub.GetResource(context.Background(), "kbs:///default/key/kek")
	return nil
}

func (c *dataHubBDDContext) theHubRehandshakesAndTheResourceFetchSucceeds() error {
	if c.lastErr != nil {
		return c.lastErr
	}
	if c.kbsState.authCalls < 2 {
		return errNoRehandshake
	}
	return nil
}

func newTestHubForBDD(srvURL string) *Hub {
	cfg := &Config{KBSHostURL: srvURL, RequestTimeoutSeconds: 5}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	h, err := New(context.Background(), cfg, fakeEvidenceClient{}, NoopLogger{})
	if err != nil {
		panic(err)
	}
	return h
}

// buildEnvelopeSecretJSON wraps a fresh DEK under kek and encrypts a fixed
// payload under the DEK, producing the wire JSON an Envelope secret expects.
func buildEnvelopeSecretJSON(kek []byte, keyID string) (secretJSON []byte, payload []byte, err error) {
	dek, err := hubcrypto.GenerateDEK()
	if err != nil {
		return nil, nil, err
	}
	payload = []byte("the actual secret payload")
	dataIv, encData, err := hubcrypto.Encrypt(hubcrypto.AlgA256GCM, dek.Bytes(), payload)
	if err != nil {
		return nil, nil, err
	}
	wrapIv, wrappedKey, err := hubcrypto.Encrypt(hubcrypto.AlgA256GCM, kek, dek.Bytes())
	if err != nil {
		return nil, nil, err
	}

	secretJSON, err = json.Marshal(map[string]any{
		"version":        "0.1.0",
		"provider":       "kbs",
		"type":           "Envelope",
		"key_id":         keyID,
		"encrypted_key":  hubcrypto.Base64URLEncode(wrappedKey),
		"iv":             hubcrypto.Base64URLEncode(dataIv),
		"wrap_type":      "A256GCM",
		"encrypted_data": hubcrypto.Base64URLEncode(encData),
		"annotations":    map[string]string{"iv": hubcrypto.Base64URLEncode(wrapIv)},
	})
	return secretJSON, payload, err
}

func InitializeDataHubScenario(ctx *godog.ScenarioContext) {
	c := &dataHubBDDContext{}

	ctx.Before(func(goCtx context.Context, sc *godog.Scenario) (context.Context, error) {
		c.reset()
		return goCtx, nil
	})

	ctx.Step(`^a kbs server holding a key-encryption key$`, c.aKbsServerHoldingAKeyEncryptionKey)
	ctx.Step(`^a hub attested against that kbs server$`, c.aHubAttestedAgainstThatKbsServer)
	ctx.Step(`^the hub unseals an envelope secret wrapped under that key-encryption key$`, c.theHubUnsealsAnEnvelopeSecretWrappedUnderThatKeyEncryptionKey)
	ctx.Step(`^the unseal succeeds and returns the original payload$`, c.theUnsealSucceedsAndReturnsTheOriginalPayload)
	ctx.Step(`^the kbs server's session has expired$`, c.theKbsServersSessionHasExpired)
	ctx.Step(`^the hub fetches a resource from that kbs server$`, c.theHubFetchesAResourceFromThatKbsServer)
	ctx.Step(`^the hub re-handshakes and the resource fetch succeeds$`, c.theHubRehandshakesAndTheResourceFetchSucceeds)
}

func TestDataHub(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeDataHubScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/data_hub.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
