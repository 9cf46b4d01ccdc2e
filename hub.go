package datahub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Xynnn007/confidential-data-hub/modules/annotation"
	"github.com/Xynnn007/confidential-data-hub/modules/kbs"
	"github.com/Xynnn007/confidential-data-hub/modules/kms"
	"github.com/Xynnn007/confidential-data-hub/modules/kms/execdriver"
	"github.com/Xynnn007/confidential-data-hub/modules/secret"
	"github.com/Xynnn007/confidential-data-hub/modules/tee"
)

// Hub is the facade external callers drive: it owns the single shared KBS
// client and the registry of configured KMS drivers, and exposes the three
// operations the rest of the system needs — unwrapping an image layer key,
// unsealing a secret, and fetching a raw KBS resource.
type Hub struct {
	kbsClient   *kbs.Client
	kmsRegistry *kms.Registry
	logger      Logger
	subject     *CloudEventsSubject
}

// New wires a Hub from cfg: it builds the KBS handshaker and client
// (performing the initial handshake), and registers one exec driver per
// entry in cfg.KMSDrivers.
func New(ctx context.Context, cfg *Config, evidenceClient tee.EvidenceClient, logger Logger) (*Hub, error) {
	if logger == nil {
		logger = NoopLogger{}
	}
	subject := NewCloudEventsSubject("confidential-data-hub")

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	handshaker, err := kbs.NewHandshaker(ctx, cfg.KBSHostURL, evidenceClient, timeout)
	if err != nil {
		return nil, fmt.Errorf("constructing kbs handshaker: %w", err)
	}

	kbsClient, err := kbs.NewClient(ctx, handshaker)
	if err != nil {
		_ = subject.NotifyObservers(ctx, ObserverEvent{
			Type:   EventTypeHandshakeFailed,
			Source: "hub",
			Data:   map[string]string{"error": err.Error()},
		})
		return nil, fmt.Errorf("constructing kbs client: %w", err)
	}
	_ = subject.NotifyObservers(ctx, ObserverEvent{
		Type:   EventTypeHandshakeSucceeded,
		Source: "hub",
	})

	registry := kms.NewRegistry()
	for _, d := range cfg.KMSDrivers {
		driver := execdriver.New(d.Provider, d.Command, d.Args...)
		if err := registry.Register(driver); err != nil {
			return nil, fmt.Errorf("registering kms driver %s: %w", d.Provider, err)
		}
		logger.Info("registered kms driver", "provider", d.Provider, "command", d.Command)
	}

	return &Hub{
		kbsClient:   kbsClient,
		kmsRegistry: registry,
		logger:      logger,
		subject:     subject,
	}, nil
}

// Subject exposes the hub's event source so callers can register
// observers before driving it, e.g. in tests or a metrics bridge.
func (h *Hub) Subject() Subject { return h.subject }

// GetResource fetches and decrypts a raw KBS resource, identified by its
// textual kbs:/// URI.
func (h *Hub) GetResource(ctx context.Context, resourceURI string) ([]byte, error) {
	uri, err := kbs.ParseResourceURI(resourceURI)
	if err != nil {
		return nil, err
	}
	data, err := h.kbsClient.GetResource(ctx, uri)
	if err != nil {
		h.logger.Error("resource fetch failed", "uri", resourceURI, "error", err)
		return nil, err
	}
	_ = h.subject.NotifyObservers(ctx, ObserverEvent{
		Type:   EventTypeResourceFetched,
		Source: "hub",
		Data:   map[string]string{"uri": resourceURI},
	})
	return data, nil
}

// UnsealSecret decodes secretJSON as a secret.Secret and unseals it,
// routing to the KBS or the named KMS driver per the secret's provider.
func (h *Hub) UnsealSecret(ctx context.Context, secretJSON []byte) ([]byte, error) {
	var s secret.Secret
	if err := json.Unmarshal(secretJSON, &s); err != nil {
		return nil, fmt.Errorf("decoding secret: %w", err)
	}

	plaintext, err := s.Unseal(ctx, secret.Resolver{KBS: h.kbsClient, KMS: h.kmsRegistry})
	if err != nil {
		h.logger.Error("secret unseal failed", "provider", s.Provider, "error", err)
		return nil, err
	}
	_ = h.subject.NotifyObservers(ctx, ObserverEvent{
		Type:   EventTypeSecretUnsealed,
		Source: "hub",
		Data:   map[string]string{"provider": s.Provider},
	})
	return plaintext, nil
}

// UnwrapKey decodes annotationPacket (a V1 or V2 image-layer annotation
// packet) and unwraps the layer key it wraps. It satisfies
// keyprovider.KeyUnwrapper.
func (h *Hub) UnwrapKey(ctx context.Context, annotationPacket []byte) ([]byte, error) {
	packet, err := annotation.Parse(annotationPacket)
	if err != nil {
		return nil, err
	}

	plaintext, err := packet.UnwrapKey(ctx, annotation.Resolver{KBS: h.kbsClient, KMS: h.kmsRegistry})
	if err != nil {
		h.logger.Error("key unwrap failed", "error", err)
		return nil, err
	}
	_ = h.subject.NotifyObservers(ctx, ObserverEvent{
		Type:   EventTypeKeyUnwrapped,
		Source: "hub",
	})
	return plaintext, nil
}
