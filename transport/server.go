// Package transport exposes the hub's three operations over a small HTTP
// surface. This is deliberately shallow — a production deployment may
// instead speak the OCI-crypt keyprovider gRPC protocol directly via
// modules/keyprovider — but a test or a CLI needs some external seam to
// drive the hub through, and the hub's Non-goals explicitly keep heavier
// RPC wiring out of the attested core.
package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	datahub "github.com/Xynnn007/confidential-data-hub"
)

// hub is the narrow capability set the server needs.
type hub interface {
	UnwrapKey(ctx context.Context, annotationPacket []byte) ([]byte, error)
	UnsealSecret(ctx context.Context, secretJSON []byte) ([]byte, error)
	GetResource(ctx context.Context, resourceURI string) ([]byte, error)
}

// Server adapts a *datahub.Hub to net/http.
type Server struct {
	hub    hub
	logger datahub.Logger
	mux    *http.ServeMux
}

// NewServer builds a Server and registers its routes.
func NewServer(h *datahub.Hub, logger datahub.Logger) *Server {
	if logger == nil {
		logger = datahub.NoopLogger{}
	}
	s := &Server{hub: h, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("/v1/unwrap-key", s.handleUnwrapKey)
	s.mux.HandleFunc("/v1/unseal-secret", s.handleUnsealSecret)
	s.mux.HandleFunc("/v1/get-resource", s.handleGetResource)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type resultEnvelope struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeResult(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resultEnvelope{Result: base64.StdEncoding.EncodeToString(data)})
}

// writeError reports every internal failure verbatim as a 500, matching
// this hub's error-handling design: it never tries to classify a failure
// into a narrower HTTP status, since the caller is expected to act on the
// message, not the status code.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(resultEnvelope{Error: err.Error()})
}

func (s *Server) handleUnwrapKey(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	plaintext, err := s.hub.UnwrapKey(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, plaintext)
}

func (s *Server) handleUnsealSecret(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	plaintext, err := s.hub.UnsealSecret(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, plaintext)
}

type getResourceRequest struct {
	URI string `json:"uri"`
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	var req getResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	data, err := s.hub.GetResource(r.Context(), req.URI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, data)
}
