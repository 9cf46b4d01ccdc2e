// Command datahub runs the confidential data hub: it attests to a KBS,
// then serves key-unwrap, secret-unseal and resource-fetch requests for
// the encrypted workloads co-located with it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	datahub "github.com/Xynnn007/confidential-data-hub"
	"github.com/Xynnn007/confidential-data-hub/modules/tee"
	"github.com/Xynnn007/confidential-data-hub/transport"
	"github.com/golobby/cast"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath     = flag.String("config", "", "path to a YAML or TOML hub configuration file")
		socket         = flag.String("socket", "", "unix socket to listen on, overriding the config file's socket")
		kbsAddr        = flag.String("kbs-addr", "", "kbs host url, overriding the config file's kbs_host_url")
		agentSocket    = flag.String("attestation-agent-socket", "", "attestation agent unix socket, overriding the config file")
		logLevel       = flag.String("log-level", "", "log level: debug, info, warn, error")
		requestTimeout = flag.String("request-timeout-seconds", "", "kbs request timeout in seconds, overriding the config file")
	)
	flag.Parse()

	if *configPath == "" {
		return fmt.Errorf("missing required -config flag")
	}
	cfg, err := datahub.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *socket != "" {
		cfg.Socket = *socket
	}
	if *kbsAddr != "" {
		cfg.KBSHostURL = *kbsAddr
	}
	if *agentSocket != "" {
		cfg.AttestationAgentSocket = *agentSocket
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *requestTimeout != "" {
		// flag.Int would reject a value sourced from an env-substituted
		// systemd unit file before it ever reaches us as a string; cast
		// accepts anything that looks like an integer.
		seconds, err := cast.ToInt(*requestTimeout)
		if err != nil {
			return fmt.Errorf("parsing -request-timeout-seconds: %w", err)
		}
		cfg.RequestTimeoutSeconds = seconds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := datahub.NewSlogLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	evidenceClient := tee.NewSocketEvidenceClient(cfg.AttestationAgentSocket)

	hub, err := datahub.New(ctx, cfg, evidenceClient, logger)
	if err != nil {
		return fmt.Errorf("initializing hub: %w", err)
	}

	server := transport.NewServer(hub, logger)

	listener, err := net.Listen("unix", cfg.Socket)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Socket, err)
	}

	httpServer := &http.Server{Handler: server}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	logger.Info("confidential data hub started", "socket", cfg.Socket, "kbs", cfg.KBSHostURL)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return httpServer.Close()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}
}
