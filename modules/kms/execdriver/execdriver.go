// Package execdriver implements a KMS driver that keeps cloud-credential
// code out of the attested hub process by shelling out to a helper binary
// and speaking newline-delimited JSON over its stdin/stdout. This is the
// reference pattern for wiring a concrete cloud provider without linking
// its SDK into the core.
package execdriver

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/Xynnn007/confidential-data-hub/modules/kms"
)

// Driver supervises one long-lived helper process. The process is started
// lazily on first use and kept running across calls; if it exits, the next
// call restarts it.
type Driver struct {
	name string
	path string
	args []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Reader
}

// New constructs a driver named name, launching path with args on first
// use.
func New(name, path string, args ...string) *Driver {
	return &Driver{name: name, path: path, args: args}
}

func (d *Driver) Name() string { return d.name }

type request struct {
	Op          string            `json:"op"`
	KeyID       string            `json:"key_id,omitempty"`
	Name        string            `json:"name,omitempty"`
	Data        string            `json:"data,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

type response struct {
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (d *Driver) ensureStarted() error {
	if d.cmd != nil {
		return nil
	}
	cmd := exec.Command(d.path, d.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening helper stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening helper stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting kms helper %s: %w", d.path, err)
	}
	d.cmd = cmd
	d.stdin = bufio.NewWriter(stdin)
	d.stdout = bufio.NewReader(stdout)
	// Reap the helper when it exits and forget it, so the next call starts
	// a fresh one.
	go func() {
		_ = cmd.Wait()
		d.mu.Lock()
		if d.cmd == cmd {
			d.cmd = nil
		}
		d.mu.Unlock()
	}()
	return nil
}

func (d *Driver) call(ctx context.Context, req request) (response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return response{}, err
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return response{}, fmt.Errorf("encoding helper request: %w", err)
	}
	if _, err := d.stdin.Write(append(encoded, '\n')); err != nil {
		return response{}, fmt.Errorf("writing to kms helper: %w", err)
	}
	if err := d.stdin.Flush(); err != nil {
		return response{}, fmt.Errorf("flushing kms helper request: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return response{}, fmt.Errorf("reading kms helper response: %w", err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return response{}, fmt.Errorf("decoding kms helper response: %w", err)
	}
	if resp.Error != "" {
		return response{}, fmt.Errorf("kms helper %s: %s", d.name, resp.Error)
	}
	return resp, nil
}

func (d *Driver) Encrypt(ctx context.Context, keyID string, plaintext []byte, ann kms.Annotations) ([]byte, error) {
	resp, err := d.call(ctx, request{
		Op:          "encrypt",
		KeyID:       keyID,
		Data:        base64.StdEncoding.EncodeToString(plaintext),
		Annotations: ann,
	})
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(resp.Data)
}

func (d *Driver) Decrypt(ctx context.Context, keyID string, ciphertext []byte, ann kms.Annotations) ([]byte, error) {
	resp, err := d.call(ctx, request{
		Op:          "decrypt",
		KeyID:       keyID,
		Data:        base64.StdEncoding.EncodeToString(ciphertext),
		Annotations: ann,
	})
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(resp.Data)
}

func (d *Driver) GetSecret(ctx context.Context, name string, ann kms.Annotations) ([]byte, error) {
	resp, err := d.call(ctx, request{Op: "get_secret", Name: name, Annotations: ann})
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(resp.Data)
}

func (d *Driver) SetSecret(ctx context.Context, name string, value []byte, ann kms.Annotations) error {
	_, err := d.call(ctx, request{
		Op:          "set_secret",
		Name:        name,
		Data:        base64.StdEncoding.EncodeToString(value),
		Annotations: ann,
	})
	return err
}

var _ kms.Driver = (*Driver)(nil)
