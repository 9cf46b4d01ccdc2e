// Package tee models the set of trusted execution environments the hub can
// run inside, and the boundary to the local evidence-producing agent.
package tee

import (
	"encoding/json"
	"fmt"
)

// Tee identifies a trusted execution environment flavor. The wire form is a
// lowercase JSON string, matching the attestation agent's protocol.
type Tee int

const (
	Sample Tee = iota
	Sgx
	Sev
	Snp
	Tdx
	Cca
	AzSnpVtpm
)

var teeNames = map[Tee]string{
	Sample:    "sample",
	Sgx:       "sgx",
	Sev:       "sev",
	Snp:       "snp",
	Tdx:       "tdx",
	Cca:       "cca",
	AzSnpVtpm: "az-snp-vtpm",
}

var teeValues = func() map[string]Tee {
	m := make(map[string]Tee, len(teeNames))
	for k, v := range teeNames {
		m[v] = k
	}
	return m
}()

// ErrUnknownTeeType is returned when decoding an unrecognized TEE wire value.
var ErrUnknownTeeType = fmt.Errorf("unknown TEE type")

func (t Tee) String() string {
	if name, ok := teeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTee maps a wire string to a Tee value.
func ParseTee(s string) (Tee, error) {
	if t, ok := teeValues[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTeeType, s)
}

func (t Tee) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tee) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding TEE type: %w", err)
	}
	parsed, err := ParseTee(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
