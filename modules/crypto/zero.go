package crypto

// Zeroizing wraps a byte slice holding key material. Call Zero once the
// plaintext key is no longer needed so it doesn't linger in memory for the
// lifetime of the process.
type Zeroizing struct {
	b []byte
}

// NewZeroizing wraps b. Ownership of b transfers to the returned value.
func NewZeroizing(b []byte) *Zeroizing {
	return &Zeroizing{b: b}
}

// Bytes returns the wrapped key material. Do not retain the returned slice
// past a call to Zero.
func (z *Zeroizing) Bytes() []byte {
	if z == nil {
		return nil
	}
	return z.b
}

// Zero overwrites the wrapped slice with zeroes.
func (z *Zeroizing) Zero() {
	if z == nil {
		return
	}
	for i := range z.b {
		z.b[i] = 0
	}
}
