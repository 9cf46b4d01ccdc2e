package crypto

import "encoding/base64"

// Base64URLEncode encodes data using unpadded base64url, the encoding used
// throughout the KBS wire protocol (JWE-style fields) and ResourceUri tags.
func Base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Base64URLDecode decodes unpadded base64url data.
func Base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
