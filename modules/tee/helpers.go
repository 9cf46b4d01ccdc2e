package tee

import (
	"bytes"
	"encoding/base64"
	"io"
)

func newBodyReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func encodeChallenge(runtimeData []byte) string {
	return base64.RawURLEncoding.EncodeToString(runtimeData)
}
