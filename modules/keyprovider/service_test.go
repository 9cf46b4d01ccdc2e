package keyprovider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	plaintext []byte
	err       error
	calls     int
}

func (f *fakeHub) UnwrapKey(ctx context.Context, annotationPacket []byte) ([]byte, error) {
	f.calls++
	return f.plaintext, f.err
}

func TestHandleRequestMissingOp(t *testing.T) {
	_, err := HandleRequest(context.Background(), &fakeHub{}, []byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingOp)
}

func TestHandleRequestUnsupportedOp(t *testing.T) {
	_, err := HandleRequest(context.Background(), &fakeHub{}, []byte(`{"op":"bogus"}`))
	assert.ErrorIs(t, err, ErrUnsupportedOp)
}

func TestHandleRequestKeyWrapUnsupported(t *testing.T) {
	_, err := HandleRequest(context.Background(), &fakeHub{}, []byte(`{"op":"keywrap"}`))
	assert.ErrorIs(t, err, ErrUnsupportedOp)
}

func TestHandleRequestKeyUnwrapDispatches(t *testing.T) {
	hub := &fakeHub{plaintext: []byte("layer-key")}
	req := KeyProviderKeyWrapProtocolInput{
		Op: OpKeyUnwrap,
		KeyUnwrapParams: &KeyUnwrapParams{
			Annotation: []byte(`{"kid":"kbs:///default/key/layer-kek"}`),
		},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	out, err := HandleRequest(context.Background(), hub, body)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.calls)

	var decoded KeyProviderKeyWrapProtocolOutput
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.NotNil(t, decoded.KeyUnwrapResults)
	assert.Equal(t, []byte("layer-key"), decoded.KeyUnwrapResults.OptsData)
}
