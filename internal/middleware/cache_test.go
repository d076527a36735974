package middleware

import (
    "net/http"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestPayloadEncodeDecode(t *testing.T) {
    hdr := http.Header{
        "Content-Type": {"application/json"},
        "X-Custom":     {"a", "b"},
    }
    body := []byte(`{"items":[]}`)

    payload, err := encodePayload(http.StatusOK, hdr, body)
    require.NoError(t, err)

    status, gotHdr, gotBody, ok := decodePayload(payload)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, hdr, gotHdr)
    assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
    for _, bs := range [][]byte{nil, {}, {1, 2, 3}, []byte("short")} {
        _, _, _, ok := decodePayload(bs)
        assert.False(t, ok)
    }
    // A header length pointing past the buffer must not panic.
    bad, err := encodePayload(200, http.Header{}, nil)
    require.NoError(t, err)
    bad[4] = 0xFF
    _, _, _, ok := decodePayload(bad)
    assert.False(t, ok)
}
