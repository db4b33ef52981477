package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"ascii", "hello world"},
		{"latin accents", "café déjà vu"},
		{"combining characters", "é ä ñ"},
		{"cjk", "日本語の本"},
		{"emoji outside BMP", "📚🐉 👩‍👩‍👧"},
		{"json document", `{"title":"Ünïcödé","pages":[]}`},
		{"line separators", "a b c"},
		{"replacement char", "\ufffd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
		})
	}
}

func TestDecodeStripsWhitespace(t *testing.T) {
	encoded := Encode("a longer piece of text that the API would wrap across lines")
	wrapped := encoded[:20] + "\n" + encoded[20:40] + "\r\n  " + encoded[40:] + "\n"

	got, err := Decode(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "a longer piece of text that the API would wrap across lines", got)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "!!!not base64!!!"},
		{"invalid utf8", EncodeBytes([]byte{0xff, 0xfe, 0xfd})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			var serr *domain.SerializationError
			assert.True(t, errors.As(err, &serr))
		})
	}
}

func TestMarshalIndentsWithoutEscapingHTML(t *testing.T) {
	out, err := Marshal("books.json", map[string]string{"url": "/read/1?a=b&c=<d>"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"url\": \"/read/1?a=b&c=<d>\"\n}\n", string(out))
}

func TestUnmarshalMalformed(t *testing.T) {
	var v map[string]any
	err := Unmarshal("feed.json", []byte("{not json"), &v)

	var serr *domain.SerializationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "feed.json", serr.Path)
}
