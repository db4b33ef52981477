// Package codec converts document bytes to and from the contents API transport
// encoding (standard base64 over the raw UTF-8 bytes) and JSON.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"bookora/internal/domain"
)

var errInvalidUTF8 = errors.New("decoded content is not valid UTF-8")

// Encode base64-encodes the UTF-8 bytes of s
func Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// EncodeBytes base64-encodes raw bytes
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode strips whitespace (the contents API wraps base64 at 60 columns),
// decodes, and verifies the result is valid UTF-8.
func Decode(encoded string) (string, error) {
	b, err := DecodeBytes(encoded)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &domain.SerializationError{Err: errInvalidUTF8}
	}
	return string(b), nil
}

// DecodeBytes strips whitespace and decodes without the UTF-8 check
func DecodeBytes(encoded string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, encoded)

	b, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, &domain.SerializationError{Err: err}
	}
	return b, nil
}

// Marshal renders v as 2-space indented JSON with a trailing newline.
// HTML characters are not escaped so stored documents stay human-readable.
func Marshal(path string, v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, &domain.SerializationError{Path: path, Err: err}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses document content; unknown fields are ignored
func Unmarshal(path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	return nil
}
