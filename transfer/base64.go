package transfer

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// EncodeBase64 returns the standard base64 encoding of data hard-wrapped at
// MaxLineLength columns. The last line is not newline-terminated.
func EncodeBase64(data []byte) []byte {
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(encoded, data)

	out := make([]byte, 0, len(encoded)+len(encoded)/MaxLineLength)
	for len(encoded) > MaxLineLength {
		out = append(out, encoded[:MaxLineLength]...)
		out = append(out, '\n')
		encoded = encoded[MaxLineLength:]
	}
	return append(out, encoded...)
}

// DecodeBase64 decodes a wrapped base64 body. Whitespace is ignored.
func DecodeBase64(body []byte) ([]byte, error) {
	compact := bytes.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, body)

	decoded := make([]byte, base64.RawStdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(decoded, compact)
	if err != nil {
		n, err = base64.RawStdEncoding.Decode(decoded, bytes.TrimRight(compact, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 body: %w", err)
		}
	}
	return decoded[:n], nil
}
