// Package transfer converts asset bytes to and from the MIME
// Content-Transfer-Encodings used in archive parts.
package transfer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/stupid-simple/emlapp/asset"
)

// Encoding is a Content-Transfer-Encoding name.
type Encoding string

const (
	QuotedPrintable Encoding = "quoted-printable"
	Base64          Encoding = "base64"
	SevenBit        Encoding = "7bit"
	EightBit        Encoding = "8bit"
	Binary          Encoding = "binary"
)

// MaxLineLength is the longest encoded line the encoders produce.
const MaxLineLength = 76

var (
	ErrUnsupportedEncoding = errors.New("unsupported transfer encoding")
	ErrInvalidMarkup       = errors.New("markup is not valid UTF-8")
)

// UnsupportedEncodingError is returned when a part declares an encoding this
// package does not decode. It matches ErrUnsupportedEncoding.
type UnsupportedEncodingError struct {
	Encoding string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedEncoding, e.Encoding)
}

func (e *UnsupportedEncodingError) Is(target error) bool {
	return target == ErrUnsupportedEncoding
}

// Encoded is an asset body ready to be placed in a MIME part.
type Encoded struct {
	Body     []byte
	Encoding Encoding
}

// Encode picks the transfer encoding for f from its kind and encodes it.
// Markup is passed through rewriteMarkup (when not nil) before encoding and
// must be valid UTF-8. Text that is not UTF-8 falls back to base64.
func Encode(f asset.File, rewriteMarkup func(string) string) (Encoded, error) {
	switch f.Kind {
	case asset.Markup:
		if !utf8.Valid(f.Data) {
			return Encoded{}, fmt.Errorf("%s: %w", f.Name, ErrInvalidMarkup)
		}
		text := string(f.Data)
		if rewriteMarkup != nil {
			text = rewriteMarkup(text)
		}
		return Encoded{Body: EncodeQuotedPrintable([]byte(text)), Encoding: QuotedPrintable}, nil
	case asset.Text:
		if utf8.Valid(f.Data) {
			return Encoded{Body: EncodeQuotedPrintable(f.Data), Encoding: QuotedPrintable}, nil
		}
	}
	return Encoded{Body: EncodeBase64(f.Data), Encoding: Base64}, nil
}

// Decode reverses the named transfer encoding. An empty name is treated as
// 7bit, the MIME default.
func Decode(encoding string, body []byte) ([]byte, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(encoding))) {
	case QuotedPrintable:
		return DecodeQuotedPrintable(body)
	case Base64:
		return DecodeBase64(body)
	case "", SevenBit, EightBit, Binary:
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	default:
		return nil, &UnsupportedEncodingError{Encoding: encoding}
	}
}
