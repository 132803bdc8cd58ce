package transfer

import (
	"bytes"
	"fmt"
	"io"
	"mime/quotedprintable"
)

const upperhex = "0123456789ABCDEF"

// EncodeQuotedPrintable escapes data so that it survives a line-oriented MIME
// body unchanged. Line structure is kept: every LF in data is an LF in the
// output. "=" becomes "=3D", control bytes other than TAB are escaped (CR
// included, so CRLF text round-trips exactly), whitespace at the end of a line
// is escaped, and long lines are soft-wrapped so no output line is longer than
// MaxLineLength. Bytes >= 0x80 are left literal.
func EncodeQuotedPrintable(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data) + len(data)/16)

	for len(data) > 0 {
		line := data
		terminated := false
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			data = data[i+1:]
			terminated = true
		} else {
			data = nil
		}

		writeQuotedLine(&out, line)
		if terminated {
			out.WriteByte('\n')
		}
	}

	return out.Bytes()
}

func writeQuotedLine(out *bytes.Buffer, line []byte) {
	var col int
	var token [3]byte
	for i, b := range line {
		n := 1
		token[0] = b
		if mustEscape(b, i == len(line)-1) {
			token[0], token[1], token[2] = '=', upperhex[b>>4], upperhex[b&0x0f]
			n = 3
		}

		// Keep room for the soft break marker.
		if col+n > MaxLineLength-1 {
			out.WriteString("=\n")
			col = 0
		}
		out.Write(token[:n])
		col += n
	}
}

func mustEscape(b byte, last bool) bool {
	switch {
	case b == '=':
		return true
	case b == ' ' || b == '\t':
		return last
	case b < ' ' || b == 0x7f:
		return true
	default:
		return false
	}
}

// DecodeQuotedPrintable reverses EncodeQuotedPrintable, and accepts any
// quoted-printable body produced by common MIME writers.
func DecodeQuotedPrintable(body []byte) ([]byte, error) {
	decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("invalid quoted-printable body: %w", err)
	}
	return decoded, nil
}
