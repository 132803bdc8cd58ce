package emlarchive

import (
	"bytes"
	"fmt"
	"mime"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RawPart is one body part of the envelope, still transfer-encoded.
type RawPart struct {
	Index  int // position in the envelope, from 0
	Header textproto.MIMEHeader
	Body   []byte
}

// MediaType returns the lowercased media type without parameters, or an
// empty string when the header is absent or malformed.
func (p RawPart) MediaType() string {
	mediaType, _, err := mime.ParseMediaType(p.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

func (p RawPart) TransferEncoding() string {
	return p.Header.Get("Content-Transfer-Encoding")
}

// ContentID returns the Content-ID without its angle brackets.
func (p RawPart) ContentID() string {
	id := strings.TrimSpace(p.Header.Get("Content-ID"))
	return strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
}

// Filename returns the file name from Content-Disposition, falling back to
// the name parameter of Content-Type.
func (p RawPart) Filename() string {
	if _, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if _, params, err := mime.ParseMediaType(p.Header.Get("Content-Type")); err == nil {
		return params["name"]
	}
	return ""
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (p RawPart) MarshalZerologObject(e *zerolog.Event) {
	e.Int("index", p.Index)
	e.Str("media_type", p.MediaType())
	e.Str("encoding", p.TransferEncoding())
	e.Str("filename", p.Filename())
	e.Str("cid", p.ContentID())
	e.Int("encoded_size", len(p.Body))
}

// Envelope is the MIME message found in an archive.
type Envelope struct {
	Offset   int // byte offset of the MIME-Version line
	Header   textproto.MIMEHeader
	Boundary string
	Parts    []RawPart
}

// AppName returns the application name recorded by the builder, if any.
func (e *Envelope) AppName() string {
	dec := new(mime.WordDecoder)
	if name := e.Header.Get("X-App-Name"); name != "" {
		if decoded, err := dec.DecodeHeader(name); err == nil {
			return decoded
		}
		return name
	}
	subject, err := dec.DecodeHeader(e.Header.Get("Subject"))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(subject, "WebApp - ")
}

// Created returns the X-Created time, if present and valid.
func (e *Envelope) Created() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.Header.Get("X-Created"))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Parse locates the MIME envelope in an archive and splits it into parts.
// Data before the envelope (the prelude) and after the closing delimiter is
// ignored. When the envelope marker is present, the search for the
// MIME-Version line starts after it. Parse does no I/O.
func Parse(data []byte) (*Envelope, error) {
	start := 0
	if marker, ok := findLine(data, 0, func(line []byte) bool { return string(line) == EnvelopeMarker }); ok {
		_, start = nextLine(data, marker)
	}

	offset, ok := findLine(data, start, func(line []byte) bool {
		return bytes.HasPrefix(line, []byte(mimeVersionPrefix))
	})
	if !ok {
		return nil, ErrEnvelopeNotFound
	}

	header, bodyStart := parseHeaderBlock(data[offset:])

	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBoundary, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil, fmt.Errorf("%w: content type is %q", ErrNoBoundary, mediaType)
	}

	parts, err := splitParts(data[offset+bodyStart:], params["boundary"])
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Offset:   offset,
		Header:   header,
		Boundary: params["boundary"],
		Parts:    parts,
	}, nil
}

// splitParts cuts a multipart body at its delimiter lines. The line break
// before a delimiter belongs to the delimiter, not to the preceding part.
func splitParts(body []byte, boundary string) ([]RawPart, error) {
	delimiter := []byte("--" + boundary)
	closeDelimiter := []byte("--" + boundary + "--")

	var parts []RawPart
	partStart := -1
	for pos := 0; pos < len(body); {
		end, next := nextLine(body, pos)
		line := bytes.TrimRight(body[pos:end], " \t")
		isClose := bytes.Equal(line, closeDelimiter)
		if isClose || bytes.Equal(line, delimiter) {
			if partStart >= 0 {
				parts = append(parts, newRawPart(len(parts), body[partStart:trimLineBreak(body, partStart, pos)]))
			}
			if isClose {
				return parts, nil
			}
			partStart = next
		}
		pos = next
	}
	return nil, fmt.Errorf("%w: %d parts before end of data", ErrTruncatedArchive, len(parts))
}

func newRawPart(index int, raw []byte) RawPart {
	header, bodyStart := parseHeaderBlock(raw)
	return RawPart{
		Index:  index,
		Header: header,
		Body:   raw[bodyStart:],
	}
}

// parseHeaderBlock reads header lines up to the first empty line and returns
// the headers and the offset just past that line. Folded lines are joined,
// lines without a colon are ignored.
func parseHeaderBlock(data []byte) (textproto.MIMEHeader, int) {
	header := textproto.MIMEHeader{}
	var lastKey string
	pos := 0
	for pos < len(data) {
		end, next := nextLine(data, pos)
		line := string(data[pos:end])
		pos = next

		if line == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if values := header[lastKey]; len(values) > 0 {
				values[len(values)-1] += " " + strings.TrimSpace(line)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			lastKey = ""
			continue
		}
		lastKey = textproto.CanonicalMIMEHeaderKey(key)
		header.Add(lastKey, strings.TrimSpace(value))
	}
	return header, pos
}

// findLine returns the offset of the first line at or after pos for which
// match is true. The line passed to match has no line terminator.
func findLine(data []byte, pos int, match func(line []byte) bool) (int, bool) {
	for pos < len(data) {
		end, next := nextLine(data, pos)
		if match(data[pos:end]) {
			return pos, true
		}
		pos = next
	}
	return 0, false
}

// nextLine returns the end of the line starting at pos, excluding its LF or
// CRLF terminator, and the start of the following line.
func nextLine(data []byte, pos int) (end int, next int) {
	i := bytes.IndexByte(data[pos:], '\n')
	if i < 0 {
		end, next = len(data), len(data)
	} else {
		end, next = pos+i, pos+i+1
	}
	if end > pos && data[end-1] == '\r' {
		end--
	}
	return end, next
}

func trimLineBreak(data []byte, start, end int) int {
	if end > start && data[end-1] == '\n' {
		end--
		if end > start && data[end-1] == '\r' {
			end--
		}
	}
	return end
}
