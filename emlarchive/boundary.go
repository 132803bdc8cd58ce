package emlarchive

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"
)

const (
	boundaryPrefix      = "=_emlapp_"
	maxBoundaryAttempts = 64
	maxBoundaryLength   = 70
)

// chooseBoundary returns a token that no line of any encoded body starts
// with when prefixed by "--". Candidates are the base token followed by
// "_1", "_2" and so on.
func chooseBoundary(fixed string, m *Manifest) (string, error) {
	base := fixed
	if base == "" {
		h := xxhash.New()
		for _, e := range m.Entries {
			_, _ = h.Write([]byte(e.File.Name))
			_, _ = h.Write(e.Body)
		}
		base = fmt.Sprintf("%s%016x", boundaryPrefix, h.Sum64())
	}

	for attempt := 0; attempt < maxBoundaryAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d", base, attempt)
		}
		if err := validateBoundary(candidate); err != nil {
			return "", err
		}
		if !boundaryOccurs(candidate, m) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: tried %d candidates from %q", ErrBoundaryExhausted, maxBoundaryAttempts, base)
}

func boundaryOccurs(boundary string, m *Manifest) bool {
	delimiter := []byte("--" + boundary)
	for _, e := range m.Entries {
		for _, line := range bytes.Split(e.Body, []byte("\n")) {
			if bytes.HasPrefix(line, delimiter) {
				return true
			}
		}
	}
	return false
}

// validateBoundary checks the token against the characters and length
// multipart boundaries are allowed to have.
func validateBoundary(b string) error {
	if b == "" || len(b) > maxBoundaryLength {
		return fmt.Errorf("%w: length of %q must be 1 to %d", ErrInvalidBoundary, b, maxBoundaryLength)
	}
	if b[len(b)-1] == ' ' {
		return fmt.Errorf("%w: %q ends with a space", ErrInvalidBoundary, b)
	}
	for _, r := range b {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("'()+_,-./:=? ", r):
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidBoundary, b, r)
		}
	}
	return nil
}
