package fileutils

import (
	"errors"
	"io"
	"os"

	"github.com/cespare/xxhash"
)

// HashBytes returns the xxhash of data. It is the content hash stored in the
// catalogue and shown by info.
func HashBytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// HashReader hashes everything r yields. It does not close r.
func HashReader(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// HashFile hashes the content of the file at path.
func HashFile(path string) (sum uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return HashReader(f)
}
