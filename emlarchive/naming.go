package emlarchive

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/stupid-simple/emlapp/asset"
	"github.com/stupid-simple/emlapp/fileutils"
)

// candidateName picks the name a part asks to be extracted as: its filename,
// else its content identifier with an extension for its media type, else a
// name derived from its position.
func candidateName(p RawPart) string {
	if name := SanitizeName(p.Filename()); name != "" {
		return name
	}
	if cid := SanitizeName(p.ContentID()); cid != "" {
		if filepath.Ext(cid) == "" {
			cid += asset.ExtensionFor(p.MediaType())
		}
		return cid
	}
	return fmt.Sprintf("part-%d.bin", p.Index)
}

// SanitizeName reduces name to a flat file name made of ASCII letters,
// digits, ".", "_", "-" and spaces. Other characters become "_". It returns
// an empty string when nothing usable is left.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-', r == ' ':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.TrimSpace(name)
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}

// namer hands out file names that are unique within one extraction and
// do not exist in the output directory.
type namer struct {
	dir   string
	limit int
	taken map[string]struct{}
}

func newNamer(dir string, limit int) *namer {
	return &namer{
		dir:   dir,
		limit: limit,
		taken: map[string]struct{}{},
	}
}

// assign returns name if it is free, otherwise the first free name among
// stem_1.ext to stem_<limit>.ext. The returned name is reserved.
func (n *namer) assign(name string) (string, error) {
	if n.free(name) {
		return n.reserve(name), nil
	}

	stem, ext := splitExt(name)
	for i := 1; i <= n.limit; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if n.free(candidate) {
			return n.reserve(candidate), nil
		}
	}
	return "", fmt.Errorf("%w: %q and %d alternatives are taken", ErrFilenameCollisionExhausted, name, n.limit)
}

func (n *namer) free(name string) bool {
	if _, ok := n.taken[strings.ToLower(name)]; ok {
		return false
	}
	return !fileutils.Exists(filepath.Join(n.dir, name))
}

func (n *namer) reserve(name string) string {
	n.taken[strings.ToLower(name)] = struct{}{}
	return name
}

// splitExt splits "logo.png" into "logo" and ".png". A leading dot is part of
// the stem, so ".htaccess" has no extension.
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	return stem, ext
}
