package emlarchive

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/asset"
	"github.com/stupid-simple/emlapp/rewrite"
	"github.com/stupid-simple/emlapp/transfer"
)

const (
	EntryPointName = "index.html"
	DockerfileName = "Dockerfile"
	MetadataName   = "metadata.json"
)

// Infrastructure files emitted right after the markup, in this order.
var standardFiles = []string{DockerfileName, MetadataName}

// Entry is one part of an archive as it will be emitted.
type Entry struct {
	File      asset.File
	ContentID string // empty for markup
	Encoding  transfer.Encoding
	Body      []byte // encoded body
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("name", e.File.Name)
	ev.Str("media_type", e.File.MediaType)
	ev.Str("encoding", string(e.Encoding))
	ev.Int64("size", e.File.Size())
	if e.ContentID != "" {
		ev.Str("cid", e.ContentID)
	}
}

// Manifest lists the parts of one archive in emission order.
type Manifest struct {
	Entries []Entry
}

// NewManifest assigns content identifiers to files, orders them and encodes
// them. A file name appearing twice is only kept once.
func NewManifest(files []asset.File) (*Manifest, error) {
	seen := make(map[string]struct{}, len(files))
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		entries = append(entries, Entry{File: f})
	}

	cids, err := assignContentIDs(entries)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, compareEntries)

	toCID := func(text string) string {
		return rewrite.LocalToCID(text, cids)
	}
	for i := range entries {
		encoded, err := transfer.Encode(entries[i].File, toCID)
		if err != nil {
			return nil, err
		}
		entries[i].Encoding = encoded.Encoding
		entries[i].Body = encoded.Body
	}

	return &Manifest{Entries: entries}, nil
}

// ContentIDs maps file names to their content identifiers.
func (m *Manifest) ContentIDs() map[string]string {
	cids := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		if e.ContentID != "" {
			cids[e.File.Name] = e.ContentID
		}
	}
	return cids
}

func (m *Manifest) Names() []string {
	names := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		names[i] = e.File.Name
	}
	return names
}

// ContentID derives the identifier of a file from its name by replacing
// every character that is not an ASCII letter or digit with "_".
func ContentID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

func assignContentIDs(entries []Entry) (map[string]string, error) {
	owners := make(map[string]string, len(entries))
	cids := make(map[string]string, len(entries))
	for i := range entries {
		f := entries[i].File
		if f.IsMarkup() {
			continue
		}
		cid := ContentID(f.Name)
		if owner, ok := owners[cid]; ok {
			return nil, fmt.Errorf("%w: %q and %q both map to %q", ErrDuplicateContentID, owner, f.Name, cid)
		}
		owners[cid] = f.Name
		cids[f.Name] = cid
		entries[i].ContentID = cid
	}
	return cids, nil
}

func compareEntries(a, b Entry) int {
	ga, sa := entryRank(a.File)
	gb, sb := entryRank(b.File)
	return cmp.Or(
		cmp.Compare(ga, gb),
		cmp.Compare(sa, sb),
		strings.Compare(a.File.Name, b.File.Name),
	)
}

// entryRank returns the group and position within the group of a file:
// markup first (the entry point ahead of the rest), standard files next,
// everything else last.
func entryRank(f asset.File) (group int, sub int) {
	if f.IsMarkup() {
		if f.Name == EntryPointName {
			return 0, 0
		}
		return 0, 1
	}
	if i := slices.Index(standardFiles, f.Name); i >= 0 {
		return 1, i
	}
	return 2, 0
}
