package database

import (
	"time"

	"github.com/rs/zerolog"
)

// BuiltArchive is an archive written to disk, as recorded in the catalogue.
type BuiltArchive struct {
	Path      string
	AppName   string
	Boundary  string
	Size      int64
	CreatedAt time.Time
	Parts     []BuiltPart
}

func (a BuiltArchive) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", a.Path)
	e.Str("app", a.AppName)
	e.Int64("size", a.Size)
	e.Int("parts", len(a.Parts))
}

// BuiltPart is one file stored in a BuiltArchive. Hash and Size describe
// the source file, before any encoding.
type BuiltPart struct {
	Name      string
	ContentID string
	MediaType string
	Encoding  string
	Size      int64
	Hash      uint64
	ModTime   time.Time
}

// ArchiveSummary is a catalogue entry with totals over its parts.
type ArchiveSummary struct {
	Path       string
	SourcePath string
	AppName    string
	Boundary   string
	Size       int64
	CreatedAt  time.Time
	PartCount  int
	PartsSize  int64
}

func (a ArchiveSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", a.Path)
	e.Str("source", a.SourcePath)
	e.Str("app", a.AppName)
	e.Int64("size", a.Size)
	e.Int("parts", a.PartCount)
	e.Time("created_at", a.CreatedAt)
}
