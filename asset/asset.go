package asset

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/fileutils"
)

// Kind is the media-type family of an asset. It decides how the asset is
// encoded and whether its references are rewritten.
type Kind int

const (
	Binary Kind = iota
	Text
	Markup // entry point documents, never given a content identifier
)

func (k Kind) String() string {
	switch k {
	case Markup:
		return "markup"
	case Text:
		return "text"
	default:
		return "binary"
	}
}

// File is a single flat web asset, either read from a source directory or
// decoded from an archive part. It is not modified once created.
type File struct {
	Name      string // base name, the archive has no sub-directories
	MediaType string
	Data      []byte
	Kind      Kind
	ModTime   time.Time
}

// New returns a File for data, deriving the media type and kind from name.
func New(name string, data []byte) File {
	mediaType := MediaTypeOf(name)
	return File{
		Name:      name,
		MediaType: mediaType,
		Data:      data,
		Kind:      Classify(mediaType),
	}
}

func (f File) IsBinary() bool {
	return f.Kind == Binary
}

func (f File) IsMarkup() bool {
	return f.Kind == Markup
}

func (f File) Size() int64 {
	return int64(len(f.Data))
}

func (f File) Hash() uint64 {
	return fileutils.HashBytes(f.Data)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (f File) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", f.Name)
	e.Str("media_type", f.MediaType)
	e.Str("kind", f.Kind.String())
	e.Int64("size", f.Size())
}
