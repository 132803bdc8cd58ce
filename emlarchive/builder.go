// Package emlarchive builds and reads polyglot web application archives: a
// shell prelude followed by a multipart/mixed MIME message holding the
// application files.
package emlarchive

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/asset"
	"github.com/stupid-simple/emlapp/transfer"
)

// BuildResult is an archive held in memory along with what went into it.
type BuildResult struct {
	Data     []byte
	Manifest *Manifest
	Boundary string
	AppName  string
	Created  time.Time
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r *BuildResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("app", r.AppName)
	e.Str("boundary", r.Boundary)
	e.Int("parts", len(r.Manifest.Entries))
	e.Int("size", len(r.Data))
}

// Build packs the files directly inside srcDir into an archive. An empty
// prelude selects DefaultPrelude. A missing Dockerfile or metadata.json is
// synthesized and, unless dry-running, written back to srcDir once every
// other step has succeeded.
func Build(
	ctx context.Context,
	srcDir string,
	prelude string,
	logger zerolog.Logger,
	opts ...BuildOption,
) (*BuildResult, error) {
	o := buildOptions{}
	for _, applyOpts := range opts {
		applyOpts(&o)
	}

	logger = logger.With().Str("source", srcDir).Logger()
	logger.Info().Msg("start building archive")
	start := time.Now()

	files, err := asset.ReadDirectory(ctx, srcDir, logger)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s contains no files", ErrEmptySource, srcDir)
	}
	if !hasMarkup(files) {
		return nil, fmt.Errorf("%w: %s contains no html file", ErrEmptySource, srcDir)
	}

	appName := o.appName
	if appName == "" {
		appName = appNameOf(srcDir)
	}
	created := o.createdAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC().Truncate(time.Second)

	if prelude == "" {
		prelude = DefaultPrelude(appName)
	}
	if err := ValidatePrelude(prelude); err != nil {
		return nil, err
	}

	descriptors, err := synthesizeDescriptors(files, appName, created)
	if err != nil {
		return nil, err
	}

	manifest, err := NewManifest(append(files, descriptors...))
	if err != nil {
		return nil, err
	}
	for _, e := range manifest.Entries {
		logger.Debug().Object("entry", e).Msg("archive entry")
	}

	boundary, err := chooseBoundary(o.boundary, manifest)
	if err != nil {
		return nil, err
	}

	// The source directory is only touched once the archive is known to build.
	if err := writeDescriptors(srcDir, descriptors, o.dryRun, logger); err != nil {
		return nil, err
	}

	result := &BuildResult{
		Manifest: manifest,
		Boundary: boundary,
		AppName:  appName,
		Created:  created,
	}
	result.Data = writeArchive(prelude, result)

	logger.Info().
		Object("archive", result).
		Float64("seconds", time.Since(start).Seconds()).
		Msg("done building archive")

	return result, nil
}

func writeArchive(prelude string, r *BuildResult) []byte {
	var b bytes.Buffer

	b.WriteString(prelude)
	if !strings.HasSuffix(prelude, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(EnvelopeMarker + "\n")

	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", "WebApp - "+singleLine(r.AppName)))
	writeHeader(&b, "Content-Type", withQuotedParam("multipart/mixed", "boundary", r.Boundary))
	writeHeader(&b, "X-App-Type", AppType)
	writeHeader(&b, "X-App-Name", mime.QEncoding.Encode("utf-8", singleLine(r.AppName)))
	writeHeader(&b, "X-Generator", Generator)
	writeHeader(&b, "X-Created", r.Created.Format(time.RFC3339))
	b.WriteByte('\n')

	for _, e := range r.Manifest.Entries {
		b.WriteString("--" + r.Boundary + "\n")

		contentType := e.File.MediaType
		if e.Encoding == transfer.QuotedPrintable {
			contentType = mime.FormatMediaType(contentType, map[string]string{"charset": "utf-8"})
		}
		writeHeader(&b, "Content-Type", contentType)
		if e.ContentID != "" {
			writeHeader(&b, "Content-ID", "<"+e.ContentID+">")
		}
		writeHeader(&b, "Content-Transfer-Encoding", string(e.Encoding))
		disposition := "attachment"
		if e.File.IsMarkup() {
			disposition = "inline"
		}
		writeHeader(&b, "Content-Disposition", withQuotedParam(disposition, "filename", e.File.Name))
		b.WriteByte('\n')

		b.Write(e.Body)
		b.WriteByte('\n')
	}
	b.WriteString("--" + r.Boundary + "--\n")

	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// withQuotedParam appends a quoted-string parameter to value. Parameters that
// are not printable ASCII are RFC 2231 encoded instead.
func withQuotedParam(value, key, param string) string {
	for _, r := range param {
		if r < ' ' || r > '~' {
			return mime.FormatMediaType(value, map[string]string{key: param})
		}
	}
	return value + "; " + key + `="` + quoteEscaper.Replace(param) + `"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func hasMarkup(files []asset.File) bool {
	for _, f := range files {
		if f.IsMarkup() {
			return true
		}
	}
	return false
}

func appNameOf(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(dir)
}
