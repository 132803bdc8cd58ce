package emlarchive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/asset"
	"github.com/stupid-simple/emlapp/fileutils"
	"github.com/stupid-simple/emlapp/rewrite"
	"github.com/stupid-simple/emlapp/transfer"
)

// ExtractedFile is a part written to disk.
type ExtractedFile struct {
	AssignedName string
	Path         string
	Size         int64
	MediaType    string
	ContentID    string
	Hash         uint64
}

func (f ExtractedFile) IsMarkup() bool {
	return asset.Classify(f.MediaType) == asset.Markup
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (f ExtractedFile) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", f.AssignedName)
	e.Str("media_type", f.MediaType)
	e.Int64("size", f.Size)
	if f.ContentID != "" {
		e.Str("cid", f.ContentID)
	}
}

// Extract decodes parts into new files in outDir, which is created if
// needed. Existing files are never replaced: a taken name gets a numeric
// suffix. Once every part is written, cid: references in markup files are
// turned back into the local names the parts were given.
//
// On error the files written so far are left in place and returned.
func Extract(
	ctx context.Context,
	parts iter.Seq[RawPart],
	outDir string,
	logger zerolog.Logger,
	opts ...ExtractOption,
) ([]ExtractedFile, error) {
	o := extractOptions{collisionLimit: defaultCollisionLimit}
	for _, applyOpts := range opts {
		applyOpts(&o)
	}

	logger = logger.With().Str("dest", outDir).Logger()
	logger.Info().Msg("start extracting archive")
	start := time.Now()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}
	if err := fileutils.VerifyWritableDir(outDir); err != nil {
		return nil, err
	}

	names := newNamer(outDir, o.collisionLimit)
	cidNames := map[string]string{}
	var extracted []ExtractedFile
	for part := range parts {
		if ctx.Err() != nil {
			return extracted, ctx.Err()
		}

		f, err := extractPart(part, outDir, names)
		if err != nil {
			logger.Warn().Err(err).Object("part", part).Msg("could not extract part")
			return extracted, fmt.Errorf("part %d: %w", part.Index, err)
		}
		logger.Debug().Object("file", f).Msg("extracted part")

		extracted = append(extracted, f)
		if f.ContentID != "" {
			cidNames[f.ContentID] = f.AssignedName
		}
	}

	if err := localizeMarkup(extracted, cidNames, logger); err != nil {
		return extracted, err
	}

	logger.Info().
		Int("files_count", len(extracted)).
		Float64("seconds", time.Since(start).Seconds()).
		Msg("done extracting archive")

	return extracted, nil
}

// ExtractFile reads the archive at path, parses it once and extracts it into
// outDir.
func ExtractFile(
	ctx context.Context,
	path string,
	outDir string,
	logger zerolog.Logger,
	opts ...ExtractOption,
) (*Envelope, []ExtractedFile, error) {
	o := extractOptions{}
	for _, applyOpts := range opts {
		applyOpts(&o)
	}

	data, err := ReadArchive(path, o.maxArchiveBytes)
	if err != nil {
		return nil, nil, err
	}
	env, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug().
		Str("archive", path).
		Int("offset", env.Offset).
		Int("parts", len(env.Parts)).
		Msg("parsed archive")

	files, err := Extract(ctx, slices.Values(env.Parts), outDir, logger, opts...)
	return env, files, err
}

// ReadArchive reads a whole archive, refusing files larger than maxBytes
// when maxBytes is positive.
func ReadArchive(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrArchiveTooLarge, path, info.Size(), maxBytes)
	}

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s grew past %d bytes", ErrArchiveTooLarge, path, maxBytes)
	}
	return data, nil
}

// extractPart decodes a part before reserving a name for it, so a part that
// fails to decode leaves nothing behind.
func extractPart(part RawPart, outDir string, names *namer) (ExtractedFile, error) {
	data, err := transfer.Decode(part.TransferEncoding(), part.Body)
	if err != nil {
		return ExtractedFile{}, err
	}

	name, err := names.assign(candidateName(part))
	if err != nil {
		return ExtractedFile{}, err
	}

	mediaType := part.MediaType()
	if mediaType == "" {
		mediaType = asset.MediaTypeOf(name)
	}

	path := filepath.Join(outDir, name)
	if err := writeNewFile(path, data); err != nil {
		return ExtractedFile{}, err
	}

	f := asset.File{Name: name, Data: data}
	return ExtractedFile{
		AssignedName: name,
		Path:         path,
		Size:         f.Size(),
		MediaType:    mediaType,
		ContentID:    part.ContentID(),
		Hash:         f.Hash(),
	}, nil
}

// localizeMarkup rewrites cid: references in extracted markup to the names
// the referenced parts were given, and flattens remaining local references
// to those names.
func localizeMarkup(files []ExtractedFile, cidNames map[string]string, logger zerolog.Logger) error {
	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[f.AssignedName] = struct{}{}
	}

	for i := range files {
		f := &files[i]
		if !f.IsMarkup() {
			continue
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return err
		}
		text := rewrite.Flatten(rewrite.CIDToLocal(string(data), cidNames), known)
		if text == string(data) {
			continue
		}
		if err := os.WriteFile(f.Path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("could not rewrite references in %s: %w", f.AssignedName, err)
		}

		updated := asset.File{Name: f.AssignedName, Data: []byte(text)}
		f.Size = updated.Size()
		f.Hash = updated.Hash()
		logger.Debug().Object("file", f).Msg("localized references")
	}
	return nil
}

func writeNewFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if err != nil {
		return errors.Join(err, f.Close(), os.Remove(path))
	}
	return f.Close()
}
