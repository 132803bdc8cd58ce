package database

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/asset"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppSource is a catalogued application source directory.
type AppSource struct {
	db     *Database
	record *Source
	logger zerolog.Logger
}

func (s *AppSource) Path() string {
	return s.record.Path
}

// LatestArchive returns the most recent archive built from this source, or
// nil when there is none.
func (s *AppSource) LatestArchive(ctx context.Context) (*Archive, error) {
	s.db.Lock.Lock()
	defer s.db.Lock.Unlock()

	archive := &Archive{}
	err := s.db.Cli.WithContext(ctx).
		Where("source_path = ?", s.record.Path).
		Order("created_at DESC").
		First(archive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return archive, nil
}

// HasChanges reports whether files differ from what the latest archive of
// this source holds: a file was added, removed or its content changed.
func (s *AppSource) HasChanges(ctx context.Context, files iter.Seq[asset.File]) (bool, error) {
	latest, err := s.LatestArchive(ctx)
	if err != nil {
		return false, err
	}
	if latest == nil {
		s.logger.Debug().Msg("source was never archived")
		return true, nil
	}

	parts, err := s.db.FindParts(ctx, latest.Path)
	if err != nil {
		return false, err
	}
	archived := make(map[string]*ArchivePart, len(parts))
	for i := range parts {
		archived[parts[i].Name] = &parts[i]
	}

	var count int
	for f := range files {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		count++
		part, ok := archived[f.Name]
		if !ok {
			s.logger.Info().Object("file", f).Msg("file not archived")
			return true, nil
		}
		if isFileModified(f, part) {
			s.logger.Info().Object("file", f).Msg("file was modified")
			return true, nil
		}
	}
	if count != len(archived) {
		s.logger.Info().Int("files", count).Int("archived", len(archived)).Msg("files were removed")
		return true, nil
	}
	return false, nil
}

// RecordArchive stores an archive and its parts, replacing any previous
// record for the same archive path.
func (s *AppSource) RecordArchive(ctx context.Context, a BuiltArchive) error {
	logger := s.logger.With().Object("archive", a).Logger()

	s.db.Lock.Lock()
	defer s.db.Lock.Unlock()

	if s.db.DryRun {
		logger.Info().Msg("would record archive (dry run)")
		return nil
	}

	parts := make([]ArchivePart, 0, len(a.Parts))
	for i, p := range a.Parts {
		parts = append(parts, ArchivePart{
			ArchivePath: a.Path,
			Name:        p.Name,
			Position:    i,
			ContentID:   p.ContentID,
			MediaType:   p.MediaType,
			Encoding:    p.Encoding,
			Hash:        int64(p.Hash),
			Size:        p.Size,
			ModTime:     p.ModTime,
		})
	}

	err := s.db.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteArchives(tx, []string{a.Path}); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&Archive{
			Path:       a.Path,
			SourcePath: s.record.Path,
			AppName:    a.AppName,
			Boundary:   a.Boundary,
			Size:       a.Size,
			CreatedAt:  a.CreatedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to record archive: %w", err)
		}

		if len(parts) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(parts, iterateBatchSize).Error; err != nil {
			return fmt.Errorf("failed to record archive parts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().Msg("recorded archive")
	return nil
}

// FindArchives iterates over the archives built from this source.
func (s *AppSource) FindArchives(ctx context.Context, opts ...FindArchivesOptions) (iter.Seq[ArchiveSummary], error) {
	return s.db.FindArchives(ctx, append(opts, WithFindArchivesSource(s.record.Path))...)
}

func deleteArchives(tx *gorm.DB, archivePaths []string) error {
	if err := tx.Where("archive_path IN ?", archivePaths).Delete(&ArchivePart{}).Error; err != nil {
		return fmt.Errorf("failed to delete archive parts: %w", err)
	}
	if err := tx.Where("path IN ?", archivePaths).Delete(&Archive{}).Error; err != nil {
		return fmt.Errorf("failed to delete archives: %w", err)
	}
	return nil
}

func isFileModified(f asset.File, part *ArchivePart) bool {
	if f.ModTime.Compare(part.ModTime) == 0 && f.Size() == part.Size {
		return false
	}
	return f.Hash() != uint64(part.Hash)
}
