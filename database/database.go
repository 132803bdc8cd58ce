package database

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const iterateBatchSize = 50

type Database struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

func (d *Database) GetSource(ctx context.Context, path string) (*AppSource, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	d.Logger.Debug().Str("path", path).Msg("get source")

	source := &Source{}
	err := d.Cli.WithContext(ctx).Where(Source{Path: path}).FirstOrCreate(source).Error
	if err != nil {
		return nil, err
	}

	return &AppSource{db: d, record: source, logger: d.Logger.With().Str("source", path).Logger()}, nil
}

// FindArchives iterates over catalogued archives, newest first unless
// another order is requested.
func (d *Database) FindArchives(ctx context.Context, opts ...FindArchivesOptions) (iter.Seq[ArchiveSummary], error) {
	o := findArchivesOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(ArchiveSummary) bool) {
		offset := 0
		remaining := o.limit
		for {
			var thisBatchSize int
			if remaining > 0 {
				thisBatchSize = min(remaining, iterateBatchSize)
			} else {
				thisBatchSize = iterateBatchSize
			}

			query := d.Cli.WithContext(ctx).Table("archive").
				Select("archive.path, archive.source_path, archive.app_name, archive.boundary, archive.size, archive.created_at, " +
					"COALESCE(SUM(archive_part.size), 0) AS parts_size, COUNT(archive_part.name) AS part_count").
				Joins("LEFT JOIN archive_part ON archive.path = archive_part.archive_path").
				Group("archive.path, archive.source_path, archive.app_name, archive.boundary, archive.size, archive.created_at")

			if o.sourcePath != "" {
				query = query.Where("archive.source_path = ?", o.sourcePath)
			}

			if o.order != nil && *o.order == FindArchivesOrderBySize {
				query = query.Order("archive.size").Order("archive.path")
			} else {
				query = query.Order("archive.created_at DESC").Order("archive.path")
			}

			query = query.Limit(thisBatchSize).Offset(offset)

			type archiveWithParts struct {
				Path       string
				SourcePath string
				AppName    string
				Boundary   string
				Size       int64
				CreatedAt  time.Time
				PartCount  int
				PartsSize  int64
			}

			var archives []archiveWithParts
			d.Lock.Lock()
			err := query.Find(&archives).Error
			d.Lock.Unlock()

			if err != nil {
				d.Logger.Error().Err(err).Msg("error fetching archives from database")
				return
			}
			if len(archives) == 0 {
				return
			}
			for _, a := range archives {
				if ctx.Err() != nil {
					return
				}
				if !yield(ArchiveSummary(a)) {
					return
				}
			}
			if len(archives) < thisBatchSize {
				return
			}
			if remaining > 0 && remaining-thisBatchSize <= 0 {
				return
			}

			offset += thisBatchSize
			remaining -= thisBatchSize
		}
	}, nil
}

// FindParts returns the parts of an archive in the order they were stored.
func (d *Database) FindParts(ctx context.Context, archivePath string) ([]ArchivePart, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	var parts []ArchivePart
	err := d.Cli.WithContext(ctx).
		Where("archive_path = ?", archivePath).
		Order("position").
		Find(&parts).Error
	return parts, err
}
