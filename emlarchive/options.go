package emlarchive

import "time"

type BuildOption func(o *buildOptions)

type buildOptions struct {
	boundary  string
	appName   string
	createdAt time.Time
	dryRun    bool
}

// Use a fixed boundary token instead of one derived from the content. It is
// still suffixed if the content contains it.
func WithBoundary(boundary string) BuildOption {
	return func(o *buildOptions) {
		o.boundary = boundary
	}
}

// Application name. Defaults to the source directory name.
func WithAppName(name string) BuildOption {
	return func(o *buildOptions) {
		o.appName = name
	}
}

// Creation time recorded in the envelope and in synthesized metadata.
func WithCreatedAt(t time.Time) BuildOption {
	return func(o *buildOptions) {
		o.createdAt = t
	}
}

// If true, synthesized descriptor files are not written to the source
// directory.
func WithDryRun(dryRun bool) BuildOption {
	return func(o *buildOptions) {
		o.dryRun = dryRun
	}
}

type ExtractOption func(o *extractOptions)

type extractOptions struct {
	maxArchiveBytes int64
	collisionLimit  int
}

const defaultCollisionLimit = 10000

// Refuse archives larger than maxBytes. Zero means no limit.
func WithMaxArchiveBytes(maxBytes int64) ExtractOption {
	return func(o *extractOptions) {
		o.maxArchiveBytes = maxBytes
	}
}

// The highest numeric suffix tried when a file name is taken.
func WithCollisionLimit(limit int) ExtractOption {
	return func(o *extractOptions) {
		o.collisionLimit = limit
	}
}

type WriteOption func(o *writeOptions)

type writeOptions struct {
	overwrite bool
	dryRun    bool
}

// Replace an existing file at the destination.
func WithOverwrite(overwrite bool) WriteOption {
	return func(o *writeOptions) {
		o.overwrite = overwrite
	}
}

func WithWriteDryRun(dryRun bool) WriteOption {
	return func(o *writeOptions) {
		o.dryRun = dryRun
	}
}
