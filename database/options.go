package database

type findArchivesOptions struct {
	limit      int
	order      *FindArchivesOrderBy
	sourcePath string
}

type FindArchivesOptions func(*findArchivesOptions)

// Limit the number of archives returned.
func WithFindArchivesLimit(limit int) FindArchivesOptions {
	return func(o *findArchivesOptions) {
		o.limit = limit
	}
}

type FindArchivesOrderBy string

const (
	// Order by archive size, smallest first.
	FindArchivesOrderBySize FindArchivesOrderBy = "size"
	// Order by creation time, newest first. This is the default.
	FindArchivesOrderByCreated FindArchivesOrderBy = "created"
)

// Return the archives in a specific order.
func WithFindArchivesOrderBy(order FindArchivesOrderBy) FindArchivesOptions {
	return func(o *findArchivesOptions) {
		o.order = &order
	}
}

// Only return archives built from this source directory.
func WithFindArchivesSource(sourcePath string) FindArchivesOptions {
	return func(o *findArchivesOptions) {
		o.sourcePath = sourcePath
	}
}
