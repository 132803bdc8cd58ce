package pack

type options struct {
	dryRun          bool
	overwrite       bool
	onlyIfChanged   bool
	appName         string
	boundary        string
	maxArchiveBytes int64
}

type Option func(o *options)

func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// Replace the output file if it exists.
func WithOverwrite(overwrite bool) Option {
	return func(o *options) {
		o.overwrite = overwrite
	}
}

// Skip the build when the catalogue shows the source has not changed since
// its latest archive.
func WithOnlyIfChanged(onlyIfChanged bool) Option {
	return func(o *options) {
		o.onlyIfChanged = onlyIfChanged
	}
}

func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

func WithBoundary(boundary string) Option {
	return func(o *options) {
		o.boundary = boundary
	}
}

// Refuse to write archives larger than maxBytes. Zero means no limit.
func WithMaxArchiveBytes(maxBytes int64) Option {
	return func(o *options) {
		o.maxArchiveBytes = maxBytes
	}
}
