package config

import "github.com/rs/zerolog"

type Config struct {
	Sources []ConfigSource `yaml:"sources,omitempty"`
}

// ConfigSource is an application directory rebuilt into an archive on a
// schedule.
type ConfigSource struct {
	SourceDir      string       `yaml:"source_dir"`
	Output         string       `yaml:"output"`
	Name           string       `yaml:"name,omitempty"`
	Prelude        string       `yaml:"prelude,omitempty"`
	MaxArchiveSize SizeArgument `yaml:"max_archive_size,omitempty"`
	Enable         bool         `yaml:"enable"`
	Schedule       string       `yaml:"cron"`
}

func (s ConfigSource) MarshalZerologObject(e *zerolog.Event) {
	e.Str("source_dir", s.SourceDir)
	e.Str("output", s.Output)
	e.Bool("enable", s.Enable)
	e.Str("schedule", s.Schedule)

	if s.Name != "" {
		e.Str("name", s.Name)
	}
	if s.Prelude != "" {
		e.Str("prelude", s.Prelude)
	}
	if s.MaxArchiveSize.Size > 0 {
		e.Int64("max_archive_size", s.MaxArchiveSize.Size)
	}
}
