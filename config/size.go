package config

import "github.com/docker/go-units"

// SizeArgument is a byte count written in human form, such as "10MB" or
// "1.5GB". It is used for flags and config values alike.
type SizeArgument struct {
	Size int64 `arg:"" help:"size in bytes"`
}

func (s *SizeArgument) UnmarshalText(text []byte) (err error) {
	s.Size, err = units.FromHumanSize(string(text))
	return
}

func (s SizeArgument) String() string {
	return units.HumanSize(float64(s.Size))
}
