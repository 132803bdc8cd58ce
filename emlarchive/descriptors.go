package emlarchive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/asset"
	"github.com/tidwall/jsonc"
)

const (
	Generator    = "emlapp"
	AppType      = "webapp-eml"
	metadataType = "webapp"
)

const defaultDockerfile = `FROM nginx:alpine
COPY . /usr/share/nginx/html/
EXPOSE 80
`

// Metadata is the content of the metadata.json descriptor.
type Metadata struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Created     time.Time `json:"created"`
	Generator   string    `json:"generator"`
	Files       []string  `json:"files"`
}

// ParseMetadata decodes a metadata.json descriptor. Hand-edited descriptors
// may carry comments and trailing commas.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return Metadata{}, fmt.Errorf("invalid %s: %w", MetadataName, err)
	}
	return m, nil
}

// synthesizeDescriptors returns the Dockerfile and metadata.json the source
// lacks. Nothing is written: see writeDescriptors.
func synthesizeDescriptors(
	files []asset.File,
	appName string,
	created time.Time,
) ([]asset.File, error) {
	has := func(name string) bool {
		return slices.ContainsFunc(files, func(f asset.File) bool { return f.Name == name })
	}

	var added []asset.File
	if !has(DockerfileName) {
		added = append(added, asset.New(DockerfileName, []byte(defaultDockerfile)))
	}
	if !has(MetadataName) {
		names := make([]string, 0, len(files)+2)
		for _, f := range files {
			names = append(names, f.Name)
		}
		for _, f := range added {
			names = append(names, f.Name)
		}
		names = append(names, MetadataName)
		slices.Sort(names)

		data, err := json.MarshalIndent(Metadata{
			Name:        appName,
			Version:     "1.0.0",
			Description: fmt.Sprintf("Web application %s", appName),
			Type:        metadataType,
			Created:     created,
			Generator:   Generator,
			Files:       names,
		}, "", "  ")
		if err != nil {
			return nil, err
		}
		added = append(added, asset.New(MetadataName, append(data, '\n')))
	}

	for i := range added {
		added[i].ModTime = created
	}
	return added, nil
}

// writeDescriptors stores synthesized descriptors in the source directory
// so later builds and container images see the same files.
func writeDescriptors(dir string, added []asset.File, dryRun bool, logger zerolog.Logger) error {
	for _, f := range added {
		if dryRun {
			logger.Info().Object("file", f).Msg("would synthesize descriptor")
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644); err != nil {
			return fmt.Errorf("could not write %s: %w", f.Name, err)
		}
		logger.Info().Object("file", f).Msg("synthesized descriptor")
	}
	return nil
}
