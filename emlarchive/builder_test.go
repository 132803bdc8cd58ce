package emlarchive_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupid-simple/emlapp/asset"
	"github.com/stupid-simple/emlapp/emlarchive"
	"github.com/stupid-simple/emlapp/transfer"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func build(t *testing.T, dir string, opts ...emlarchive.BuildOption) *emlarchive.BuildResult {
	t.Helper()
	opts = append([]emlarchive.BuildOption{
		emlarchive.WithAppName("demo"),
		emlarchive.WithCreatedAt(created),
	}, opts...)
	result, err := emlarchive.Build(context.Background(), dir, "", zerolog.New(zerolog.NewTestWriter(t)), opts...)
	require.NoError(t, err)
	return result
}

func TestBuild_IndexAndStylesheet(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"index.html": `<html><head><link rel="stylesheet" href="style.css"></head><body>hi</body></html>` + "\n",
		"style.css":  "body { color: red; }\n",
	})

	result := build(t, dir)
	data := string(result.Data)

	assert.True(t, strings.HasPrefix(data, "#!/bin/sh\n"))
	assert.Contains(t, data, "\n"+emlarchive.EnvelopeMarker+"\nMIME-Version: 1.0\n")
	assert.Contains(t, data, "Subject: WebApp - demo\n")
	assert.Contains(t, data, `Content-Type: multipart/mixed; boundary="`+result.Boundary+`"`)
	assert.Contains(t, data, "X-App-Type: webapp-eml\n")
	assert.Contains(t, data, "X-Created: 2024-05-01T12:00:00Z\n")
	assert.Contains(t, data, `href=3D"cid:style_css"`)
	assert.Contains(t, data, "Content-ID: <style_css>\n")
	assert.Contains(t, data, "Content-Disposition: inline; filename=\"index.html\"\n")
	assert.Contains(t, data, "Content-Disposition: attachment; filename=\"style.css\"\n")
	assert.True(t, strings.HasSuffix(data, "--"+result.Boundary+"--\n"))
	assert.True(t, strings.HasPrefix(result.Boundary, "=_emlapp_"))

	assert.Equal(t, []string{"index.html", "Dockerfile", "metadata.json", "style.css"}, result.Manifest.Names())
	assert.Empty(t, result.Manifest.Entries[0].ContentID)
	assert.Equal(t, map[string]string{
		"Dockerfile":    "Dockerfile",
		"metadata.json": "metadata_json",
		"style.css":     "style_css",
	}, result.Manifest.ContentIDs())

	// Descriptors were synthesized into the source directory.
	assert.FileExists(t, filepath.Join(dir, emlarchive.DockerfileName))
	meta, err := os.ReadFile(filepath.Join(dir, emlarchive.MetadataName))
	require.NoError(t, err)
	m, err := emlarchive.ParseMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, emlarchive.Generator, m.Generator)
	assert.Equal(t, []string{"Dockerfile", "index.html", "metadata.json", "style.css"}, m.Files)
	assert.True(t, created.Equal(m.Created))

	out := t.TempDir()
	env, err := emlarchive.Parse(result.Data)
	require.NoError(t, err)
	files, err := emlarchive.Extract(context.Background(), slices.Values(env.Parts), out, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, files, 4)

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `href="style.css"`)
	assert.NotContains(t, string(index), "cid:")

	css, err := os.ReadFile(filepath.Join(out, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body { color: red; }\n", string(css))
}

func TestBuild_RoundTrip(t *testing.T) {
	binary := make([]byte, 4096)
	for i := range binary {
		binary[i] = byte(i*31 + i/7)
	}
	sources := map[string]string{
		"index.html":  `<img src="logo.png"><script src="app.js"></script><p>zażółć</p>` + "\n",
		"about.html":  `<a href="index.html">back</a><div style="background: url('bg.jpg')"></div>`,
		"app.js":      "const a = 1 == 2;\nconsole.log('=' + a)   \n",
		"notes.txt":   "windows\r\nline endings\r\n",
		"long.txt":    strings.Repeat("0123456789", 50),
		"logo.png":    string(binary),
		"bg.jpg":      string(binary[:100]),
		"empty.css":   "",
		"Dockerfile":  "FROM scratch\n",
		"data.json":   `{"k": "v"}`,
		"unicode.txt": "✓ – “quoted”\n",
	}
	dir := writeSource(t, sources)

	result := build(t, dir)
	_, err := os.Stat(filepath.Join(dir, emlarchive.MetadataName))
	require.NoError(t, err)

	out := t.TempDir()
	env, err := emlarchive.Parse(result.Data)
	require.NoError(t, err)
	assert.Equal(t, "demo", env.AppName())
	ts, ok := env.Created()
	require.True(t, ok)
	assert.True(t, created.Equal(ts))

	files, err := emlarchive.Extract(context.Background(), slices.Values(env.Parts), out, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, files, len(sources)+1)

	for name, content := range sources {
		got, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(got), name)
	}

	// Every encoded line stays within the MIME limit.
	for _, e := range result.Manifest.Entries {
		for _, line := range bytes.Split(e.Body, []byte("\n")) {
			assert.LessOrEqual(t, len(line), transfer.MaxLineLength, e.File.Name)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"index.html": `<img src="a.png">`,
		"a.png":      "\x89PNG\x00",
	})

	first := build(t, dir)
	second := build(t, dir)
	assert.Equal(t, first.Boundary, second.Boundary)
	assert.Equal(t, first.Data, second.Data)
}

func TestBuild_DryRunLeavesSourceUntouched(t *testing.T) {
	dir := writeSource(t, map[string]string{"index.html": "<p>x</p>"})

	result := build(t, dir, emlarchive.WithDryRun(true))
	assert.Contains(t, result.Manifest.Names(), emlarchive.DockerfileName)
	assert.Contains(t, result.Manifest.Names(), emlarchive.MetadataName)
	assert.NoFileExists(t, filepath.Join(dir, emlarchive.DockerfileName))
	assert.NoFileExists(t, filepath.Join(dir, emlarchive.MetadataName))
}

func TestBuild_EmptySource(t *testing.T) {
	logger := zerolog.Nop()

	empty := t.TempDir()
	_, err := emlarchive.Build(context.Background(), empty, "", logger)
	assert.True(t, errors.Is(err, emlarchive.ErrEmptySource))

	noMarkup := writeSource(t, map[string]string{"style.css": "a{}"})
	_, err = emlarchive.Build(context.Background(), noMarkup, "", logger)
	assert.True(t, errors.Is(err, emlarchive.ErrEmptySource))
	// Nothing is synthesized for a source that cannot be built.
	assert.NoFileExists(t, filepath.Join(noMarkup, emlarchive.DockerfileName))
}

func TestBuild_DuplicateContentID(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"index.html": "<p>x</p>",
		"a-b.css":    "a{}",
		"a_b.css":    "b{}",
	})
	_, err := emlarchive.Build(context.Background(), dir, "", zerolog.Nop(), emlarchive.WithDryRun(true))
	assert.True(t, errors.Is(err, emlarchive.ErrDuplicateContentID))
}

func TestBuild_BoundaryNeverInContent(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"index.html": "<p>x</p>",
		"notes.txt":  "before\n--abc\n--abc--\n--abc_2 is fine\nafter\n",
	})

	result := build(t, dir, emlarchive.WithBoundary("abc"))
	assert.Equal(t, "abc_1", result.Boundary)

	for _, e := range result.Manifest.Entries {
		for _, line := range strings.Split(string(e.Body), "\n") {
			assert.False(t, strings.HasPrefix(line, "--"+result.Boundary), line)
		}
	}

	out := t.TempDir()
	env, err := emlarchive.Parse(result.Data)
	require.NoError(t, err)
	_, err = emlarchive.Extract(context.Background(), slices.Values(env.Parts), out, zerolog.Nop())
	require.NoError(t, err)

	notes, err := os.ReadFile(filepath.Join(out, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "before\n--abc\n--abc--\n--abc_2 is fine\nafter\n", string(notes))
}

func TestBuild_InvalidBoundary(t *testing.T) {
	dir := writeSource(t, map[string]string{"index.html": "<p>x</p>"})
	_, err := emlarchive.Build(context.Background(), dir, "", zerolog.Nop(),
		emlarchive.WithDryRun(true), emlarchive.WithBoundary("bad\"token"))
	assert.True(t, errors.Is(err, emlarchive.ErrInvalidBoundary))
}

func TestBuild_FailureLeavesSourceUntouched(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		opts  []emlarchive.BuildOption
		err   error
	}{
		{
			name:  "duplicate content id",
			files: map[string]string{"index.html": "<p>x</p>", "a-b.css": "a{}", "a_b.css": "b{}"},
			err:   emlarchive.ErrDuplicateContentID,
		},
		{
			name:  "invalid boundary",
			files: map[string]string{"index.html": "<p>x</p>"},
			opts:  []emlarchive.BuildOption{emlarchive.WithBoundary("bad\"token")},
			err:   emlarchive.ErrInvalidBoundary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSource(t, tt.files)
			_, err := emlarchive.Build(context.Background(), dir, "", zerolog.Nop(), tt.opts...)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)

			assert.NoFileExists(t, filepath.Join(dir, emlarchive.DockerfileName))
			assert.NoFileExists(t, filepath.Join(dir, emlarchive.MetadataName))
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, len(tt.files))
		})
	}
}

func TestBuild_UnreadableAsset(t *testing.T) {
	dir := writeSource(t, map[string]string{"index.html": `<img src="logo.png">`})
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.png"), filepath.Join(dir, "logo.png")))

	_, err := emlarchive.Build(context.Background(), dir, "", zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "logo.png")
	assert.NoFileExists(t, filepath.Join(dir, emlarchive.DockerfileName))
}

func TestBuild_Prelude(t *testing.T) {
	dir := writeSource(t, map[string]string{"index.html": "<p>x</p>"})
	logger := zerolog.Nop()

	result, err := emlarchive.Build(context.Background(), dir, "#!/bin/sh\necho custom\nexit 0", logger,
		emlarchive.WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(result.Data), "#!/bin/sh\necho custom\nexit 0\n"+emlarchive.EnvelopeMarker+"\n"))

	_, err = emlarchive.Build(context.Background(), dir, "#!/bin/sh\nMIME-Version: 1.0\n", logger,
		emlarchive.WithDryRun(true))
	assert.True(t, errors.Is(err, emlarchive.ErrInvalidPrelude))

	_, err = emlarchive.Build(context.Background(), dir, emlarchive.EnvelopeMarker+"\n", logger,
		emlarchive.WithDryRun(true))
	assert.True(t, errors.Is(err, emlarchive.ErrInvalidPrelude))
}

func TestDefaultPrelude(t *testing.T) {
	prelude := emlarchive.DefaultPrelude("evil\nMIME-Version: 1.0")
	assert.NoError(t, emlarchive.ValidatePrelude(prelude))
	assert.True(t, strings.HasPrefix(prelude, "#!/bin/sh\n"))
	assert.Contains(t, prelude, `exec emlapp "$action" "$0" "$@"`)
	assert.True(t, strings.HasSuffix(prelude, "exit 0\n"))
}

func TestWriteFile(t *testing.T) {
	dir := writeSource(t, map[string]string{"index.html": "<p>x</p>"})
	result := build(t, dir, emlarchive.WithDryRun(true))
	logger := zerolog.Nop()

	path := filepath.Join(t.TempDir(), "demo.eml")
	require.NoError(t, emlarchive.WriteFile(context.Background(), result, path, logger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Data, data)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.Error(t, emlarchive.WriteFile(context.Background(), result, path, logger))
	assert.NoError(t, emlarchive.WriteFile(context.Background(), result, path, logger, emlarchive.WithOverwrite(true)))

	dryPath := filepath.Join(t.TempDir(), "dry.eml")
	require.NoError(t, emlarchive.WriteFile(context.Background(), result, dryPath, logger, emlarchive.WithWriteDryRun(true)))
	assert.NoFileExists(t, dryPath)
}

func TestNewManifest_Order(t *testing.T) {
	var files []asset.File
	for _, name := range []string{"z.png", "b.html", "metadata.json", "a.js", "index.html", "Dockerfile", "a.js"} {
		files = append(files, asset.New(name, []byte("x")))
	}

	m, err := emlarchive.NewManifest(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "b.html", "Dockerfile", "metadata.json", "a.js", "z.png"}, m.Names())
}

func TestContentID(t *testing.T) {
	assert.Equal(t, "style_css", emlarchive.ContentID("style.css"))
	assert.Equal(t, "my_file_1_png", emlarchive.ContentID("my file-1.png"))
	assert.Equal(t, "r_sum__txt", emlarchive.ContentID("résumé.txt"))
}

func TestParseMetadata_Comments(t *testing.T) {
	meta, err := emlarchive.ParseMetadata([]byte(`{
	// edited by hand
	"name": "demo",
	"version": "2.0.0",
	"files": ["index.html",],
}`))
	require.NoError(t, err)
	assert.Equal(t, "demo", meta.Name)
	assert.Equal(t, "2.0.0", meta.Version)
	assert.Equal(t, []string{"index.html"}, meta.Files)

	_, err = emlarchive.ParseMetadata([]byte(`{"name": `))
	assert.Error(t, err)
}
