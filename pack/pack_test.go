package pack_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/stupid-simple/emlapp/database"
	"github.com/stupid-simple/emlapp/emlarchive"
	"github.com/stupid-simple/emlapp/pack"
)

func setupTestDB(t *testing.T) *database.Database {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(&database.Source{}, &database.Archive{}, &database.ArchivePart{}))

	return &database.Database{
		Lock:   sync.Mutex{},
		Cli:    gormDB,
		Logger: zerolog.Nop(),
	}
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<link href="style.css">`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("p{}"), 0o644))
	return dir
}

func TestPackSource(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	src := writeSite(t)
	out := filepath.Join(t.TempDir(), "site.eml")
	params := pack.PackParams{
		SourcePath: src,
		OutputPath: out,
		DB:         db,
		Logger:     zerolog.New(zerolog.NewTestWriter(t)),
	}

	result, err := pack.PackSource(ctx, params, pack.WithAppName("site"))
	require.NoError(t, err)
	require.NotNil(t, result)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.Data, data)

	parts, err := db.FindParts(ctx, out)
	require.NoError(t, err)
	assert.Len(t, parts, 4)

	// Nothing changed: the second run is skipped.
	result, err = pack.PackSource(ctx, params, pack.WithOnlyIfChanged(true), pack.WithOverwrite(true))
	require.NoError(t, err)
	assert.Nil(t, result)

	require.NoError(t, os.WriteFile(filepath.Join(src, "style.css"), []byte("p{color:red}"), 0o644))
	result, err = pack.PackSource(ctx, params, pack.WithOnlyIfChanged(true), pack.WithOverwrite(true))
	require.NoError(t, err)
	require.NotNil(t, result)

	// Without overwrite an existing archive is kept.
	_, err = pack.PackSource(ctx, params)
	assert.Error(t, err)
}

func TestPackSource_DryRun(t *testing.T) {
	src := writeSite(t)
	out := filepath.Join(t.TempDir(), "site.eml")

	result, err := pack.PackSource(context.Background(), pack.PackParams{
		SourcePath: src,
		OutputPath: out,
		Logger:     zerolog.Nop(),
	}, pack.WithDryRun(true))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NoFileExists(t, out)
	assert.NoFileExists(t, filepath.Join(src, emlarchive.DockerfileName))
}

func TestPackSource_Rejects(t *testing.T) {
	ctx := context.Background()
	src := writeSite(t)

	_, err := pack.PackSource(ctx, pack.PackParams{
		SourcePath: src,
		OutputPath: filepath.Join(src, "site.eml"),
		Logger:     zerolog.Nop(),
	})
	assert.Error(t, err)

	_, err = pack.PackSource(ctx, pack.PackParams{
		SourcePath: src,
		OutputPath: filepath.Join(t.TempDir(), "missing", "site.eml"),
		Logger:     zerolog.Nop(),
	})
	assert.Error(t, err)

	out := filepath.Join(t.TempDir(), "site.eml")
	_, err = pack.PackSource(ctx, pack.PackParams{
		SourcePath: src,
		OutputPath: out,
		Logger:     zerolog.Nop(),
	}, pack.WithMaxArchiveBytes(100))
	assert.True(t, errors.Is(err, emlarchive.ErrArchiveTooLarge))
	assert.NoFileExists(t, out)
}

func TestLoadPrelude(t *testing.T) {
	prelude, err := pack.LoadPrelude("")
	require.NoError(t, err)
	assert.Empty(t, prelude)

	path := filepath.Join(t.TempDir(), "launcher.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o644))
	prelude, err = pack.LoadPrelude(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nexit 0\n", prelude)

	_, err = pack.LoadPrelude(filepath.Join(t.TempDir(), "missing.sh"))
	assert.Error(t, err)
}
