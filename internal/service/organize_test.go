package service_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/solidcopy/musicorg/internal/service"
	"github.com/solidcopy/musicorg/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func setup(t *testing.T) (src, lib string) {
	t.Helper()
	dir := t.TempDir()
	src, lib = filepath.Join(dir, "src"), filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(lib, 0o755))
	return src, lib
}

func write(t *testing.T, path string, tags testsupport.Tags) {
	t.Helper()
	require.NoError(t, testsupport.WriteAudio(path, tags))
}

func organize(t *testing.T, src, lib string, opts service.Options) *service.Stats {
	t.Helper()
	stats, err := service.NewOrganizer(lib, opts, discard).Organize(context.Background(), src)
	require.NoError(t, err)
	return stats
}

func TestOrganize(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "a", "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record", Payload: []byte("first")})
	write(t, filepath.Join(src, "b", "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record", Payload: []byte("second")})

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Empty(t, stats.Skipped)

	// first writer wins
	want, err := os.ReadFile(filepath.Join(src, "a", "song.mp3"))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(lib, "Band", "Record", "Song"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.EqualValues(t, len(want), stats.Bytes)

	// sources are left in place
	assert.FileExists(t, filepath.Join(src, "a", "song.mp3"))
	assert.FileExists(t, filepath.Join(src, "b", "song.mp3"))
}

func TestOrganizeFormats(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "1.mp3"), testsupport.Tags{Title: "One", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "2.flac"), testsupport.Tags{Title: "Two", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "3.FLAC"), testsupport.Tags{Title: "Three", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "4.m4a"), testsupport.Tags{Title: "Four", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "5.mp4"), testsupport.Tags{Title: "Five", Artist: "Band", Album: "Record"})

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 5, stats.Moved)
	assert.Empty(t, stats.Skipped)

	for _, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		assert.FileExists(t, filepath.Join(lib, "Band", "Record", name))
	}
}

func TestOrganizeUnknown(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "a.mp3"), testsupport.Tags{})
	write(t, filepath.Join(src, "b.flac"), testsupport.Tags{})
	write(t, filepath.Join(src, "c.m4a"), testsupport.Tags{})

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 3, stats.Moved)

	albumDir := filepath.Join(lib, "Unknown Artist", "Unknown Album")
	assert.FileExists(t, filepath.Join(albumDir, "unknown_0.mp3"))
	assert.FileExists(t, filepath.Join(albumDir, "unknown_1.flac"))
	assert.FileExists(t, filepath.Join(albumDir, "unknown_2.m4a"))
}

func TestOrganizePartialTags(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "a.mp3"), testsupport.Tags{Artist: "Band"})
	write(t, filepath.Join(src, "b.mp3"), testsupport.Tags{Title: "Song", Album: "Record"})
	write(t, filepath.Join(src, "c.mp3"), testsupport.Tags{Title: "None", Artist: " Band ", Album: "Record"})

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 3, stats.Moved)

	assert.FileExists(t, filepath.Join(lib, "Band", "Unknown Album", "unknown_0.mp3"))
	assert.FileExists(t, filepath.Join(lib, "Unknown Artist", "Record", "Song"))
	assert.FileExists(t, filepath.Join(lib, "Band", "Record", "unknown_0.mp3"))
}

func TestOrganizeIdempotent(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "a.mp3"), testsupport.Tags{Title: "One", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "b.flac"), testsupport.Tags{Title: "Two", Artist: "Band"})
	write(t, filepath.Join(src, "c.m4a"), testsupport.Tags{Title: "Three"})

	first := organize(t, src, lib, service.Options{})
	assert.Equal(t, 3, first.Moved)

	second := organize(t, src, lib, service.Options{})
	assert.Equal(t, 0, second.Moved)
	assert.Equal(t, 3, second.Duplicates)
	assert.Empty(t, second.Skipped)
}

func TestOrganizeNoOverwrite(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})

	dest := filepath.Join(lib, "Band", "Record", "Song")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("sentinel"), 0o644))

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 0, stats.Moved)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Empty(t, stats.Skipped)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "sentinel", string(got))
}

func TestOrganizeSkipped(t *testing.T) {
	src, lib := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "upper.Mp3"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.flac"), []byte("not a flac"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.mp3"), []byte("not an mp3"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.m4a"), []byte("not an m4a"), 0o644))
	write(t, filepath.Join(src, "slash.mp3"), testsupport.Tags{Title: "A/B", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "z.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, []string{
		filepath.Join(src, "broken.flac"),
		filepath.Join(src, "broken.m4a"),
		filepath.Join(src, "broken.mp3"),
		filepath.Join(src, "notes.txt"),
		filepath.Join(src, "slash.mp3"),
		filepath.Join(src, "upper.Mp3"),
	}, stats.Skipped)

	entries, err := os.ReadDir(filepath.Join(lib, "Band", "Record"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Song", entries[0].Name())
	assert.NoDirExists(t, filepath.Join(lib, "Unknown Artist"))
}

func TestOrganizeSingleFile(t *testing.T) {
	src, lib := setup(t)
	path := filepath.Join(src, "song.flac")
	write(t, path, testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})

	stats := organize(t, path, lib, service.Options{})
	assert.Equal(t, 1, stats.Moved)
	assert.FileExists(t, filepath.Join(lib, "Band", "Record", "Song"))
}

func TestOrganizeMissingInput(t *testing.T) {
	src, lib := setup(t)

	_, err := service.NewOrganizer(lib, service.Options{}, discard).Organize(context.Background(), filepath.Join(src, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOrganizeCancelled(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := service.NewOrganizer(lib, service.Options{}, discard).Organize(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.Moved)
	assert.NoDirExists(t, filepath.Join(lib, "Band"))
}

func TestOrganizeDryRun(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "untitled.mp3"), testsupport.Tags{})

	stats := organize(t, src, lib, service.Options{DryRun: true})
	assert.Equal(t, 2, stats.Moved)
	assert.Zero(t, stats.Bytes)

	entries, err := os.ReadDir(lib)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOrganizeKeepExt(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})
	write(t, filepath.Join(src, "song.flac"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})

	stats := organize(t, src, lib, service.Options{KeepExt: true})
	assert.Equal(t, 2, stats.Moved)
	assert.Equal(t, 0, stats.Duplicates)
	assert.FileExists(t, filepath.Join(lib, "Band", "Record", "Song.mp3"))
	assert.FileExists(t, filepath.Join(lib, "Band", "Record", "Song.flac"))
}

func TestOrganizeSanitize(t *testing.T) {
	src, lib := setup(t)
	write(t, filepath.Join(src, "a.mp3"), testsupport.Tags{Title: "Highway/To Hell", Artist: "AC/DC", Album: "Highway to Hell"})
	write(t, filepath.Join(src, "b.flac"), testsupport.Tags{Title: "One", Artist: "Beyoncé", Album: "Record"})
	write(t, filepath.Join(src, "c.flac"), testsupport.Tags{Title: "Two", Artist: "Beyoncé", Album: "Record"})

	stats := organize(t, src, lib, service.Options{Sanitize: true})
	assert.Equal(t, 3, stats.Moved)
	assert.Empty(t, stats.Skipped)

	assert.FileExists(t, filepath.Join(lib, "AC DC", "Highway to Hell", "Highway To Hell"))
	assert.FileExists(t, filepath.Join(lib, "Beyoncé", "Record", "One"))
	assert.FileExists(t, filepath.Join(lib, "Beyoncé", "Record", "Two"))
}

func TestOrganizeArtwork(t *testing.T) {
	src, lib := setup(t)
	img := testsupport.PNG()
	write(t, filepath.Join(src, "a.flac"), testsupport.Tags{Title: "One", Artist: "Band", Album: "Record", Image: img})
	write(t, filepath.Join(src, "b.mp3"), testsupport.Tags{Title: "Two", Artist: "Band", Album: "Other"})

	stats := organize(t, src, lib, service.Options{Artwork: true})
	assert.Equal(t, 2, stats.Moved)

	got, err := os.ReadFile(filepath.Join(lib, "Band", "Record", "Folder.png"))
	require.NoError(t, err)
	assert.Equal(t, img.Data, got)
	assert.NoFileExists(t, filepath.Join(lib, "Band", "Other", "Folder.png"))
}

func TestOrganizeLibraryInsideSource(t *testing.T) {
	src, _ := setup(t)
	lib := filepath.Join(src, "library")
	require.NoError(t, os.MkdirAll(filepath.Join(lib, "Band", "Record"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "Band", "Record", "Old"), []byte("old"), 0o644))
	write(t, filepath.Join(src, "song.mp3"), testsupport.Tags{Title: "Song", Artist: "Band", Album: "Record"})

	stats := organize(t, src, lib, service.Options{})
	assert.Equal(t, 1, stats.Moved)
	assert.Empty(t, stats.Skipped)
	assert.FileExists(t, filepath.Join(lib, "Band", "Record", "Song"))
}
