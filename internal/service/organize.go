package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/solidcopy/musicorg/internal/artwork"
	"github.com/solidcopy/musicorg/internal/fileutil"
	"github.com/solidcopy/musicorg/internal/handler"
	"github.com/solidcopy/musicorg/internal/model"
)

var ErrFilesystem = errors.New("filesystem error")

type Options struct {
	// DryRun logs planned copies without creating directories or files.
	DryRun bool
	// Sanitize makes tag values safe and NFC-normalized before they are
	// used as names.
	Sanitize bool
	// KeepExt appends the source extension to title-derived file names.
	KeepExt bool
	// Artwork exports embedded cover art into each album directory.
	Artwork bool
}

// Stats accumulates the results of one Organize call.
type Stats struct {
	Moved      int
	Duplicates int
	// Skipped lists files that could not be read or placed, in walk order.
	Skipped []string
	Bytes   int64
}

type Organizer struct {
	root      string
	opts      Options
	logger    *slog.Logger
	readTrack func(string) (*model.Track, error)
}

func NewOrganizer(root string, opts Options, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Organizer{
		root:      root,
		opts:      opts,
		logger:    logger,
		readTrack: handler.ReadTrack,
	}
}

// Organize copies every file under inputPath into the library. inputPath may
// also be a single file. Per-file failures are recorded in Stats.Skipped and
// never stop the walk; the returned error is for an unreadable inputPath or a
// cancelled ctx, in which case the stats so far are still returned.
func (o *Organizer) Organize(ctx context.Context, inputPath string) (*Stats, error) {
	stats := &Stats{}

	info, err := os.Stat(inputPath)
	if err != nil {
		return stats, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		o.organizeFile(stats, inputPath)
		return stats, nil
	}

	rootInfo, _ := os.Stat(o.root)

	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == inputPath {
				return err
			}
			o.logger.Warn("skipping unreadable path", "path", path, "err", err)
			stats.Skipped = append(stats.Skipped, path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			// ライブラリがソースの中にある場合は辿らない
			if path != inputPath && rootInfo != nil {
				if info, err := d.Info(); err == nil && os.SameFile(info, rootInfo) {
					o.logger.Debug("not descending into library", "path", path)
					return filepath.SkipDir
				}
			}
			return nil
		}

		o.organizeFile(stats, path)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", inputPath, err)
	}

	return stats, nil
}

func (o *Organizer) organizeFile(stats *Stats, path string) {
	logger := o.logger.With("path", path, "kind", handler.KindOf(filepath.Ext(path)))

	track, err := o.readTrack(path)
	if err != nil {
		logger.Warn("skipping file", "err", err)
		stats.Skipped = append(stats.Skipped, path)
		return
	}

	dest, n, err := o.copyTrack(track)
	switch {
	case errors.Is(err, fs.ErrExist):
		logger.Debug("already in library", "dest", dest)
		stats.Duplicates++
	case err != nil:
		logger.Warn("skipping file", "err", err)
		stats.Skipped = append(stats.Skipped, path)
	case o.opts.DryRun:
		logger.Info("would copy", "dest", dest)
		stats.Moved++
	default:
		logger.Debug("copied", "dest", dest)
		stats.Moved++
		stats.Bytes += n
	}
}

// copyTrack creates the album directory and copies the track into it. An
// existing destination is reported with an error wrapping fs.ErrExist.
func (o *Organizer) copyTrack(track *model.Track) (string, int64, error) {
	placement, err := Place(o.root, track, o.opts)
	if err != nil {
		return "", 0, err
	}

	if !o.opts.DryRun {
		if err := fileutil.EnsureDir(placement.ArtistDir); err != nil {
			return "", 0, fmt.Errorf("%w: create artist dir: %w", ErrFilesystem, err)
		}
		if err := fileutil.EnsureDir(placement.AlbumDir); err != nil {
			return "", 0, fmt.Errorf("%w: create album dir: %w", ErrFilesystem, err)
		}
	}

	fileName := placement.FileName
	if fileName == "" {
		entries, err := fileutil.CountEntries(placement.AlbumDir)
		if err != nil {
			return "", 0, fmt.Errorf("%w: count album entries: %w", ErrFilesystem, err)
		}
		fileName = UnknownFileName(entries, track.Ext)
	}
	dest := filepath.Join(placement.AlbumDir, fileName)

	exists, err := fileutil.Exists(dest)
	if err != nil {
		return dest, 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	if exists {
		return dest, 0, fs.ErrExist
	}
	if o.opts.DryRun {
		return dest, 0, nil
	}

	n, err := fileutil.CopyFile(track.FilePath, dest)
	if errors.Is(err, fs.ErrExist) {
		return dest, 0, err
	}
	if err != nil {
		return dest, n, fmt.Errorf("%w: copy: %w", ErrFilesystem, err)
	}

	if o.opts.Artwork {
		if path, err := artwork.WriteImageFile(placement.AlbumDir, track.Image); err != nil {
			o.logger.Warn("write cover art", "dir", placement.AlbumDir, "err", err)
		} else if path != "" {
			o.logger.Debug("wrote cover art", "path", path)
		}
	}

	return dest, n, nil
}
