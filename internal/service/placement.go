package service

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/solidcopy/musicorg/internal/fileutil"
	"github.com/solidcopy/musicorg/internal/model"
	"golang.org/x/text/unicode/norm"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"

	// absent tags are compared against their string form
	absentValue = "None"
)

// Placement is the destination computed for one track.
type Placement struct {
	ArtistDir string
	AlbumDir  string
	// FileName is empty when the title is absent; the caller derives the
	// fallback name from the album directory once it exists.
	FileName string
}

// charReplacer maps characters that are not portable in file names.
var charReplacer = strings.NewReplacer(
	"*", "-",
	"\\", "",
	"|", "",
	":", "",
	"\"", "",
	"<", "(",
	">", ")",
	"?", "",
)

// normalize turns a tag into a path component. ok is false when the fallback
// name should be used.
func normalize(tag model.Tag, sanitize bool) (value string, ok bool) {
	value = strings.TrimSpace(tag.String())
	if sanitize {
		value = norm.NFC.String(value)
		value = fileutil.SafePath(charReplacer.Replace(value))
	}
	return value, value != absentValue && value != ""
}

func checkComponent(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, "/\x00") || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: invalid path component %q", ErrFilesystem, name)
	}
	return nil
}

// Place computes where track belongs under root.
//
// Values that are blank after trimming get the same fallback as absent ones.
// Used verbatim they would resolve to the parent directory, so an untitled
// file would be counted as a duplicate of its own album folder.
func Place(root string, track *model.Track, opts Options) (Placement, error) {
	artist, ok := normalize(track.Artist, opts.Sanitize)
	if !ok {
		artist = UnknownArtist
	}
	album, ok := normalize(track.Album, opts.Sanitize)
	if !ok {
		album = UnknownAlbum
	}

	var fileName string
	if title, ok := normalize(track.Title, opts.Sanitize); ok {
		// タイトルには拡張子を付けない
		fileName = title
		if opts.KeepExt {
			fileName += track.Ext
		}
		if err := checkComponent(fileName); err != nil {
			return Placement{}, err
		}
	}

	for _, name := range []string{artist, album} {
		if err := checkComponent(name); err != nil {
			return Placement{}, err
		}
	}

	artistDir := filepath.Join(root, artist)
	return Placement{
		ArtistDir: artistDir,
		AlbumDir:  filepath.Join(artistDir, album),
		FileName:  fileName,
	}, nil
}

// UnknownFileName is the fallback name for an untitled track, numbered by how
// many entries the album directory already holds.
func UnknownFileName(entries int, ext string) string {
	return "unknown_" + strconv.Itoa(entries) + ext
}
