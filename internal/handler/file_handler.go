package handler

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/solidcopy/musicorg/internal/handler/flac"
	"github.com/solidcopy/musicorg/internal/handler/id3v2"
	"github.com/solidcopy/musicorg/internal/handler/m4a"
	"github.com/solidcopy/musicorg/internal/model"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDecode          = errors.New("decode tags")
)

type FileHandler interface {
	ReadTrack(filePath string) (*model.Track, error)
}

type Kind int

const (
	Unsupported Kind = iota
	MP3
	FLAC
	MP4
)

func (k Kind) String() string {
	switch k {
	case MP3:
		return "mp3"
	case FLAC:
		return "flac"
	case MP4:
		return "mp4"
	default:
		return "unsupported"
	}
}

// KindOf maps an extension to a file kind. Matching is case-sensitive,
// except that both ".flac" and ".FLAC" are recognised.
func KindOf(extension string) Kind {
	switch extension {
	case ".mp3":
		return MP3
	case ".flac", ".FLAC":
		return FLAC
	case ".m4a", ".mp4":
		return MP4
	default:
		return Unsupported
	}
}

func NewHandler(filePath string) (FileHandler, error) {
	extension := filepath.Ext(filePath)
	switch KindOf(extension) {
	case MP3:
		return &id3v2.Id3v2Handler{}, nil
	case FLAC:
		return &flac.FlacHandler{}, nil
	case MP4:
		return &m4a.M4aHandler{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, extension)
	}
}

// ReadTrack selects a handler by extension and reads the track's tags.
// Every failure wraps either ErrUnsupportedType or ErrDecode.
func ReadTrack(filePath string) (track *model.Track, err error) {
	h, err := NewHandler(filePath)
	if err != nil {
		return nil, err
	}

	// 壊れたファイルでデコーダがpanicすることがある
	defer func() {
		if r := recover(); r != nil {
			track, err = nil, fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()

	track, err = h.ReadTrack(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	track.FilePath = filePath
	track.Ext = filepath.Ext(filePath)
	return track, nil
}
