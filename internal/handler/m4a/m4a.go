package m4a

import (
	"bytes"
	"errors"
	"net/http"
	"os"

	"github.com/abema/go-mp4"
	"github.com/solidcopy/musicorg/internal/model"
	"golang.org/x/exp/slices"
)

type M4aHandler struct{}

var ErrNotMP4 = errors.New("missing ftyp or moov box")

var (
	parents = []string{"moov", "udta", "meta", "ilst"}
	targets = []string{"(c)nam", "(c)ART", "(c)alb", "covr"}
)

func (h *M4aHandler) ReadTrack(filePath string) (*model.Track, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	track := &model.Track{FilePath: filePath}

	var itemName string
	var hasFtyp, hasMoov bool

	_, err = mp4.ReadBoxStructure(file, func(h *mp4.ReadHandle) (interface{}, error) {

		if len(h.Path) == 1 {
			switch h.BoxInfo.Type {
			case mp4.BoxTypeFtyp():
				hasFtyp = true
			case mp4.BoxTypeMoov():
				hasMoov = true
			}
		}

		if !h.BoxInfo.IsSupportedType() {
			return nil, nil
		}

		typeName := h.BoxInfo.Type.String()

		if slices.Contains(parents, typeName) || slices.Contains(targets, typeName) {
			itemName = typeName
			return h.Expand()
		}

		if typeName != "data" {
			return nil, nil
		}

		buff := new(bytes.Buffer)
		if _, err := h.ReadData(buff); err != nil {
			return nil, err
		}

		// 最初の8バイトはデータ型とロケールなので削除
		if buff.Len() < 8 {
			return nil, nil
		}
		data := buff.Bytes()[8:]

		// 複数のdataがある場合は最初のものを使う
		switch itemName {
		case "(c)nam":
			setOnce(&track.Title, data)
		case "(c)ART":
			setOnce(&track.Artist, data)
		case "(c)alb":
			setOnce(&track.Album, data)
		case "covr":
			if track.Image == nil && len(data) > 0 {
				mimeType := http.DetectContentType(data)
				track.Image = &model.Image{MimeType: mimeType, Data: bytes.Clone(data)}
			}
		}
		return nil, nil
	})

	if err != nil {
		return nil, err
	}
	if !hasFtyp || !hasMoov {
		return nil, ErrNotMP4
	}

	return track, nil
}

func setOnce(tag *model.Tag, data []byte) {
	if !tag.Valid {
		*tag = model.NewTag(string(data))
	}
}
