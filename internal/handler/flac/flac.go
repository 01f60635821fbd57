package flac

import (
	"net/http"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/solidcopy/musicorg/internal/model"
)

type FlacHandler struct {
}

type Blocks = []*flac.MetaDataBlock

func (h *FlacHandler) ReadTrack(filePath string) (*model.Track, error) {
	flacFile, err := flac.ParseFile(filePath)
	if err != nil {
		return nil, err
	}

	blocks := flacFile.Meta
	comments := getVorbisComments(blocks)

	track := &model.Track{
		FilePath: filePath,
		Title:    getTag(comments, "TITLE"),
		Artist:   getTag(comments, "ARTIST"),
		Album:    getTag(comments, "ALBUM"),
		Image:    getImage(blocks),
	}

	return track, nil
}

// getVorbisComments returns the comments of the first vorbis comment block,
// keyed by upper-cased field name.
func getVorbisComments(blocks Blocks) map[string][]string {
	for _, block := range blocks {
		if block.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}

		vorbisComments := make(map[string][]string, len(comment.Comments))

		for _, comment := range comment.Comments {
			name, value, ok := strings.Cut(comment, "=")
			if ok {
				name = strings.ToUpper(name)
				vorbisComments[name] = append(vorbisComments[name], value)
			}
		}

		return vorbisComments
	}

	return map[string][]string{}
}

func getTag(comments map[string][]string, commentName string) model.Tag {
	values := comments[commentName]
	if len(values) == 0 {
		return model.Tag{}
	}
	return model.NewTag(values[0])
}

func getImage(blocks Blocks) *model.Image {
	var picture *flacpicture.MetadataBlockPicture
	for _, block := range blocks {
		if block.Type == flac.Picture {
			parsedPicture, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			if picture == nil || parsedPicture.PictureType == flacpicture.PictureTypeFrontCover {
				picture = parsedPicture
				if picture.PictureType == flacpicture.PictureTypeFrontCover {
					break
				}
			}
		}
	}

	if picture == nil || len(picture.ImageData) == 0 {
		return nil
	}

	mimeType := picture.MIME
	if mimeType == "" {
		mimeType = http.DetectContentType(picture.ImageData)
	}

	return &model.Image{MimeType: mimeType, Data: picture.ImageData}
}
