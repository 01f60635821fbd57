package id3v2

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/solidcopy/musicorg/internal/model"
)

const (
	titleFrame   = "TIT2"
	artistFrame  = "TPE1"
	albumFrame   = "TALB"
	pictureFrame = "APIC"
)

// タグの後ろでフレーム同期を探す範囲
const syncSearchLimit = 64 * 1024

var ErrNoFrameSync = errors.New("no MPEG frame sync")

type Id3v2Handler struct {
}

func (h *Id3v2Handler) ReadTrack(filePath string) (*model.Track, error) {

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tags, err := id3v2.ParseReader(file, id3v2.Options{
		Parse:       true,
		ParseFrames: []string{titleFrame, artistFrame, albumFrame, pictureFrame},
	})
	if err != nil {
		return nil, err
	}

	// タグが無くてもエラーにならないので音声データの存在を確認する
	if err := findFrameSync(file); err != nil {
		return nil, err
	}

	track := &model.Track{
		FilePath: filePath,
		Title:    getText(tags, titleFrame),
		Artist:   getText(tags, artistFrame),
		Album:    getText(tags, albumFrame),
		Image:    getImage(tags),
	}

	return track, nil
}

func getText(tags *id3v2.Tag, id string) model.Tag {
	frame, ok := tags.GetLastFrame(id).(id3v2.TextFrame)
	if !ok {
		return model.Tag{}
	}

	// v2.4では複数の値が\x00区切りで入っているので最初の値を使う
	text, _, _ := strings.Cut(frame.Text, "\x00")
	return model.NewTag(text)
}

func getImage(tags *id3v2.Tag) *model.Image {
	frames := tags.GetFrames(pictureFrame)
	if len(frames) == 0 {
		return nil
	}

	var picture *id3v2.PictureFrame
	for _, frame := range frames {
		p, ok := frame.(id3v2.PictureFrame)
		if !ok {
			continue
		}

		// とりあえず最初の画像を選択し、フロントカバーがあればそちらを優先する
		if picture == nil || p.PictureType == id3v2.PTFrontCover {
			picture = &p
			if p.PictureType == id3v2.PTFrontCover {
				break
			}
		}
	}

	if picture == nil || len(picture.Picture) == 0 {
		return nil
	}

	mimeType := picture.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(picture.Picture)
	}

	return &model.Image{MimeType: mimeType, Data: picture.Picture}
}

// findFrameSync looks for an MPEG audio frame header after the ID3v2 tag,
// if any.
func findFrameSync(file *os.File) error {
	var offset int64
	header := make([]byte, 10)
	if n, _ := file.ReadAt(header, 0); n == len(header) && string(header[:3]) == "ID3" {
		// サイズはsynchsafe integer、フッタがあれば10バイト加算
		size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
		offset = int64(len(header)) + size
		if header[5]&0x10 != 0 {
			offset += 10
		}
	}

	r := bufio.NewReader(io.NewSectionReader(file, offset, syncSearchLimit))
	var prev byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return ErrNoFrameSync
		}
		if prev == 0xff && b&0xe0 == 0xe0 {
			return nil
		}
		prev = b
	}
}
