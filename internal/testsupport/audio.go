// Package testsupport writes small tagged audio files for tests. The files
// carry real tag containers and the minimal structure the readers check
// for: an MPEG frame header, a FLAC frame sync, ftyp and moov boxes.
package testsupport

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/abema/go-mp4"
	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/solidcopy/musicorg/internal/model"
)

// Tags describes the tags written to a fixture. Empty fields are omitted from
// the file so they read back as absent.
type Tags struct {
	Title  string
	Artist string
	Album  string
	Image  *model.Image
	// Payload is appended after the tag container. It makes otherwise
	// identically tagged fixtures distinguishable.
	Payload []byte
}

// WriteAudio writes a fixture in the format implied by path's extension,
// creating parent directories as needed.
func WriteAudio(path string, tags Tags) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch filepath.Ext(path) {
	case ".mp3":
		return WriteMP3(path, tags)
	case ".flac", ".FLAC":
		return WriteFLAC(path, tags)
	case ".m4a", ".mp4":
		return WriteM4A(path, tags)
	default:
		return os.WriteFile(path, tags.Payload, 0o644)
	}
}

func WriteMP3(path string, tags Tags) error {
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}
	if tags.Image != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    tags.Image.MimeType,
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     tags.Image.Data,
		})
	}

	var buff bytes.Buffer
	if tag.Count() > 0 {
		if _, err := tag.WriteTo(&buff); err != nil {
			return err
		}
	}
	// MPEGフレームヘッダっぽいもの
	buff.Write([]byte{0xff, 0xfb, 0x90, 0x00})
	buff.Write(tags.Payload)

	return os.WriteFile(path, buff.Bytes(), 0o644)
}

func WriteFLAC(path string, tags Tags) error {
	streamInfo := flac.MetaDataBlock{Type: flac.StreamInfo, Data: make([]byte, 34)}
	blocks := []*flac.MetaDataBlock{&streamInfo}

	vorbisComment := flacvorbis.New()
	vorbisComment.Vendor = "musicorg testsupport"
	if tags.Title != "" {
		vorbisComment.Add(flacvorbis.FIELD_TITLE, tags.Title)
	}
	if tags.Artist != "" {
		vorbisComment.Add(flacvorbis.FIELD_ARTIST, tags.Artist)
	}
	if tags.Album != "" {
		vorbisComment.Add(flacvorbis.FIELD_ALBUM, tags.Album)
	}
	vorbisCommentBlock := vorbisComment.Marshal()
	blocks = append(blocks, &vorbisCommentBlock)

	if tags.Image != nil {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", tags.Image.Data, tags.Image.MimeType)
		if err != nil {
			return fmt.Errorf("picture block: %w", err)
		}
		pictureBlock := picture.Marshal()
		blocks = append(blocks, &pictureBlock)
	}

	file := &flac.File{
		Meta:   blocks,
		Frames: append([]byte{0xff, 0xf8}, tags.Payload...),
	}
	return file.Save(path)
}

func WriteM4A(path string, tags Tags) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := mp4.NewWriter(file)

	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeFtyp()}); err != nil {
		return err
	}
	ftyp := mp4.Ftyp{
		MajorBrand:       [4]byte{'M', '4', 'A', ' '},
		CompatibleBrands: []mp4.CompatibleBrandElem{{CompatibleBrand: [4]byte{'M', '4', 'A', ' '}}},
	}
	if _, err := mp4.Marshal(w, &ftyp, mp4.Context{}); err != nil {
		return err
	}
	if _, err := w.EndBox(); err != nil {
		return err
	}

	for _, boxType := range []mp4.BoxType{mp4.BoxTypeMoov(), mp4.BoxTypeUdta(), mp4.BoxTypeMeta()} {
		if _, err := w.StartBox(&mp4.BoxInfo{Type: boxType}); err != nil {
			return err
		}
	}
	if _, err := mp4.Marshal(w, &mp4.Meta{}, mp4.Context{UnderUdta: true}); err != nil {
		return err
	}
	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeIlst()}); err != nil {
		return err
	}

	items := []struct {
		name, value string
	}{
		{"\xa9nam", tags.Title},
		{"\xa9ART", tags.Artist},
		{"\xa9alb", tags.Album},
	}
	for _, item := range items {
		if item.value == "" {
			continue
		}
		if err := addTag(w, item.name, mp4.DataTypeStringUTF8, []byte(item.value)); err != nil {
			return err
		}
	}
	if tags.Image != nil {
		if err := addTag(w, "covr", mp4.DataTypeBinary, tags.Image.Data); err != nil {
			return err
		}
	}

	// ilst, meta, udta, moov
	for i := 0; i < 4; i++ {
		if _, err := w.EndBox(); err != nil {
			return err
		}
	}

	if len(tags.Payload) > 0 {
		if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeFree()}); err != nil {
			return err
		}
		if _, err := w.Write(tags.Payload); err != nil {
			return err
		}
		if _, err := w.EndBox(); err != nil {
			return err
		}
	}

	return file.Close()
}

func addTag(w *mp4.Writer, name string, dataType uint32, value []byte) error {
	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.StrToBoxType(name)}); err != nil {
		return err
	}
	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeData()}); err != nil {
		return err
	}

	boxData := mp4.Data{DataType: dataType, Data: value}
	if _, err := mp4.Marshal(w, &boxData, mp4.Context{UnderIlstMeta: true}); err != nil {
		return err
	}

	if _, err := w.EndBox(); err != nil {
		return err
	}
	_, err := w.EndBox()
	return err
}

// PNG returns a tiny valid PNG image.
func PNG() *model.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buff bytes.Buffer
	if err := png.Encode(&buff, img); err != nil {
		panic(err)
	}
	return &model.Image{MimeType: "image/png", Data: buff.Bytes()}
}
