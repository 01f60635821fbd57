package artwork

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/solidcopy/musicorg/internal/model"
)

// FileName returns the cover file name for a MIME type, or "" when the type
// is not exported.
func FileName(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return "Folder.jpg"
	case "image/png":
		return "Folder.png"
	case "image/gif":
		return "Folder.gif"
	default:
		return ""
	}
}

// WriteImageFile writes image into dir as Folder.<ext>. It returns the path
// written, or "" when there was nothing to write or a cover already exists.
func WriteImageFile(dir string, image *model.Image) (string, error) {

	if image == nil || len(image.Data) == 0 {
		return "", nil
	}

	imageFileName := FileName(image.MimeType)
	if imageFileName == "" {
		return "", nil
	}
	imageFilePath := filepath.Join(dir, imageFileName)

	imageFile, err := os.OpenFile(imageFilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer imageFile.Close()

	if _, err := imageFile.Write(image.Data); err != nil {
		return "", err
	}

	return imageFilePath, imageFile.Close()
}
