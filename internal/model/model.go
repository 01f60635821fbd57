package model

type Track struct {
	FilePath string
	Ext      string
	// タグ情報
	Title  Tag
	Artist Tag
	Album  Tag
	// アートワーク
	Image *Image
}

// Tag is an optional tag value. Valid is false when the file has no such tag.
type Tag struct {
	Value string
	Valid bool
}

func NewTag(value string) Tag {
	return Tag{Value: value, Valid: true}
}

// String returns the value, or "None" when the tag is absent.
func (t Tag) String() string {
	if !t.Valid {
		return "None"
	}
	return t.Value
}

type Image struct {
	MimeType string
	Data     []byte
}
