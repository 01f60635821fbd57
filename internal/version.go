package musicorg

var (
	Name    = "musicorg"
	Version = "0.1.0"
)
