package storage

import (
	"path"
	"strings"
)

var extensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/bmp":     "bmp",
	"image/tiff":    "tiff",
	"image/svg+xml": "svg",
}

// ImageKey builds the object key for an uploaded image, e.g. uploads/<id>.jpg.
func ImageKey(prefix, objectID, mimeType string) string {
	ext, ok := extensions[strings.ToLower(mimeType)]
	if !ok {
		ext = "bin"
	}
	return path.Join(strings.Trim(prefix, "/"), objectID+"."+ext)
}
