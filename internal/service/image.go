package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"regexp"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes a decoded image header.
type ImageInfo struct {
	Format   string
	MIMEType string
	Width    int
	Height   int
}

// SniffImage inspects image bytes. Decodable formats report their dimensions;
// otherwise the MIME type comes from content sniffing and ok is false.
func SniffImage(data []byte) (info ImageInfo, ok bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{MIMEType: http.DetectContentType(data)}, false
	}
	return ImageInfo{
		Format:   format,
		MIMEType: getMIMEType(format),
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, true
}

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+)(;base64)?,`)

// DecodeImageBase64 decodes a raw or data-URL base64 image. The MIME type comes
// from the data URL prefix when present, otherwise from sniffing.
func DecodeImageBase64(value string) (data []byte, mimeType string, err error) {
	value = strings.TrimSpace(value)
	if m := dataURLRegex.FindStringSubmatch(value); m != nil {
		mimeType = m[1]
		value = value[len(m[0]):]
	}

	data, err = base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 image: %w", err)
	}
	if mimeType == "" {
		info, _ := SniffImage(data)
		mimeType = info.MIMEType
	}
	return data, mimeType, nil
}

func getMIMEType(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
