package httputil

import (
	"errors"
	"io"
	"net/http"
)

// MaxImageSize bounds uploaded images at 5 MiB.
const MaxImageSize = 5 << 20

var (
	ErrFileTooLarge         = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedMediaType = errors.New("unsupported image type")
	ErrMissingFile          = errors.New("missing file field")
)

// ImageUpload is a validated multipart image upload.
type ImageUpload struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ReadImageUpload extracts and validates an image from a multipart form.
// The content type is sniffed from the bytes, not taken from the client.
func ReadImageUpload(r *http.Request, field string) (*ImageUpload, error) {
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		return nil, ErrFileTooLarge
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, ErrMissingFile
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	var ext string
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	default:
		return nil, ErrUnsupportedMediaType
	}

	return &ImageUpload{
		Data:        data,
		ContentType: contentType,
		Ext:         ext,
	}, nil
}
