package utils

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// MaxPhotoBytes is the largest accepted upload before base64 encoding.
const MaxPhotoBytes = 5 << 20

var (
	ErrPhotoTooLarge = errors.New("photo exceeds 5 MiB")
	ErrPhotoType     = errors.New("unsupported photo format; accepted: JPEG, PNG, GIF, WEBP, BMP")
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// EncodePhoto reads an uploaded file and returns it as a data URI
// (data:<mime>;base64,<payload>).  The declared Content-Type must be in the
// allowlist; when the part carries none, the type is sniffed from the bytes.
func EncodePhoto(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	// read one byte past the limit to detect oversized bodies with a lying Size
	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoBytes+1))
	if err != nil {
		return "", err
	}
	return EncodePhotoBytes(fh.Header.Get("Content-Type"), data)
}

// EncodePhotoBytes applies the same checks as EncodePhoto to raw bytes.
func EncodePhotoBytes(mimeType string, data []byte) (string, error) {
	if len(data) > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !allowedPhotoTypes[mimeType] {
		return "", ErrPhotoType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
