// Package imaging encodes attachments for upload.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"tableflip.dev/memos/pkg/errs"
)

const (
	// DefaultQuality is the JPEG quality used for uploaded images.
	DefaultQuality = 80

	// MimeJPEG is the mime type of EncodeJPEG output.
	MimeJPEG = "image/jpeg"
)

// EncodeJPEG compresses img at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, errs.New(errs.CodeEncoding, "no image to encode")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errs.New(errs.CodeEncoding, "image has no pixels").
			WithDetail("bounds", b.String())
	}
	if quality < 1 || quality > 100 {
		return nil, errs.New(errs.CodeEncoding, "jpeg quality out of range").
			WithDetail("quality", quality)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errs.Wrap(err, errs.CodeEncoding, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// Decode reads a png, jpeg or gif image.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errs.Wrap(err, errs.CodeEncoding, "decode image")
	}
	return img, format, nil
}
