package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
)

// DecodeImage decodes PNG, JPEG, GIF, BMP or WebP bytes.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode image: empty data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, nil
	}

	return nil, fmt.Errorf("decode image: %w", err)
}
