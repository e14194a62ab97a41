package imagecache

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the formats served by the catalog image host.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Image is a decoded image held by the cache.
type Image struct {
	// Key is the normalized absolute URL.
	Key string

	// Format is the decoder name ("jpeg", "png", "gif", "webp").
	Format string

	// Image is the decoded pixel data. Treat as read-only.
	Image image.Image

	// Size is the length of the encoded payload in bytes.
	Size int
}

// Bounds returns the image rectangle.
func (i *Image) Bounds() image.Rectangle {
	return i.Image.Bounds()
}

// decode turns raw bytes into an Image.
func decode(key string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Image{Key: key, Format: format, Image: img, Size: len(data)}, nil
}
