package images

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Decode reads an image in any registered format.
//
// Returns:
//   - image.Image: The decoded image.
//   - string: The format name, e.g. "jpeg".
//   - error: ErrInvalidInput wrapped with the decoder error.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrapf(ErrInvalidInput, "decode image: %v", err)
	}
	if img.Bounds().Empty() {
		return nil, format, errors.Wrap(ErrInvalidInput, "decoded image is empty")
	}
	return img, format, nil
}

// Load opens and decodes the image at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return img, nil
}
