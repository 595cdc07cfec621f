package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/koconnect/koconnect/internal/apperr"
)

// DefaultName names images that arrive without a file name.
const DefaultName = "image"

// Image is raw image bytes plus a display name used in the prompt.
type Image struct {
	Name string
	Data []byte
}

// Load normalizes a file path, raw bytes, an io.Reader or an Image into an
// Image. Readers that also implement io.Seeker are rewound first.
func Load(src interface{}) (Image, error) {
	switch v := src.(type) {
	case Image:
		if v.Name == "" {
			v.Name = DefaultName
		}
		return v, nil
	case []byte:
		return Image{Name: DefaultName, Data: v}, nil
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return Image{}, apperr.NewImageDecodeError(err)
		}
		return Image{Name: filepath.Base(v), Data: data}, nil
	case io.Reader:
		if s, ok := v.(io.Seeker); ok {
			if _, err := s.Seek(0, io.SeekStart); err != nil {
				return Image{}, apperr.NewImageDecodeError(err)
			}
		}
		data, err := io.ReadAll(v)
		if err != nil {
			return Image{}, apperr.NewImageDecodeError(err)
		}
		name := DefaultName
		if f, ok := v.(interface{ Name() string }); ok {
			name = filepath.Base(f.Name())
		}
		return Image{Name: name, Data: data}, nil
	case nil:
		return Image{}, apperr.NewImageDecodeError(errors.New("no image given"))
	default:
		return Image{}, apperr.NewImageDecodeError(fmt.Errorf("unsupported image source %T", src))
	}
}

// visionFormats are the decoded formats the vision backend accepts as-is.
var visionFormats = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Prepare decodes data to reject anything that is not an image and returns
// the bytes to send with their MIME type. Formats the backend accepts are
// passed through unchanged; the rest are flattened and re-encoded as PNG.
func Prepare(data []byte) ([]byte, string, error) {
	src, format, err := decode(data)
	if err != nil {
		return nil, "", err
	}
	if mime, ok := visionFormats[format]; ok {
		return data, mime, nil
	}
	out, err := flatten(src, format)
	if err != nil {
		return nil, "", err
	}
	return out, "image/png", nil
}

func decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", apperr.NewImageDecodeError(errors.New("image is empty"))
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperr.NewImageDecodeError(err)
	}
	return src, format, nil
}

// flatten draws src onto an opaque white canvas and encodes it as PNG.
func flatten(src image.Image, format string) ([]byte, error) {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, apperr.NewImageDecodeError(fmt.Errorf("re-encode %s as png: %w", format, err))
	}
	return buf.Bytes(), nil
}
