// Package codec encodes and decodes the opaque raster snapshots a canvas
// exports and imports.
//
// Snapshots are always exported as PNG. Imports are sniffed by content
// rather than trusted by name, so a PNG, JPEG, GIF, BMP, TIFF or WebP
// payload decodes regardless of how it was labelled. Either form may be
// wrapped in a base64 data URL.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Codec errors.
var (
	// ErrEmptyData is returned when there is nothing to decode.
	ErrEmptyData = errors.New("codec: empty data")

	// ErrUnsupportedFormat is returned when the payload is not a known image format.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")

	// ErrBadDataURL is returned for malformed data URLs.
	ErrBadDataURL = errors.New("codec: malformed data URL")

	// ErrTooLarge is returned when the declared image size exceeds the
	// pixel limit passed to DecodeLimit.
	ErrTooLarge = errors.New("codec: image too large")
)

// MIMEPNG is the media type of exported snapshots.
const MIMEPNG = "image/png"

type decoder struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

// decoders is keyed by the extension filetype reports for a match.
var decoders = map[string]decoder{
	"png":  {png.Decode, png.DecodeConfig},
	"jpg":  {jpeg.Decode, jpeg.DecodeConfig},
	"gif":  {gif.Decode, gif.DecodeConfig},
	"bmp":  {bmp.Decode, bmp.DecodeConfig},
	"tif":  {tiff.Decode, tiff.DecodeConfig},
	"webp": {webp.Decode, webp.DecodeConfig},
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("codec: encode PNG: %w", err)
	}
	return nil
}

// PNG returns img encoded as PNG bytes.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sniff reports the format of data as a short name ("png", "jpg", ...).
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("codec: sniff: %w", err)
	}
	if _, ok := decoders[kind.Extension]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, describe(kind.MIME.Value))
	}
	return kind.Extension, nil
}

// Decode decodes raw image bytes or a data URL.
// It returns the decoded image and the sniffed format name.
func Decode(data []byte) (image.Image, string, error) {
	return DecodeLimit(data, 0)
}

// DecodeLimit is like Decode but reads the image header first and fails
// with ErrTooLarge, before allocating any pixels, when the declared
// width times height exceeds maxPixels. A maxPixels of zero or less
// means no limit.
func DecodeLimit(data []byte, maxPixels int) (image.Image, string, error) {
	if bytes.HasPrefix(data, []byte("data:")) {
		raw, _, err := ParseDataURL(string(data))
		if err != nil {
			return nil, "", err
		}
		data = raw
	}

	format, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}
	dec := decoders[format]
	cfg, err := dec.config(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("codec: decode %s header: %w", format, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, format, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	img, err := dec.decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("codec: decode %s: %w", format, err)
	}
	return img, format, nil
}

// DataURL wraps data in a base64 data URL of the given media type.
func DataURL(mime string, data []byte) string {
	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString("data:")
	sb.WriteString(mime)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// ParseDataURL extracts the payload and media type from a data URL.
// Both base64 and percent-encoded payloads are accepted.
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrBadDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrBadDataURL
	}

	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrBadDataURL, err)
		}
		return data, mime, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrBadDataURL, err)
	}
	return []byte(text), mime, nil
}

func describe(mime string) string {
	if mime == "" {
		return "unknown"
	}
	return mime
}
