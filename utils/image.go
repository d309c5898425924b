package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

// DefaultJpegQuality is used when no quality is given.
const DefaultJpegQuality = 90

// ConvertImage re-encodes an image to target ("png" or "jpeg"). Raw "bgra"
// input needs width and height; the row stride is derived from the data
// length.
func ConvertImage(data []byte, format string, width, height int, target string, quality int) ([]byte, error) {
	img, err := decodeImage(data, normalizeFormat(format), width, height)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	switch normalizeFormat(target) {
	case "png":
		err = png.Encode(&out, img)
	case "jpeg":
		if quality <= 0 || quality > 100 {
			quality = DefaultJpegQuality
		}
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: quality})
	default:
		return nil, fmt.Errorf("unsupported target format '%s', must be 'png' or 'jpeg'", target)
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ConvertPngToJpeg re-encodes PNG bytes as JPEG.
func ConvertPngToJpeg(pngBytes []byte, quality int) ([]byte, error) {
	return ConvertImage(pngBytes, "png", 0, 0, "jpeg", quality)
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "jpg" {
		return "jpeg"
	}
	return format
}

func decodeImage(data []byte, format string, width, height int) (image.Image, error) {
	switch format {
	case "png":
		return png.Decode(bytes.NewReader(data))
	case "jpeg":
		return jpeg.Decode(bytes.NewReader(data))
	case "bgra":
		return decodeBGRA(data, width, height)
	default:
		return nil, fmt.Errorf("cannot convert frames in format '%s'", format)
	}
}

func decodeBGRA(data []byte, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raw frame needs dimensions, got %dx%d", width, height)
	}
	stride := len(data) / height
	if stride < width*4 {
		return nil, fmt.Errorf("raw frame too short: %d bytes for %dx%d", len(data), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*stride : y*stride+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			dst[x] = row[x+2]
			dst[x+1] = row[x+1]
			dst[x+2] = row[x]
			dst[x+3] = row[x+3]
		}
	}
	return img, nil
}
