package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConvertPngToJpeg(t *testing.T) {
	jpegBytes, err := ConvertPngToJpeg(testPNG(t, 32, 32), 90)
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(jpegBytes))
	require.NoError(t, err)
	assert.Equal(t, 32, out.Bounds().Dx())
	assert.Equal(t, 32, out.Bounds().Dy())
}

func TestConvertImage_BGRAToPNG(t *testing.T) {
	// 2x1 with 4 bytes of row padding: blue pixel, red pixel
	raw := []byte{
		255, 0, 0, 255, 0, 0, 255, 255, 0, 0, 0, 0,
	}

	out, err := ConvertImage(raw, "BGRA", 2, 1, "png", 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0xffff}, [3]uint32{r, g, b})
	r, g, b, _ = img.At(1, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}

func TestConvertImage_Errors(t *testing.T) {
	_, err := ConvertImage([]byte{1, 2, 3}, "bgra", 0, 0, "png", 0)
	assert.Error(t, err)

	_, err = ConvertImage([]byte{1, 2, 3}, "bgra", 2, 2, "png", 0)
	assert.Error(t, err)

	_, err = ConvertImage(testPNG(t, 2, 2), "png", 0, 0, "gif", 0)
	assert.Error(t, err)

	_, err = ConvertImage([]byte("x"), "heic", 1, 1, "png", 0)
	assert.Error(t, err)
}
