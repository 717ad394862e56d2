package qrcode

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) string {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, payload := range []string{"ABC-789", "554-129", "TX-1F3A9C0B"} {
		out, err := Encode(payload, DefaultSize)
		require.NoError(t, err)
		assert.Equal(t, payload, decode(t, out))
	}
}

func TestRenderFallsBackOnEmptyPayload(t *testing.T) {
	img := Render("", 128)
	assert.True(t, img.Fallback)
	assert.Equal(t, Fallback(128), img.PNG)

	decoded, err := png.Decode(bytes.NewReader(img.PNG))
	require.NoError(t, err)
	assert.Equal(t, 128, decoded.Bounds().Dx())
}

func TestRenderFallsBackOnOversizedPayload(t *testing.T) {
	img := Render(strings.Repeat("x", 8000), 0)
	assert.True(t, img.Fallback)
	assert.NotEmpty(t, img.PNG)
}

func TestRenderSuccess(t *testing.T) {
	img := Render("RCS-123", 0)
	assert.False(t, img.Fallback)
	assert.Equal(t, "RCS-123", decode(t, img.PNG))
}
