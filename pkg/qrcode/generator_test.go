package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftarena/authcore/pkg/qrcode"
)

const otpauth = "otpauth://totp/FT%20Arena:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=FT%20Arena"

func TestPNG(t *testing.T) {
	t.Parallel()

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		for _, content := range []string{"", "  \t\n"} {
			img, err := qrcode.PNG(content)
			assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
			assert.Nil(t, img)
		}
	})

	t.Run("default size", func(t *testing.T) {
		t.Parallel()
		img, err := qrcode.PNG(otpauth)
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, decoded.Bounds().Dx())
	})

	t.Run("custom size", func(t *testing.T) {
		t.Parallel()
		img, err := qrcode.PNG(otpauth, qrcode.WithSize(128), qrcode.WithHighRecovery())
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, 128, decoded.Bounds().Dx())
	})

	t.Run("non-positive size keeps default", func(t *testing.T) {
		t.Parallel()
		img, err := qrcode.PNG(otpauth, qrcode.WithSize(-1))
		require.NoError(t, err)

		decoded, err := png.Decode(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, decoded.Bounds().Dx())
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		_, err := qrcode.PNG(strings.Repeat("x", 8000))
		assert.ErrorIs(t, err, qrcode.ErrGenerateFailed)
	})
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.DataURI(otpauth)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)

	_, err = qrcode.DataURI("")
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}
