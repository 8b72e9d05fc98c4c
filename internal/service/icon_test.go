package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igocard/backend/internal/types"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
)

func TestValidateIconSniffsContentType(t *testing.T) {
	png := &types.IconUpload{Filename: "avatar.png", Data: pngHeader}
	require.NoError(t, ValidateIcon(png))
	assert.Equal(t, "image/png", png.ContentType)

	// The declared content type is ignored in favor of the bytes.
	jpeg := &types.IconUpload{Filename: "avatar.jpg", ContentType: "text/plain", Data: jpegHeader}
	require.NoError(t, ValidateIcon(jpeg))
	assert.Equal(t, "image/jpeg", jpeg.ContentType)
}

func TestValidateIconRejectsOtherTypes(t *testing.T) {
	gif := &types.IconUpload{Filename: "avatar.gif", Data: []byte("GIF89a\x01\x00\x01\x00")}
	assert.ErrorIs(t, ValidateIcon(gif), ErrIconBadType)

	text := &types.IconUpload{Filename: "avatar.png", Data: []byte("just some text")}
	assert.ErrorIs(t, ValidateIcon(text), ErrIconBadType)
}

func TestValidateIconRejectsOversize(t *testing.T) {
	data := make([]byte, MaxIconBytes+1)
	copy(data, pngHeader)

	icon := &types.IconUpload{Filename: "huge.png", Data: data}
	assert.ErrorIs(t, ValidateIcon(icon), ErrIconTooLarge)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "avatar.png", sanitizeFilename("avatar.png"))
	assert.Equal(t, "avatar.png", sanitizeFilename("../../etc/avatar.png"))
	assert.Equal(t, "avatar.png", sanitizeFilename("C:\\Users\\taro\\avatar.png"))
	assert.Equal(t, "my_avatar.png", sanitizeFilename("my avatar.png"))
	assert.Equal(t, "icon", sanitizeFilename(""))
}
