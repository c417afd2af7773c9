package cloudinary

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateImageFile(t *testing.T) {
	require.NoError(t, ValidateImageFile(&multipart.FileHeader{Filename: "rex.JPG", Size: 1024}))
	require.Error(t, ValidateImageFile(&multipart.FileHeader{Filename: "rex.pdf", Size: 1024}))
	require.Error(t, ValidateImageFile(&multipart.FileHeader{Filename: "rex.png", Size: MaxImageSize + 1}))
	require.Error(t, ValidateImageFile(nil))
}

func TestNewServiceRequiresCredentials(t *testing.T) {
	_, err := NewService("", "key", "secret", "")
	require.ErrorIs(t, err, ErrNotConfigured)

	svc, err := NewService("demo", "key", "secret", "")
	require.NoError(t, err)
	require.Equal(t, "oipet", svc.uploadFolder)
}
