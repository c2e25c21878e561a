package service

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/model"
)

func writePNG(t *testing.T, width, height int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))

	return path
}

func TestImageValidatePNG(t *testing.T) {
	path := writePNG(t, 8, 6)

	rec, err := NewImageService().Validate(path, "photo.png")
	require.NoError(t, err)

	assert.Equal(t, model.FileImage, rec.Kind)
	assert.Equal(t, "photo.png", rec.Filename)
	assert.Equal(t, "png", rec.Format)
	assert.Equal(t, 8, rec.Width)
	assert.Equal(t, 6, rec.Height)
	assert.Positive(t, rec.SizeBytes)
}

func TestImageValidateRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0644))

	_, err := NewImageService().Validate(path, "fake.png")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestImageValidateRejectsOversizedDimensions(t *testing.T) {
	path := writePNG(t, maxImageDimension+1, 10)

	_, err := NewImageService().Validate(path, "wide.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "image too large")
}

func TestImageValidateMissingFile(t *testing.T) {
	_, err := NewImageService().Validate(filepath.Join(t.TempDir(), "nope.png"), "nope.png")
	assert.ErrorIs(t, err, ErrInvalidImage)
}
