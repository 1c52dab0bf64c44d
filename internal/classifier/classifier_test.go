package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMetadata(t *testing.T) {
	path := writeMetadata(t, `{
		"classes": ["pothole", "manhole_cover"],
		"image_size": 224,
		"mean": [0.485, 0.456, 0.406],
		"std": [0.229, 0.224, 0.225],
		"apply_softmax": true
	}`)

	metadata, err := loadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pothole", "manhole_cover"}, metadata.Classes)
	assert.Equal(t, 224, metadata.ImageSize)
	assert.True(t, metadata.ApplySoftmax)
}

func TestLoadMetadataMissingFile(t *testing.T) {
	_, err := loadMetadata(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestLoadMetadataInvalidJSON(t *testing.T) {
	path := writeMetadata(t, `{"classes": [`)
	_, err := loadMetadata(path)
	assert.Error(t, err)
}

func TestLoadMetadataIncomplete(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no classes", `{"image_size": 224}`},
		{"zero image size", `{"classes": ["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMetadata(writeMetadata(t, tt.content))
			assert.Error(t, err)
		})
	}
}
