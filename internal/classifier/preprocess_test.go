package classifier

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

// encodeTestImage renders a small solid-color image in the given format.
func encodeTestImage(t *testing.T, c color.Color, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	default:
		t.Fatalf("unsupported test image format %q", format)
	}
	return buf.Bytes()
}

func TestPreprocessRejectsUndecodableBytes(t *testing.T) {
	metadata := &Metadata{ImageSize: 4, Classes: []string{"a"}}

	_, err := preprocess([]byte("definitely not an image"), metadata)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = preprocess(nil, metadata)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestPreprocessAcceptsJPEGAndPNG(t *testing.T) {
	metadata := &Metadata{ImageSize: 4, Classes: []string{"a"}}

	for _, format := range []string{"jpeg", "png"} {
		input, err := preprocess(encodeTestImage(t, color.White, format), metadata)
		require.NoError(t, err, format)
		assert.Len(t, input, 3*4*4, format)
	}
}

func TestImageToTensorNormalization(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}

	metadata := &Metadata{
		ImageSize: 4,
		Mean:      []float32{0.5, 0.5, 0.5},
		Std:       []float32{0.5, 0.5, 0.5},
	}
	input := imageToTensor(img, metadata)
	require.Len(t, input, 3*4*4)

	// White pixel: (1.0 - 0.5) / 0.5 == 1.0 in every channel.
	for i, v := range input {
		assert.InDelta(t, 1.0, v, 1e-4, "index %d", i)
	}
}

func TestImageToTensorDefaultsToImageNetNormalization(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.Black)
		}
	}

	metadata := &Metadata{ImageSize: 2}
	input := imageToTensor(img, metadata)
	require.Len(t, input, 3*2*2)

	// Black pixel: (0 - mean) / std per ImageNet constants, R channel first.
	assert.InDelta(t, -0.485/0.229, input[0], 1e-4)
	assert.InDelta(t, -0.456/0.224, input[4], 1e-4)
	assert.InDelta(t, -0.406/0.225, input[8], 1e-4)
}

func TestSoftmaxSumsToOneAndPreservesOrdering(t *testing.T) {
	probs := softmax([]float32{2.0, 1.0, 0.5, -3.0})

	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[0], probs[1])
	assert.Greater(t, probs[1], probs[2])
	assert.Greater(t, probs[2], probs[3])
}

func TestToProbabilitiesPassthrough(t *testing.T) {
	probs := toProbabilities([]float32{0.05, 0.92, 0.03}, false)
	assert.InDelta(t, 0.92, probs[1], 1e-6)

	idx, confidence := argmax(probs)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 0.92, confidence, 1e-6)
}

func TestArgmaxFirstOfTies(t *testing.T) {
	idx, val := argmax([]float64{0.4, 0.4, 0.2})
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 0.4, val, 1e-9)
}
