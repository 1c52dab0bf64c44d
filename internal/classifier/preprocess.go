package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decode support
	_ "image/png"  // PNG decode support
	"math"

	"github.com/nfnt/resize"

	"github.com/khacks/phototriage-go/internal/errors"
)

// ImageNet normalization, used when the model metadata does not carry its
// own mean and standard deviation.
var (
	defaultMean = []float32{0.485, 0.456, 0.406}
	defaultStd  = []float32{0.229, 0.224, 0.225}
)

// preprocess decodes the image bytes and converts them to the NCHW float32
// layout expected by the model: resized to a square, scaled to [0, 1] and
// normalized per channel.
func preprocess(imageBytes []byte, metadata *Metadata) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, errors.New(fmt.Errorf("%w: %w", ErrInvalidImage, err)).
			Component("classifier").
			Category(errors.CategoryImageDecode).
			Context("image_size_bytes", len(imageBytes)).
			Build()
	}

	return imageToTensor(img, metadata), nil
}

// imageToTensor resizes the image to the model's input square and fills a
// channel-first tensor with normalized pixel values.
func imageToTensor(img image.Image, metadata *Metadata) []float32 {
	size := metadata.ImageSize
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	mean, std := metadata.Mean, metadata.Std
	if len(mean) != 3 {
		mean = defaultMean
	}
	if len(std) != 3 {
		std = defaultStd
	}

	plane := size * size
	input := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()

			idx := y*size + x
			input[idx] = (float32(r)/65535.0 - mean[0]) / std[0]
			input[plane+idx] = (float32(g)/65535.0 - mean[1]) / std[1]
			input[2*plane+idx] = (float32(b)/65535.0 - mean[2]) / std[2]
		}
	}

	return input
}

// toProbabilities converts model outputs to float64 probabilities, applying
// softmax only for models that emit raw logits.
func toProbabilities(output []float32, applySoftmax bool) []float64 {
	if applySoftmax {
		return softmax(output)
	}
	probs := make([]float64, len(output))
	for i, v := range output {
		probs[i] = float64(v)
	}
	return probs
}

// softmax converts raw logits to a probability distribution, shifted by the
// maximum for numerical stability.
func softmax(logits []float32) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v - maxLogit))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index and value of the largest probability.
func argmax(probs []float64) (int, float64) {
	maxIdx := 0
	maxVal := probs[0]
	for i, v := range probs[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return maxIdx, maxVal
}
