// Package classifier wraps a pretrained ONNX image classification model.
// The model session is loaded once at startup and shared read-only for the
// process lifetime; the inference invocation itself is serialized because
// the session's input and output tensors are reused between calls.
package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/khacks/phototriage-go/internal/errors"
)

// ErrInvalidImage is returned when the input bytes cannot be decoded as a
// JPEG or PNG image.
var ErrInvalidImage = errors.NewStd("input is not a decodable image")

// ErrInferenceFailed is returned when the image decoded but the model failed
// to produce a usable result.
var ErrInferenceFailed = errors.NewStd("inference produced no usable result")

// Metadata describes the model's classes and preprocessing contract. It is
// loaded from a JSON file shipped next to the model.
type Metadata struct {
	Classes   []string  `json:"classes"`
	ImageSize int       `json:"image_size"`
	Mean      []float32 `json:"mean"`
	Std       []float32 `json:"std"`
	// ApplySoftmax is set for models that emit raw logits instead of
	// probabilities.
	ApplySoftmax bool `json:"apply_softmax"`
}

// Result holds the single top-scoring class of one inference pass.
type Result struct {
	Label      string
	Confidence float64
}

// Classifier holds the loaded ONNX session and model metadata.
type Classifier struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	metadata     Metadata
	mu           sync.Mutex
}

// New loads the model and its metadata and prepares a reusable inference
// session. This is expensive and must happen once at process start.
func New(modelPath, metadataPath string) (*Classifier, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.New(fmt.Errorf("failed to initialize ONNX environment: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}

	metadata, err := loadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	inputShape := ort.NewShape(1, 3, int64(metadata.ImageSize), int64(metadata.ImageSize))
	outputShape := ort.NewShape(1, int64(len(metadata.Classes)))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to create input tensor: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.New(fmt.Errorf("failed to create output tensor: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.New(fmt.Errorf("failed to create ONNX session: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			FileContext(modelPath, -1).
			Build()
	}

	return &Classifier{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		metadata:     metadata,
	}, nil
}

func loadMetadata(metadataPath string) (Metadata, error) {
	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		return Metadata{}, errors.New(fmt.Errorf("failed to read model metadata: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			FileContext(metadataPath, -1).
			Build()
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, errors.New(fmt.Errorf("failed to parse model metadata: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			FileContext(metadataPath, int64(len(raw))).
			Build()
	}

	if len(metadata.Classes) == 0 || metadata.ImageSize <= 0 {
		return Metadata{}, errors.Newf("model metadata is incomplete: %d classes, image size %d",
			len(metadata.Classes), metadata.ImageSize).
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}

	return metadata, nil
}

// Classify decodes the image bytes, runs one forward pass and returns the
// single highest-probability class with its probability.
func (c *Classifier) Classify(imageBytes []byte) (Result, error) {
	input, err := preprocess(imageBytes, &c.metadata)
	if err != nil {
		return Result{}, err
	}

	// The session reuses its tensors, serialize the invocation only.
	c.mu.Lock()
	copy(c.inputTensor.GetData(), input)
	runErr := c.session.Run()
	var output []float32
	if runErr == nil {
		output = append(output, c.outputTensor.GetData()...)
	}
	c.mu.Unlock()

	if runErr != nil {
		return Result{}, errors.New(fmt.Errorf("%w: %w", ErrInferenceFailed, runErr)).
			Component("classifier").
			Category(errors.CategoryModelInfer).
			Build()
	}

	if len(output) != len(c.metadata.Classes) {
		return Result{}, errors.New(fmt.Errorf("%w: output size %d does not match %d classes",
			ErrInferenceFailed, len(output), len(c.metadata.Classes))).
			Component("classifier").
			Category(errors.CategoryModelInfer).
			Build()
	}

	probs := toProbabilities(output, c.metadata.ApplySoftmax)
	idx, confidence := argmax(probs)
	return Result{
		Label:      c.metadata.Classes[idx],
		Confidence: confidence,
	}, nil
}

// Close releases the session and its tensors. The classifier must not be
// used after Close.
func (c *Classifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	ort.DestroyEnvironment()
}
