package api

import (
	"io"
	"math"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/khacks/phototriage-go/internal/classifier"
	"github.com/khacks/phototriage-go/internal/errors"
	"github.com/khacks/phototriage-go/internal/metadata"
	"github.com/khacks/phototriage-go/internal/pipeline"
)

// uploadResponse is the success body of POST /upload.
type uploadResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Discarded bool            `json:"discarded"`
	ReportID  *uint           `json:"report_id"`
	Files     filesPayload    `json:"files"`
	FormData  formDataPayload `json:"form_data"`
	Category  string          `json:"category"`
	WhatIsIt  string          `json:"whatIsIt"`
	Priority  int             `json:"priority"`
	Analysis  analysisPayload `json:"analysis"`
}

type filesPayload struct {
	Image    string  `json:"image"`
	Metadata *string `json:"metadata"`
}

type formDataPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Notes     *string `json:"notes"`
	Timestamp string  `json:"timestamp"`
}

type analysisPayload struct {
	DamageScore    float64  `json:"damage_score"`
	Severity       string   `json:"severity"`
	DetectedIssues []string `json:"detected_issues"`
	Confidence     float64  `json:"confidence"`
}

// HandleUpload accepts a multipart upload with an image part, an optional
// metadata part and optional geolocation form fields, runs it through the
// triage pipeline and returns the verdict.
func (c *Controller) HandleUpload(ctx echo.Context) error {
	imageBytes, ok := c.readFilePart(ctx, "image")
	if !ok {
		return c.errorJSON(ctx, http.StatusBadRequest, "No image file")
	}

	metadataBytes, _ := c.readFilePart(ctx, "metadata")

	req := &pipeline.UploadRequest{
		Image:    imageBytes,
		Metadata: metadataBytes,
		Form: metadata.FormFields{
			Latitude:  ctx.FormValue("latitude"),
			Longitude: ctx.FormValue("longitude"),
			Timestamp: ctx.FormValue("timestamp"),
			Notes:     ctx.FormValue("notes"),
		},
	}

	result, err := c.Pipeline.ProcessUpload(req)
	if err != nil {
		return c.uploadError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, buildUploadResponse(result))
}

// uploadError maps pipeline failures onto HTTP responses. Validation and
// classification failures are client errors; everything else is reported as
// a server fault without leaking internals to the caller.
func (c *Controller) uploadError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrMissingImage):
		return c.errorJSON(ctx, http.StatusBadRequest, "No image file")
	case errors.Is(err, metadata.ErrMissingCoordinates):
		return c.errorJSON(ctx, http.StatusBadRequest, "Missing latitude/longitude")
	case errors.Is(err, classifier.ErrInvalidImage), errors.Is(err, classifier.ErrInferenceFailed):
		return c.errorJSON(ctx, http.StatusBadRequest, "Could not analyze image")
	default:
		c.logger.Error("Upload failed", "error", err)
		return c.errorJSON(ctx, http.StatusInternalServerError, "Server error: "+err.Error())
	}
}

func buildUploadResponse(result *pipeline.UploadResult) uploadResponse {
	resp := uploadResponse{
		Success:   true,
		Message:   "Files received successfully!",
		Discarded: result.Verdict.Discarded,
		ReportID:  result.ReportID,
		Files: filesPayload{
			Image: result.Artifacts.Image,
		},
		FormData: formDataPayload{
			Latitude:  result.Reconciled.Latitude,
			Longitude: result.Reconciled.Longitude,
			Notes:     result.Reconciled.Notes,
			Timestamp: result.Reconciled.Timestamp,
		},
		Category: string(result.Verdict.Category),
		WhatIsIt: result.Classification.Label,
		Priority: result.Verdict.Priority,
		Analysis: analysisPayload{
			DamageScore:    round2(result.Classification.Confidence),
			Severity:       string(result.Verdict.Category),
			DetectedIssues: []string{result.Classification.Label},
			Confidence:     round2(result.Classification.Confidence),
		},
	}

	if result.Artifacts.Metadata != "" {
		name := result.Artifacts.Metadata
		resp.Files.Metadata = &name
	}

	return resp
}

// readFilePart reads a multipart file part fully into memory. Returns false
// when the part is absent or unreadable.
func (c *Controller) readFilePart(ctx echo.Context, name string) ([]byte, bool) {
	fileHeader, err := ctx.FormFile(name)
	if err != nil {
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Warn("Failed to open multipart file", "part", name, "error", err)
		return nil, false
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(file)

	data, err := io.ReadAll(file)
	if err != nil {
		c.logger.Warn("Failed to read multipart file", "part", name, "error", err)
		return nil, false
	}
	return data, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
