// Package pipeline drives an upload through its stages: request validation,
// metadata reconciliation, classification, triage, audit artifact writes and
// conditional report persistence.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/khacks/phototriage-go/internal/artifacts"
	"github.com/khacks/phototriage-go/internal/classifier"
	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/datastore"
	"github.com/khacks/phototriage-go/internal/errors"
	"github.com/khacks/phototriage-go/internal/logging"
	"github.com/khacks/phototriage-go/internal/metadata"
	"github.com/khacks/phototriage-go/internal/observability"
	"github.com/khacks/phototriage-go/internal/triage"
)

// ErrMissingImage is returned when the request carries no image bytes.
var ErrMissingImage = errors.NewStd("no image file")

// Classifier is the black-box classification contract the pipeline consumes.
type Classifier interface {
	Classify(imageBytes []byte) (classifier.Result, error)
}

// AuditSink persists raw upload artifacts, best effort.
type AuditSink interface {
	Save(ts time.Time, image, metadata []byte) (artifacts.Saved, error)
}

// UploadRequest is the transient per-request input. It is constructed from
// the HTTP layer and discarded once the response is produced.
type UploadRequest struct {
	Image    []byte
	Metadata []byte // raw metadata part, nil when absent
	Form     metadata.FormFields
}

// UploadResult is the outcome of a fully processed upload.
type UploadResult struct {
	Reconciled     metadata.Reconciled
	Classification classifier.Result
	Verdict        triage.Verdict
	Artifacts      artifacts.Saved
	ReportID       *uint // nil when the verdict discarded the classification
}

// Pipeline composes the pipeline stages. Construct once at startup and share
// across requests.
type Pipeline struct {
	settings   *conf.Settings
	classifier Classifier
	store      datastore.Interface
	sink       AuditSink
	engine     *triage.Engine
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New wires a Pipeline from its collaborators. metrics may be nil.
func New(settings *conf.Settings, cls Classifier, store datastore.Interface, sink AuditSink, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		settings:   settings,
		classifier: cls,
		store:      store,
		sink:       sink,
		engine:     triage.New(settings.Triage.Threshold, settings.Triage.PriorityScale),
		metrics:    metrics,
		logger:     logging.ForService("pipeline"),
	}
}

// ProcessUpload runs one request through the pipeline. Validation failures
// surface as sentinel errors the HTTP layer maps to client errors; storage
// failures surface as enhanced errors mapped to server errors.
//
// Cheap validation runs before inference so a request missing coordinates
// never pays for a forward pass.
func (p *Pipeline) ProcessUpload(req *UploadRequest) (*UploadResult, error) {
	if p.metrics != nil {
		p.metrics.UploadsReceived.Inc()
	}

	if len(req.Image) == 0 {
		return nil, errors.New(ErrMissingImage).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}

	embedded := metadata.ParseEmbedded(req.Metadata)
	reconciled, err := metadata.Reconcile(&req.Form, embedded)
	if err != nil {
		p.countFailure("reconcile")
		return nil, err
	}

	classification, err := p.classifier.Classify(req.Image)
	if err != nil {
		p.countFailure("classify")
		return nil, err
	}

	verdict := p.engine.Triage(classification.Label, classification.Confidence)

	result := &UploadResult{
		Reconciled:     reconciled,
		Classification: classification,
		Verdict:        verdict,
	}

	// Audit artifacts are written after the triage decision; a failed write
	// is logged and the request still succeeds.
	result.Artifacts = p.saveArtifacts(req)

	if verdict.Discarded {
		if p.metrics != nil {
			p.metrics.UploadsDiscarded.Inc()
		}
		p.logger.Info("Classification discarded",
			"label", classification.Label,
			"confidence", classification.Confidence,
			"threshold", p.engine.Threshold())
		return result, nil
	}

	report := &datastore.Report{
		Category:  string(verdict.Category),
		WhatIsIt:  classification.Label,
		Latitude:  reconciled.Latitude,
		Longitude: reconciled.Longitude,
		Timestamp: reconciled.Timestamp,
		Priority:  verdict.Priority,
	}
	if err := p.store.Save(report); err != nil {
		p.countFailure("persist")
		return nil, fmt.Errorf("saving report: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ReportsSaved.Inc()
	}
	p.logger.Info("Report saved",
		"report_id", report.ID,
		"label", classification.Label,
		"confidence", classification.Confidence,
		"priority", verdict.Priority)

	result.ReportID = &report.ID
	return result, nil
}

func (p *Pipeline) saveArtifacts(req *UploadRequest) artifacts.Saved {
	if p.sink == nil {
		return artifacts.Saved{}
	}

	saved, err := p.sink.Save(time.Now(), req.Image, req.Metadata)
	if err != nil {
		p.countFailure("artifacts")
		p.logger.Warn("Failed to persist upload artifacts", "error", err)
	}
	return saved
}

func (p *Pipeline) countFailure(stage string) {
	if p.metrics != nil {
		p.metrics.StageFailures.WithLabelValues(stage).Inc()
	}
}
