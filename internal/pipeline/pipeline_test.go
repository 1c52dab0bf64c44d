package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khacks/phototriage-go/internal/artifacts"
	"github.com/khacks/phototriage-go/internal/classifier"
	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/datastore"
	"github.com/khacks/phototriage-go/internal/metadata"
)

// fakeClassifier returns a fixed result and counts invocations.
type fakeClassifier struct {
	result classifier.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(imageBytes []byte) (classifier.Result, error) {
	f.calls++
	if f.err != nil {
		return classifier.Result{}, f.err
	}
	return f.result, nil
}

func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Triage.Threshold = 0.2
	settings.Triage.PriorityScale = 10
	return settings
}

func testStore(t *testing.T, settings *conf.Settings) datastore.Interface {
	t.Helper()
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testSink(t *testing.T) *artifacts.Sink {
	t.Helper()
	sink, err := artifacts.New(t.TempDir())
	require.NoError(t, err)
	return sink
}

func TestProcessUploadPersistsConfidentDetection(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.92}}

	p := New(settings, cls, store, testSink(t), nil)
	result, err := p.ProcessUpload(&UploadRequest{
		Image: []byte("image-bytes"),
		Form:  metadata.FormFields{Latitude: "40.0", Longitude: "-73.0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "detected", string(result.Verdict.Category))
	assert.Equal(t, 9, result.Verdict.Priority)
	assert.False(t, result.Verdict.Discarded)
	require.NotNil(t, result.ReportID)

	saved, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "pothole", saved.WhatIsIt)
	assert.InDelta(t, 40.0, saved.Latitude, 1e-9)
	assert.InDelta(t, -73.0, saved.Longitude, 1e-9)
	assert.Equal(t, 9, saved.Priority)
}

func TestProcessUploadDiscardsLowConfidence(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.05}}

	p := New(settings, cls, store, testSink(t), nil)
	result, err := p.ProcessUpload(&UploadRequest{
		Image: []byte("image-bytes"),
		Form:  metadata.FormFields{Latitude: "40.0", Longitude: "-73.0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "miscellaneous", string(result.Verdict.Category))
	assert.True(t, result.Verdict.Discarded)
	assert.Nil(t, result.ReportID)

	reports, err := store.GetRecent(10, 0)
	require.NoError(t, err)
	assert.Empty(t, reports, "discarded classifications must not be persisted")
}

func TestProcessUploadMissingImage(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.92}}

	p := New(settings, cls, store, testSink(t), nil)
	_, err := p.ProcessUpload(&UploadRequest{
		Form: metadata.FormFields{Latitude: "40.0", Longitude: "-73.0"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingImage)
	assert.Zero(t, cls.calls, "classifier must not run for a request without an image")
}

// A request without coordinates must fail before the expensive inference
// step runs.
func TestProcessUploadMissingCoordinatesSkipsInference(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.92}}

	p := New(settings, cls, store, testSink(t), nil)
	_, err := p.ProcessUpload(&UploadRequest{
		Image:    []byte("image-bytes"),
		Metadata: []byte(`{"timestamp": "2026-08-31T12:00:00Z"}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrMissingCoordinates)
	assert.Zero(t, cls.calls, "classifier must not run when coordinates are missing")

	reports, listErr := store.GetRecent(10, 0)
	require.NoError(t, listErr)
	assert.Empty(t, reports)
}

func TestProcessUploadClassifierFailure(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{err: classifier.ErrInvalidImage}

	p := New(settings, cls, store, testSink(t), nil)
	_, err := p.ProcessUpload(&UploadRequest{
		Image: []byte("not an image"),
		Form:  metadata.FormFields{Latitude: "40.0", Longitude: "-73.0"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, classifier.ErrInvalidImage)

	reports, listErr := store.GetRecent(10, 0)
	require.NoError(t, listErr)
	assert.Empty(t, reports)
}

// failingSink simulates an unavailable audit target.
type failingSink struct{}

func (failingSink) Save(ts time.Time, image, metadataBytes []byte) (artifacts.Saved, error) {
	return artifacts.Saved{}, os.ErrPermission
}

// A failing audit sink must not change the outcome of the request.
func TestProcessUploadFailingSinkDoesNotAbort(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.92}}

	p := New(settings, cls, store, failingSink{}, nil)
	result, err := p.ProcessUpload(&UploadRequest{
		Image: []byte("image-bytes"),
		Form:  metadata.FormFields{Latitude: "40.0", Longitude: "-73.0"},
	})
	require.NoError(t, err, "artifact failure must not abort the request")
	require.NotNil(t, result.ReportID)
}

// An absent audit sink behaves the same way.
func TestProcessUploadArtifactsAreBestEffort(t *testing.T) {
	settings := testSettings()
	settings.Uploads.Path = filepath.Join(t.TempDir(), "missing")
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.92}}

	// nil sink stands in for an unavailable audit target
	p := New(settings, cls, store, nil, nil)
	result, err := p.ProcessUpload(&UploadRequest{
		Image: []byte("image-bytes"),
		Form:  metadata.FormFields{Latitude: "40.0", Longitude: "-73.0"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.ReportID)
	assert.Empty(t, result.Artifacts.Image)
}

func TestProcessUploadFormDataEchoed(t *testing.T) {
	settings := testSettings()
	store := testStore(t, settings)
	cls := &fakeClassifier{result: classifier.Result{Label: "pothole", Confidence: 0.5}}

	p := New(settings, cls, store, testSink(t), nil)
	result, err := p.ProcessUpload(&UploadRequest{
		Image:    []byte("image-bytes"),
		Metadata: []byte(`{"latitude": 12.5, "longitude": 99.0}`),
		Form:     metadata.FormFields{Notes: "cracked pavement", Timestamp: "2026-08-31T12:00:00Z"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 12.5, result.Reconciled.Latitude, 1e-9)
	assert.InDelta(t, 99.0, result.Reconciled.Longitude, 1e-9)
	assert.Equal(t, "2026-08-31T12:00:00Z", result.Reconciled.Timestamp)
	require.NotNil(t, result.Reconciled.Notes)
	assert.Equal(t, "cracked pavement", *result.Reconciled.Notes)
	assert.NotEmpty(t, result.Artifacts.Image)
	assert.NotEmpty(t, result.Artifacts.Metadata)
}
