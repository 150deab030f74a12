package model

import "github.com/rotisserie/eris"

// Pipeline error taxonomy. Every failure is fatal to the run: the tool either
// produces a map, a matrix, and an export submission, or it aborts at the
// failing stage with enough context to rerun.
var (
	// ErrConfiguration marks an unresolvable region name or malformed date
	// window, detected before any asset is touched.
	ErrConfiguration = eris.New("configuration error")

	// ErrAssetNotFound marks a missing or unreadable input asset.
	ErrAssetNotFound = eris.New("asset not found")

	// ErrInsufficientTrainingData marks an empty training table after
	// sampling, raised before the trainer is invoked.
	ErrInsufficientTrainingData = eris.New("insufficient training data")

	// ErrSchemaMismatch marks a band set at classification time that differs
	// from the band set the model was trained on.
	ErrSchemaMismatch = eris.New("band schema mismatch")

	// ErrExportSubmission marks a failure to enqueue the export job. It is
	// reported but does not roll back the rendered map or the matrix.
	ErrExportSubmission = eris.New("export submission failed")
)
