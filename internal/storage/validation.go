// Package storage provides the optional staging stores for banded loan
// applications. Both implementations honor the same contract: an upload
// replaces whatever was staged before, and a load returns exactly what a
// fresh in-process derivation would have produced.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fenwick/hindsight/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidApplication = errors.New("invalid application")
)

// stagingTable is the single staging table shared by both stores.
const stagingTable = "loan_data"

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateApplications validates a slice of banded applications before upload.
func validateApplications(apps []model.BandedApplication) error {
	if apps == nil {
		return fmt.Errorf("%w: applications", ErrNilParameter)
	}
	if len(apps) == 0 {
		return fmt.Errorf("%w: applications", ErrEmptySlice)
	}

	for i := range apps {
		if err := validateApplication(&apps[i]); err != nil {
			return fmt.Errorf("application at index %d: %w", i, err)
		}
	}
	return nil
}

// validateApplication validates a single banded application. It is applied on
// the way in before an upload and on the way out after a load, so a row a
// foreign writer corrupted in place never reaches the pipeline.
func validateApplication(app *model.BandedApplication) error {
	if app == nil {
		return fmt.Errorf("%w: application", ErrNilParameter)
	}
	if app.ApplicationID == "" {
		return fmt.Errorf("%w: missing application id", ErrInvalidApplication)
	}
	if err := app.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidApplication, err)
	}
	if !app.Bands.Valid() {
		return fmt.Errorf("%w: unknown band values", ErrInvalidApplication)
	}
	return nil
}
