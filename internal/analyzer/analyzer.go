package analyzer

import (
	"context"
	"fmt"

	"github.com/xaenox/cartcheck-bot/internal/models"
)

// Analyzer turns a cart photo plus the user's profile context into a
// CartReport.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, goals, restrictions []string) (*models.CartReport, error)
}

// ErrorKind says which way an analysis failed.
type ErrorKind string

const (
	// MalformedResponse means the vision provider answered, but not in
	// the expected structure.
	MalformedResponse ErrorKind = "malformed_response"

	// ProviderUnavailable covers network, timeout and quota failures.
	ProviderUnavailable ErrorKind = "provider_unavailable"
)

// AnalysisError is the only error type Analyze returns. Callers branch
// on Kind via errors.As.
type AnalysisError struct {
	Kind ErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("cart analysis failed (%s): %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
