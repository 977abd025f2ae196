package observability

import "github.com/SRdeMora/quimera/internal/types"

// Observability error codes
const (
	ErrCodeTracerInitFailed   types.ErrorCode = "TRACER_INIT_FAILED"
	ErrCodeExporterConnection types.ErrorCode = "EXPORTER_CONNECTION_FAILED"
	ErrCodeMetricsInitFailed  types.ErrorCode = "METRICS_INIT_FAILED"
	ErrCodeShutdownTimeout    types.ErrorCode = "OBSERVABILITY_SHUTDOWN_TIMEOUT"
)

// NewObservabilityError creates an observability error with the given code.
func NewObservabilityError(code types.ErrorCode, message string) *types.QuimeraError {
	return types.NewError(code, message)
}

// WrapObservabilityError wraps a cause with an observability error code.
func WrapObservabilityError(code types.ErrorCode, message string, cause error) *types.QuimeraError {
	return types.WrapError(code, message, cause)
}
