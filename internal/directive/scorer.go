package directive

import (
	"context"

	"github.com/SRdeMora/quimera/internal/types"
)

// Scorer error codes
const (
	ErrCodeScorerUnavailable types.ErrorCode = "SCORER_UNAVAILABLE"
	ErrCodeScorerFailed      types.ErrorCode = "SCORER_FAILED"
	ErrCodeScorerBadResponse types.ErrorCode = "SCORER_BAD_RESPONSE"
)

// Score is a single classifier verdict: the best label and its confidence.
// Confidences are comparable only within one scorer; the fusion policy never
// compares raw scores across scorers.
type Score struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// EmotionScorer scores text against the fixed emotion label set.
type EmotionScorer interface {
	ScoreEmotion(ctx context.Context, text string) (Score, error)
}

// PolarityScorer scores text as NEG, NEU, or POS.
type PolarityScorer interface {
	ScorePolarity(ctx context.Context, text string) (Score, error)
}

// IntentScorer ranks the candidate label list against the text zero-shot
// and returns the best candidate with its confidence.
type IntentScorer interface {
	ScoreIntent(ctx context.Context, text string, candidates []string) (Score, error)
}

// NewScorerError creates an error for a failed scorer invocation.
func NewScorerError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeScorerFailed, message, cause)
}

// NewScorerBadResponseError creates an error for an unparseable scorer response.
func NewScorerBadResponseError(message string, cause error) *types.QuimeraError {
	return types.WrapError(ErrCodeScorerBadResponse, message, cause)
}
