package directive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LLM-backed scorers. Each classifier is a single structured completion
// against a chat model: the prompt pins the label set and the response is a
// small JSON object with the best label and its confidence. Parsing is
// tolerant of code fences and prose around the JSON payload.

const emotionPromptTemplate = `Analiza la emoción dominante del siguiente texto.
Responde SOLO con un objeto JSON: {"label": "<etiqueta>", "confidence": <0.0-1.0>}.
Etiquetas permitidas: %s.
Texto: %q`

const polarityPromptTemplate = `Clasifica la polaridad del siguiente texto como NEG, NEU o POS.
Responde SOLO con un objeto JSON: {"label": "<NEG|NEU|POS>", "confidence": <0.0-1.0>}.
Texto: %q`

const intentPromptTemplate = `Clasifica la intención del siguiente texto eligiendo exactamente una de las candidatas.
Responde SOLO con un objeto JSON: {"label": "<candidata>", "confidence": <0.0-1.0>}.
Candidatas: %s.
Texto: %q`

// LLMScorer implements all three scorer contracts over one chat model.
type LLMScorer struct {
	model llms.Model
}

// NewLLMScorer creates a scorer over the given langchaingo model.
func NewLLMScorer(model llms.Model) *LLMScorer {
	return &LLMScorer{model: model}
}

// ScoreEmotion classifies the dominant emotion against the fixed label set.
func (s *LLMScorer) ScoreEmotion(ctx context.Context, text string) (Score, error) {
	prompt := fmt.Sprintf(emotionPromptTemplate, strings.Join(EmotionLabels, ", "), text)
	return s.complete(ctx, prompt, EmotionLabels)
}

// ScorePolarity classifies polarity as NEG, NEU, or POS.
func (s *LLMScorer) ScorePolarity(ctx context.Context, text string) (Score, error) {
	prompt := fmt.Sprintf(polarityPromptTemplate, text)
	return s.complete(ctx, prompt, []string{PolarityNegative, PolarityNeutral, PolarityPositive})
}

// ScoreIntent ranks the candidate labels zero-shot and returns the best one.
func (s *LLMScorer) ScoreIntent(ctx context.Context, text string, candidates []string) (Score, error) {
	if len(candidates) == 0 {
		candidates = DefaultIntentCandidates
	}
	prompt := fmt.Sprintf(intentPromptTemplate, strings.Join(candidates, "; "), text)
	return s.complete(ctx, prompt, candidates)
}

func (s *LLMScorer) complete(ctx context.Context, prompt string, allowed []string) (Score, error) {
	raw, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(0),
		llms.WithMaxTokens(64),
	)
	if err != nil {
		return Score{}, NewScorerError("completion failed", err)
	}

	score, err := parseScore(raw)
	if err != nil {
		return Score{}, err
	}

	if !labelAllowed(score.Label, allowed) {
		return Score{}, NewScorerBadResponseError(
			fmt.Sprintf("label %q is not in the allowed set", score.Label), nil)
	}

	return score, nil
}

// parseScore extracts the JSON verdict from a model response that may wrap
// it in code fences or surrounding prose.
func parseScore(raw string) (Score, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Score{}, NewScorerBadResponseError("no JSON object in response", nil)
	}

	var score Score
	if err := json.Unmarshal([]byte(raw[start:end+1]), &score); err != nil {
		return Score{}, NewScorerBadResponseError("failed to parse verdict JSON", err)
	}

	if score.Label == "" {
		return Score{}, NewScorerBadResponseError("verdict has no label", nil)
	}
	if score.Confidence < 0 || score.Confidence > 1 {
		return Score{}, NewScorerBadResponseError(
			fmt.Sprintf("confidence %.3f outside [0,1]", score.Confidence), nil)
	}

	return score, nil
}

func labelAllowed(label string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(label, a) {
			return true
		}
	}
	return false
}
