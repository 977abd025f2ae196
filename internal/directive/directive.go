// Package directive turns raw user input into a single behavioral directive
// through a two-stage cascade: a cheap deterministic heuristic stage that can
// short-circuit, and a classifier ensemble stage fused by a fixed priority
// policy. Inference never fails a request; the worst case is a none directive.
package directive

import "fmt"

// Stage identifies which cascade stage produced a directive.
type Stage string

const (
	StageHeuristic Stage = "heuristic"
	StageEnsemble  Stage = "ensemble"
	StageCarryover Stage = "carryover"
	StageNone      Stage = "none"
)

// Type is the directive discriminator.
type Type string

const (
	TypeNone   Type = "none"
	TypeTone   Type = "tone"
	TypeIntent Type = "intent"
)

// Emotion labels produced by the emotion scorer. The label set is fixed;
// scorers must return one of these.
const (
	EmotionJoy      = "alegría"
	EmotionSadness  = "tristeza"
	EmotionAnger    = "ira"
	EmotionFear     = "miedo"
	EmotionSurprise = "sorpresa"
	EmotionDisgust  = "disgusto"
)

// EmotionLabels is the fixed label set for the emotion scorer.
var EmotionLabels = []string{
	EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear, EmotionSurprise, EmotionDisgust,
}

// Polarity labels produced by the polarity scorer.
const (
	PolarityNegative = "NEG"
	PolarityNeutral  = "NEU"
	PolarityPositive = "POS"
)

// Intent candidate labels for the zero-shot intent scorer.
const (
	IntentGreeting   = "saludo o conversación casual"
	IntentTechnical  = "pregunta conceptual o técnica"
	IntentBrainstorm = "petición de brainstorming o sugerencias"
	IntentComplaint  = "queja o frustración"
	IntentJoke       = "broma o comentario humorístico"
)

// DefaultIntentCandidates is the default candidate list handed to the
// zero-shot intent scorer on every call.
var DefaultIntentCandidates = []string{
	IntentGreeting, IntentTechnical, IntentBrainstorm, IntentComplaint, IntentJoke,
}

// LabelSarcasmOrComplaint is the tone label emitted when strong negative
// polarity wins the fusion, without a dominant named emotion.
const LabelSarcasmOrComplaint = "sarcasm_or_complaint"

// Directive is the single fused behavioral signal steering instruction
// generation for one turn.
type Directive struct {
	Type        Type    `json:"type"`
	Label       string  `json:"label,omitempty"`
	Confidence  float64 `json:"confidence"`
	SourceStage Stage   `json:"source_stage"`
}

// None returns the absent directive.
func None() Directive {
	return Directive{Type: TypeNone, SourceStage: StageNone}
}

// Tone builds a tone directive.
func Tone(label string, confidence float64, stage Stage) Directive {
	return Directive{Type: TypeTone, Label: label, Confidence: confidence, SourceStage: stage}
}

// Intent builds an intent directive.
func Intent(label string, confidence float64, stage Stage) Directive {
	return Directive{Type: TypeIntent, Label: label, Confidence: confidence, SourceStage: stage}
}

// IsNone reports whether the directive carries no signal.
func (d Directive) IsNone() bool {
	return d.Type == TypeNone || d.Type == ""
}

// Kind returns the canonical kind string: "tone:<label>", "intent:<label>",
// or "none". Kind strings are the keys of the instruction translation table.
func (d Directive) Kind() string {
	if d.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", d.Type, d.Label)
}

// WithStage returns a copy of the directive tagged with the given stage.
func (d Directive) WithStage(stage Stage) Directive {
	d.SourceStage = stage
	return d
}
