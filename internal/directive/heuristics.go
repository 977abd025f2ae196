package directive

import (
	"regexp"
	"strings"
)

// The heuristic stage catches unambiguous surface signals without touching
// any model. A rule that fires returns a certainty-1 directive and
// short-circuits the cascade.

var (
	// Laughter markers: jajaja, jejeje, hahaha, lol, xd, plus emoji.
	laughterRe = regexp.MustCompile(`(?i)\b(?:ja|je|ha){2,}\b|\blol\b|\bxd+\b|😂|🤣`)

	// Standalone greetings. Matched against the whole trimmed input only, so
	// a greeting opening a longer question never short-circuits.
	greetingRe = regexp.MustCompile(`(?i)^(hola|buenas|buenos días|buenas tardes|buenas noches|hey|hello|qué tal|que tal)[!.\s]*$`)
)

// Heuristics is the deterministic first stage of the cascade.
type Heuristics struct{}

// NewHeuristics creates the heuristic stage.
func NewHeuristics() *Heuristics {
	return &Heuristics{}
}

// Infer applies the pattern rules in order. ok=false means the stage is
// inconclusive and the ensemble must run.
func (h *Heuristics) Infer(text string) (Directive, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		// Nothing to classify; certainty-none without running the ensemble.
		return None(), true
	}

	if laughterRe.MatchString(trimmed) {
		return Intent(IntentJoke, 1.0, StageHeuristic), true
	}

	if greetingRe.MatchString(trimmed) {
		return Intent(IntentGreeting, 1.0, StageHeuristic), true
	}

	// Very short input with no interrogative punctuation carries too little
	// signal for the ensemble to be worth its cost.
	if len(strings.Fields(trimmed)) <= 2 && !strings.ContainsAny(trimmed, "?¿") {
		return None(), true
	}

	return None(), false
}
