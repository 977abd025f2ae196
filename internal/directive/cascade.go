package directive

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cascade is the full two-stage inference pipeline. The heuristic stage runs
// first and may short-circuit; otherwise the three scorers fan out
// concurrently and their verdicts are fused by the fixed priority policy.
type Cascade struct {
	heuristics *Heuristics
	emotion    EmotionScorer
	polarity   PolarityScorer
	intent     IntentScorer
	thresholds Thresholds
	candidates []string
	timeout    time.Duration
	logger     *slog.Logger
}

// CascadeOption configures a Cascade.
type CascadeOption func(*Cascade)

// WithLogger sets the logger used for degraded-scorer reporting.
func WithLogger(logger *slog.Logger) CascadeOption {
	return func(c *Cascade) {
		c.logger = logger
	}
}

// WithThresholds overrides the fusion thresholds.
func WithThresholds(th Thresholds) CascadeOption {
	return func(c *Cascade) {
		c.thresholds = th
	}
}

// WithIntentCandidates overrides the zero-shot candidate label list.
func WithIntentCandidates(candidates []string) CascadeOption {
	return func(c *Cascade) {
		c.candidates = candidates
	}
}

// WithScorerTimeout bounds each scorer invocation. Zero disables the
// per-scorer bound and leaves only the caller's deadline.
func WithScorerTimeout(d time.Duration) CascadeOption {
	return func(c *Cascade) {
		c.timeout = d
	}
}

// NewCascade creates a Cascade over the three scorers.
func NewCascade(emotion EmotionScorer, polarity PolarityScorer, intent IntentScorer, opts ...CascadeOption) *Cascade {
	c := &Cascade{
		heuristics: NewHeuristics(),
		emotion:    emotion,
		polarity:   polarity,
		intent:     intent,
		thresholds: DefaultThresholds(),
		candidates: DefaultIntentCandidates,
		timeout:    2 * time.Second,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "directive-cascade")
	return c
}

// Infer produces the directive for one turn of input. It never returns an
// error: scorer failures and timeouts degrade to absent verdicts, and the
// worst case result is the none directive.
func (c *Cascade) Infer(ctx context.Context, text string) Directive {
	if d, ok := c.heuristics.Infer(text); ok {
		c.logger.Debug("heuristic stage short-circuited", "kind", d.Kind())
		return d
	}

	emotion, polarity, intent := c.runEnsemble(ctx, text)
	d := Fuse(emotion, polarity, intent, c.thresholds)
	c.logger.Debug("ensemble stage fused", "kind", d.Kind(), "confidence", d.Confidence)
	return d
}

// runEnsemble fans out the three scorers concurrently. No scorer may block
// the others; each runs in its own goroutine under a shared deadline and a
// failed or timed-out scorer yields a nil verdict.
func (c *Cascade) runEnsemble(ctx context.Context, text string) (emotion, polarity, intent *Score) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		emotion = c.score(ctx, "emotion", func() (Score, error) {
			return c.emotion.ScoreEmotion(ctx, text)
		})
	}()

	go func() {
		defer wg.Done()
		polarity = c.score(ctx, "polarity", func() (Score, error) {
			return c.polarity.ScorePolarity(ctx, text)
		})
	}()

	go func() {
		defer wg.Done()
		intent = c.score(ctx, "intent", func() (Score, error) {
			return c.intent.ScoreIntent(ctx, text, c.candidates)
		})
	}()

	wg.Wait()
	return emotion, polarity, intent
}

func (c *Cascade) score(ctx context.Context, name string, fn func() (Score, error)) *Score {
	s, err := fn()
	if err != nil {
		c.logger.Warn("scorer degraded, treating verdict as absent",
			"scorer", name, "error", err)
		return nil
	}
	if err := ctx.Err(); err != nil {
		c.logger.Warn("scorer missed the deadline, treating verdict as absent",
			"scorer", name, "error", err)
		return nil
	}
	return &s
}
