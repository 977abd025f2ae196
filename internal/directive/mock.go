package directive

import (
	"context"
	"sync"
	"time"
)

// MockScorer is a configurable scorer for testing. It implements all three
// scorer contracts, records calls, and supports error injection and
// artificial latency for deadline tests.
type MockScorer struct {
	mu sync.Mutex

	emotionScore  Score
	polarityScore Score
	intentScore   Score

	emotionErr  error
	polarityErr error
	intentErr   error

	delay time.Duration
	calls []string
}

// NewMockScorer creates a mock scorer with neutral low-confidence verdicts.
func NewMockScorer() *MockScorer {
	return &MockScorer{
		emotionScore:  Score{Label: EmotionJoy, Confidence: 0.1},
		polarityScore: Score{Label: PolarityNeutral, Confidence: 0.1},
		intentScore:   Score{Label: IntentGreeting, Confidence: 0.1},
	}
}

// SetEmotion configures the emotion verdict.
func (m *MockScorer) SetEmotion(label string, confidence float64) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emotionScore = Score{Label: label, Confidence: confidence}
	return m
}

// SetPolarity configures the polarity verdict.
func (m *MockScorer) SetPolarity(label string, confidence float64) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polarityScore = Score{Label: label, Confidence: confidence}
	return m
}

// SetIntent configures the intent verdict.
func (m *MockScorer) SetIntent(label string, confidence float64) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intentScore = Score{Label: label, Confidence: confidence}
	return m
}

// FailEmotion makes the emotion scorer return the given error.
func (m *MockScorer) FailEmotion(err error) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emotionErr = err
	return m
}

// FailPolarity makes the polarity scorer return the given error.
func (m *MockScorer) FailPolarity(err error) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polarityErr = err
	return m
}

// FailIntent makes the intent scorer return the given error.
func (m *MockScorer) FailIntent(err error) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intentErr = err
	return m
}

// SetDelay adds artificial latency to every scorer call.
func (m *MockScorer) SetDelay(d time.Duration) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Calls returns the recorded scorer invocations in order.
func (m *MockScorer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockScorer) invoke(ctx context.Context, name string, score Score, err error) (Score, error) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Score{}, ctx.Err()
		}
	}

	if err != nil {
		return Score{}, err
	}
	return score, nil
}

// ScoreEmotion implements EmotionScorer.
func (m *MockScorer) ScoreEmotion(ctx context.Context, text string) (Score, error) {
	m.mu.Lock()
	score, err := m.emotionScore, m.emotionErr
	m.mu.Unlock()
	return m.invoke(ctx, "emotion", score, err)
}

// ScorePolarity implements PolarityScorer.
func (m *MockScorer) ScorePolarity(ctx context.Context, text string) (Score, error) {
	m.mu.Lock()
	score, err := m.polarityScore, m.polarityErr
	m.mu.Unlock()
	return m.invoke(ctx, "polarity", score, err)
}

// ScoreIntent implements IntentScorer.
func (m *MockScorer) ScoreIntent(ctx context.Context, text string, candidates []string) (Score, error) {
	m.mu.Lock()
	score, err := m.intentScore, m.intentErr
	m.mu.Unlock()
	return m.invoke(ctx, "intent", score, err)
}
