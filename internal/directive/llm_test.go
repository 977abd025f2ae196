package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Score
		wantErr bool
	}{
		{
			name: "bare JSON",
			raw:  `{"label": "ira", "confidence": 0.82}`,
			want: Score{Label: "ira", Confidence: 0.82},
		},
		{
			name: "fenced JSON",
			raw:  "```json\n{\"label\": \"NEG\", \"confidence\": 0.95}\n```",
			want: Score{Label: "NEG", Confidence: 0.95},
		},
		{
			name: "JSON surrounded by prose",
			raw:  `Claro, aquí está el resultado: {"label": "alegría", "confidence": 0.7} espero que sirva.`,
			want: Score{Label: "alegría", Confidence: 0.7},
		},
		{
			name:    "no JSON at all",
			raw:     "no puedo clasificar eso",
			wantErr: true,
		},
		{
			name:    "missing label",
			raw:     `{"confidence": 0.9}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			raw:     `{"label": "ira", "confidence": 1.4}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabelAllowed(t *testing.T) {
	assert.True(t, labelAllowed("ira", EmotionLabels))
	assert.True(t, labelAllowed("IRA", EmotionLabels))
	assert.False(t, labelAllowed("éxtasis", EmotionLabels))
}
