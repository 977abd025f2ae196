package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/types"
)

func TestAssemble_BaseOnly(t *testing.T) {
	bundle := Assemble(&Synthesis{Directive: directive.None()}, nil)

	require.Len(t, bundle.Sections, 1)
	assert.Equal(t, BasePrompt, bundle.System())
}

func TestAssemble_FixedSectionOrder(t *testing.T) {
	syn := &Synthesis{
		Directive: directive.Tone(directive.EmotionAnger, 0.8, directive.StageEnsemble),
		Summary:   "el usuario monta un invernadero",
		Semantic: []memory.MemoryRecord{
			{TurnID: types.NewID(), Text: "hablamos de sensores de humedad", Similarity: 0.9},
			{TurnID: types.NewID(), Text: "hablamos de riego por goteo", Similarity: 0.7},
		},
		Relational: []graph.ChainTurn{
			{Role: memory.RoleUser, Text: "qué sensor me recomiendas"},
			{Role: memory.RoleAssistant, Text: "uno capacitivo, aguanta mejor"},
		},
	}

	bundle := Assemble(syn, []string{"buscar_web: busca en internet"})
	require.Len(t, bundle.Sections, 6)

	assert.Equal(t, BasePrompt, bundle.Sections[0])
	assert.Contains(t, bundle.Sections[1], "empatía")
	assert.Contains(t, bundle.Sections[2], "invernadero")
	assert.Contains(t, bundle.Sections[3], "sensores de humedad")
	assert.Contains(t, bundle.Sections[4], "Usuario: qué sensor me recomiendas")
	assert.Contains(t, bundle.Sections[4], "Quimera: uno capacitivo")
	assert.Contains(t, bundle.Sections[5], "buscar_web")
}

func TestAssemble_AbsentSectionsOmitted(t *testing.T) {
	syn := &Synthesis{
		Directive: directive.None(),
		Semantic: []memory.MemoryRecord{
			{TurnID: types.NewID(), Text: "un recuerdo", Similarity: 0.8},
		},
	}

	bundle := Assemble(syn, nil)
	require.Len(t, bundle.Sections, 2)

	// No placeholders for the absent sections.
	system := bundle.System()
	assert.NotContains(t, system, "Resumen")
	assert.NotContains(t, system, "Fragmento")
	assert.NotContains(t, system, "Herramientas")
}

func TestAssemble_DirectiveTranslations(t *testing.T) {
	tests := []struct {
		name      string
		d         directive.Directive
		wantWords string
	}{
		{
			name:      "anger tone",
			d:         directive.Tone(directive.EmotionAnger, 0.8, directive.StageEnsemble),
			wantWords: "empatía",
		},
		{
			name:      "sarcasm tone",
			d:         directive.Tone(directive.LabelSarcasmOrComplaint, 0.95, directive.StageEnsemble),
			wantWords: "frustración",
		},
		{
			name:      "joke intent",
			d:         directive.Intent(directive.IntentJoke, 1.0, directive.StageHeuristic),
			wantWords: "humorístico",
		},
		{
			name:      "technical intent",
			d:         directive.Intent(directive.IntentTechnical, 0.8, directive.StageEnsemble),
			wantWords: "estructurada",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := Assemble(&Synthesis{Directive: tt.d}, nil)
			require.Len(t, bundle.Sections, 2)
			assert.Contains(t, strings.ToLower(bundle.Sections[1]), tt.wantWords)
		})
	}
}

func TestAssemble_UnknownDirectiveKindContributesNothing(t *testing.T) {
	bundle := Assemble(&Synthesis{
		Directive: directive.Tone("euforia", 0.9, directive.StageEnsemble),
	}, nil)

	require.Len(t, bundle.Sections, 1)
}

func TestAssemble_SemanticHitsKeepSimilarityOrder(t *testing.T) {
	syn := &Synthesis{
		Directive: directive.None(),
		Semantic: []memory.MemoryRecord{
			{TurnID: types.NewID(), Text: "primero", Similarity: 0.95},
			{TurnID: types.NewID(), Text: "segundo", Similarity: 0.80},
			{TurnID: types.NewID(), Text: "tercero", Similarity: 0.65},
		},
	}

	bundle := Assemble(syn, nil)
	section := bundle.Sections[1]

	assert.Less(t, strings.Index(section, "primero"), strings.Index(section, "segundo"))
	assert.Less(t, strings.Index(section, "segundo"), strings.Index(section, "tercero"))
}
