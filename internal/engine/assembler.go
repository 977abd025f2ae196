package engine

import (
	"fmt"
	"strings"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
)

// BasePrompt is the static role statement opening every instruction bundle.
const BasePrompt = "Eres Quimera, un asistente de IA avanzado."

// InstructionBundle is the assembled system prompt for one turn, kept as
// discrete sections so callers can inspect what was included.
type InstructionBundle struct {
	Sections []string
}

// System renders the bundle as a single system prompt.
func (b InstructionBundle) System() string {
	return strings.Join(b.Sections, "\n\n")
}

// directiveInstructions maps each directive kind to one fixed instructional
// sentence. Kinds without an entry contribute nothing to the bundle.
var directiveInstructions = map[string]string{
	"tone:" + directive.EmotionJoy:      "El usuario está de buen humor. Acompaña su energía con un tono cercano y positivo.",
	"tone:" + directive.EmotionSadness:  "El usuario parece triste. Responde con calidez y delicadeza, sin frivolidad.",
	"tone:" + directive.EmotionAnger:    "El usuario está molesto. Prioriza la empatía: reconoce su malestar antes de proponer nada.",
	"tone:" + directive.EmotionFear:     "El usuario muestra preocupación. Transmite calma y seguridad en tu respuesta.",
	"tone:" + directive.EmotionSurprise: "El usuario está sorprendido. Aclara el contexto con una explicación directa.",
	"tone:" + directive.EmotionDisgust:  "El usuario muestra rechazo. Mantén un tono neutro y constructivo.",

	"tone:" + directive.LabelSarcasmOrComplaint: "El usuario muestra frustración o sarcasmo. Responde con empatía, reconoce el problema y ofrece soluciones concretas.",

	"intent:" + directive.IntentGreeting:   "El usuario está saludando o charlando. Responde de forma breve, cercana y natural.",
	"intent:" + directive.IntentTechnical:  "El usuario hace una pregunta técnica o conceptual. Responde de forma estructurada y precisa.",
	"intent:" + directive.IntentBrainstorm: "El usuario pide ideas o sugerencias. Sé generativo: propone varias opciones distintas.",
	"intent:" + directive.IntentComplaint:  "El usuario expresa una queja o frustración. Muestra empatía primero y luego ofrece soluciones.",
	"intent:" + directive.IntentJoke:       "El usuario está bromeando. Sigue el tono humorístico sin perder utilidad.",
}

// Assemble builds the instruction bundle for one turn. The section order is
// fixed: base role statement, directive instruction, session summary,
// semantic hits, relational narrative, capability manifest. Absent sections
// are omitted outright, never replaced with a placeholder.
func Assemble(syn *Synthesis, capabilities []string) InstructionBundle {
	bundle := InstructionBundle{Sections: []string{BasePrompt}}

	if instruction, ok := directiveInstructions[syn.Directive.Kind()]; ok && !syn.Directive.IsNone() {
		bundle.Sections = append(bundle.Sections, instruction)
	}

	if syn.Summary != "" {
		bundle.Sections = append(bundle.Sections,
			"Resumen de la sesión hasta ahora:\n"+syn.Summary)
	}

	if len(syn.Semantic) > 0 {
		var sb strings.Builder
		sb.WriteString("Recuerdos relevantes de conversaciones anteriores:")
		for _, hit := range syn.Semantic {
			sb.WriteString(fmt.Sprintf("\n- %s", hit.Text))
		}
		bundle.Sections = append(bundle.Sections, sb.String())
	}

	if len(syn.Relational) > 0 {
		var sb strings.Builder
		sb.WriteString("Fragmento de la conversación en torno a ese recuerdo:")
		for _, turn := range syn.Relational {
			sb.WriteString(fmt.Sprintf("\n%s: %s", speakerLabel(turn.Role), turn.Text))
		}
		bundle.Sections = append(bundle.Sections, sb.String())
	}

	if len(capabilities) > 0 {
		bundle.Sections = append(bundle.Sections,
			"Herramientas disponibles:\n"+strings.Join(capabilities, "\n"))
	}

	return bundle
}

func speakerLabel(role memory.Role) string {
	if role == memory.RoleAssistant {
		return "Quimera"
	}
	return "Usuario"
}
