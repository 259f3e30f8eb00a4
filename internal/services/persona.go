// internal/services/persona.go
package services

import (
	"github.com/Corphon/SceneWriter/internal/models"
)

// Fixed request parameters of an assist call.
const (
	AssistModel     = "gpt-4o-mini"
	AssistMaxTokens = 600
)

// Persona is the system prompt and sampling temperature for a mode.
type Persona struct {
	Mode         string  `json:"mode"`
	SystemPrompt string  `json:"system_prompt"`
	Temperature  float32 `json:"temperature"`
}

var (
	professionalPersona = Persona{
		Mode:         models.ModeProfessional,
		SystemPrompt: "You are an experienced screenplay consultant. Reply in a clear, structured screenplay style.",
		Temperature:  0.5,
	}
	creativePersona = Persona{
		Mode:         models.ModeCreative,
		SystemPrompt: "You are CineMate, a creative screenwriting partner. Reply with imaginative ideas and cinematic flair.",
		Temperature:  0.9,
	}
)

// PersonaFor returns the professional persona for "professional" and the
// creative one for anything else.
func PersonaFor(mode string) Persona {
	if mode == models.ModeProfessional {
		return professionalPersona
	}
	return creativePersona
}

// Personas lists the selectable personas.
func Personas() []Persona {
	return []Persona{creativePersona, professionalPersona}
}
