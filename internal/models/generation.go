package models

// GenerationResponse is the strict JSON shape the generation provider must
// return: the reply text, plus any new vocabulary it introduced. Decoded
// with unknown fields rejected so a provider that drifts from the schema
// fails loudly as a ProviderError instead of silently dropping data.
type GenerationResponse struct {
	Response        string          `json:"response"`
	LearnedMaterial LearnedMaterial `json:"learned_material"`
}

// LearnedMaterial is the nested vocab-declaration object in a GenerationResponse.
type LearnedMaterial struct {
	Vocab []string `json:"vocab"`
}
