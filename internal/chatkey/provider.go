package chatkey

// Provider is the AI provider component of an ai conversation key.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// CoerceProvider maps a wire-level target onto a known provider. Anything
// unrecognized falls back to OpenAI, matching what clients expect when they
// omit the target.
func CoerceProvider(s string) Provider {
	if Provider(s) == ProviderGemini {
		return ProviderGemini
	}
	return ProviderOpenAI
}
