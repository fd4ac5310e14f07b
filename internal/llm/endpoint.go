package llm

import "os"

// Provider identifies which backend a resolved Endpoint talks to.
type Provider string

const (
	ProviderGemini           Provider = "gemini"
	ProviderOpenAICompatible Provider = "openai-compatible"
)

// Configuration keys read by ResolveEndpoint.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvBaseURL      = "LLM_BASE_URL"
	EnvModel        = "LLM_MODEL"
	EnvAPIKey       = "LLM_API_KEY"
)

// Defaults used when the corresponding configuration key is unset.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/"
	GeminiModel   = "gemini-2.0-flash"

	DefaultBaseURL = "http://localhost:8000/v1"
	DefaultModel   = "meta-llama/Meta-Llama-3-8B-Instruct"
	DefaultAPIKey  = "local-dev-key"
)

// Capabilities describes what the completion backend is declared to support.
type Capabilities struct {
	Vision          bool   `json:"vision"`
	FunctionCalling bool   `json:"functionCalling"`
	JSONOutput      bool   `json:"jsonOutput"`
	Family          string `json:"family"`
}

// FixedCapabilities is the capability descriptor attached to every endpoint.
// Family is "unknown" so no provider-specific validation applies.
var FixedCapabilities = Capabilities{
	Vision:          false,
	FunctionCalling: true,
	JSONOutput:      true,
	Family:          "unknown",
}

// Endpoint is a fully resolved completion endpoint.
type Endpoint struct {
	Provider     Provider
	BaseURL      string
	Model        string
	APIKey       string
	Capabilities Capabilities
}

// Env looks up a configuration value. An empty result means unset.
type Env func(key string) string

// OSEnv reads from the process environment.
func OSEnv() Env { return os.Getenv }

// MapEnv serves lookups from a fixed map.
func MapEnv(m map[string]string) Env {
	return func(key string) string { return m[key] }
}

// ResolveEndpoint picks the completion endpoint. A Gemini credential wins
// outright; otherwise base URL, model and key are each read independently and
// fall back to local development defaults.
func ResolveEndpoint(env Env) Endpoint {
	if env == nil {
		env = OSEnv()
	}

	if key := env(EnvGeminiAPIKey); key != "" {
		return Endpoint{
			Provider:     ProviderGemini,
			BaseURL:      GeminiBaseURL,
			Model:        GeminiModel,
			APIKey:       key,
			Capabilities: FixedCapabilities,
		}
	}

	return Endpoint{
		Provider:     ProviderOpenAICompatible,
		BaseURL:      valueOr(env(EnvBaseURL), DefaultBaseURL),
		Model:        valueOr(env(EnvModel), DefaultModel),
		APIKey:       valueOr(env(EnvAPIKey), DefaultAPIKey),
		Capabilities: FixedCapabilities,
	}
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
