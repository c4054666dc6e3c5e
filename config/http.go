package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the console (e.g. "https://console.example.com").
	// Used for generating absolute URLs in external contexts.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// SSEKeepAlive is the interval between comment keep-alive frames on
	// browser-facing event streams. Zero disables keep-alives.
	SSEKeepAlive int `env:"HTTP_SSE_KEEPALIVE_SECONDS" envDefault:"15"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.SSEKeepAlive < 0 {
		h.SSEKeepAlive = 0
	}
}
