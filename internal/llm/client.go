package llm

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxResponseLogBytes is the max length of a provider response body to log in full (to avoid huge logs).
const maxResponseLogBytes = 8192

// TextOptions are the per-variant knobs of a chat-completion provider.
type TextOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Image is a generated image. Providers that host the result set URL; providers
// that return the bytes inline set Data and leave URL empty.
type Image struct {
	URL      string
	Data     []byte
	MimeType string // e.g. "image/png"
	Model    string
}

// httpClientForEndpoint returns an http.Client that rewrites request URLs to the given base endpoint (e.g. http://host.docker.internal:31300/gemini).
func httpClientForEndpoint(baseEndpoint string) *http.Client {
	base, err := url.Parse(baseEndpoint)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", baseEndpoint).Msg("Invalid GEMINI_API_ENDPOINT, using default")
		return nil
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	return &http.Client{
		Transport: &endpointRoundTripper{base: base, next: http.DefaultTransport},
	}
}

// endpointRoundTripper rewrites request URLs to a custom base (scheme, host, path prefix).
type endpointRoundTripper struct {
	base *url.URL
	next http.RoundTripper
}

func (e *endpointRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.URL.Scheme = e.base.Scheme
	req2.URL.Host = e.base.Host
	req2.URL.Path = path.Join(e.base.Path, strings.TrimPrefix(req.URL.Path, "/"))
	if req.URL.RawQuery != "" {
		req2.URL.RawQuery = req.URL.RawQuery
	}
	return e.next.RoundTrip(req2)
}

// logResponse logs provider response text at debug level, truncating if over maxResponseLogBytes.
func logResponse(caller, model, raw string) {
	if len(raw) <= maxResponseLogBytes {
		log.Debug().Str("caller", caller).Str("model", model).Str("response", raw).Msg("Provider response")
		return
	}
	log.Debug().
		Str("caller", caller).
		Str("model", model).
		Str("response", raw[:maxResponseLogBytes]+"... [truncated]").
		Int("response_len", len(raw)).
		Msg("Provider response")
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
