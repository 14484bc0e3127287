// Package ai holds the provider connectors and the orchestration that turns
// a prompt into a stored conversation exchange. Connectors are opaque
// request/response collaborators: the messaging core persists the prompt
// before calling one and persists whatever comes back, including errors.
package ai

import (
	"context"
	"net/url"
	"strings"

	"roomchat/internal/apperr"
)

// GenerateRequest is the input to a provider connector.
type GenerateRequest struct {
	Text         string
	ImageDataURL string
	ProxyURL     string
}

// GenerateResponse is the provider's reply. Model identifies which model
// actually served the request, when the provider reports it.
type GenerateResponse struct {
	Text  string
	Model string
}

// Generator is one AI provider connector.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// NormalizeProxyURL validates an optional per-request base-URL override.
// Returns "" for empty input.
func NormalizeProxyURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if len(raw) > 300 {
		return "", apperr.InvalidArg("proxy URL is too long")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", apperr.InvalidArg("invalid proxy URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", apperr.InvalidArg("proxy URL must be http or https")
	}
	if parsed.Host == "" {
		return "", apperr.InvalidArg("invalid proxy URL")
	}
	return parsed.Scheme + "://" + parsed.Host + strings.TrimRight(parsed.Path, "/"), nil
}

// splitDataURL returns the mime type and base64 payload of a data URL, or
// ok=false when it is not one.
func splitDataURL(dataURL string) (mime, data string, ok bool) {
	rest, found := strings.CutPrefix(dataURL, "data:")
	if !found {
		return "", "", false
	}
	mime, data, found = strings.Cut(rest, ";base64,")
	if !found || mime == "" || data == "" {
		return "", "", false
	}
	return mime, data, true
}
