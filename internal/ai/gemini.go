package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roomchat/internal/apperr"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiModel   = "gemini-2.0-flash"
)

// Gemini talks to the Google generateContent API.
type Gemini struct {
	apiKey string
	client *http.Client
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		apiKey: apiKey,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"inline_data,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if g.apiKey == "" {
		return nil, apperr.Provider("Gemini API key is not configured")
	}

	var parts []geminiPart
	if strings.TrimSpace(req.Text) != "" {
		parts = append(parts, geminiPart{Text: req.Text})
	}
	if mime, data, ok := splitDataURL(req.ImageDataURL); ok {
		part := geminiPart{}
		part.InlineData = &struct {
			MimeType string `json:"mime_type"`
			Data     string `json:"data"`
		}{MimeType: mime, Data: data}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		parts = append(parts, geminiPart{Text: "Describe the image."})
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{"role": "user", "parts": parts}},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not encode request", err)
	}

	baseURL := geminiBaseURL
	if req.ProxyURL != "" {
		baseURL = req.ProxyURL
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		baseURL, geminiModel, url.QueryEscape(g.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeProvider, "could not build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeProvider, "Gemini request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		return nil, apperr.Provider(fmt.Sprintf("Gemini error: %d. %s", resp.StatusCode, snippet))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.CodeProvider, "could not decode Gemini response", err)
	}

	var texts []string
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	if len(texts) == 0 {
		return &GenerateResponse{Text: "Empty Gemini response.", Model: geminiModel}, nil
	}
	return &GenerateResponse{Text: strings.Join(texts, "\n\n"), Model: geminiModel}, nil
}
