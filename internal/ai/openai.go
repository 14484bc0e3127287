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

const openAIBaseURL = "https://api.openai.com"

const openAISystemPrompt = "Use markdown formatting (headings, lists, code blocks) when it helps readability."

// OpenAI talks to the OpenAI Responses API.
type OpenAI struct {
	apiKey string
	model  string
	client *http.Client
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

type openAIContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type openAIInputItem struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIResponse struct {
	Model      string `json:"model"`
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (o *OpenAI) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if o.apiKey == "" {
		return nil, apperr.Provider("OpenAI API key is not configured")
	}

	content := []openAIContentPart{}
	if strings.TrimSpace(req.Text) != "" {
		content = append(content, openAIContentPart{Type: "input_text", Text: req.Text})
	}
	if req.ImageDataURL != "" {
		content = append(content, openAIContentPart{Type: "input_image", ImageURL: req.ImageDataURL})
	}
	if len(content) == 0 {
		content = append(content, openAIContentPart{Type: "input_text", Text: "Describe the image."})
	}

	body, err := json.Marshal(map[string]any{
		"model": o.model,
		"input": []openAIInputItem{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: content},
		},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not encode request", err)
	}

	baseURL := openAIBaseURL
	if req.ProxyURL != "" {
		baseURL = req.ProxyURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeProvider, "could not build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeProvider, "OpenAI request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		return nil, apperr.Provider(fmt.Sprintf("OpenAI error: %d. %s", resp.StatusCode, snippet))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.CodeProvider, "could not decode OpenAI response", err)
	}

	model := parsed.Model
	if model == "" {
		model = o.model
	}

	if text := strings.TrimSpace(parsed.OutputText); text != "" {
		return &GenerateResponse{Text: parsed.OutputText, Model: model}, nil
	}

	var texts []string
	for _, item := range parsed.Output {
		for _, part := range item.Content {
			if part.Type == "output_text" && part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	if len(texts) == 0 {
		return &GenerateResponse{Text: "Empty OpenAI response.", Model: model}, nil
	}
	return &GenerateResponse{Text: strings.Join(texts, "\n\n"), Model: model}, nil
}

// ModelInfo reports the configured model id against what the API sees, for
// the client's model badge.
type ModelInfo struct {
	ConfiguredModel string `json:"configuredModel"`
	APIModel        string `json:"apiModel,omitempty"`
	OK              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
}

func (o *OpenAI) FetchModelInfo(ctx context.Context, proxyURL string) *ModelInfo {
	info := &ModelInfo{ConfiguredModel: o.model}
	if o.apiKey == "" {
		info.Error = "OpenAI API key is not configured"
		return info
	}

	baseURL := openAIBaseURL
	if proxyURL != "" {
		baseURL = proxyURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/v1/models/"+url.PathEscape(o.model), nil)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		info.Error = fmt.Sprintf("OpenAI models API: %d. %s", resp.StatusCode, snippet)
		return info
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		info.Error = err.Error()
		return info
	}

	info.APIModel = parsed.ID
	if info.APIModel == "" {
		info.APIModel = o.model
	}
	info.OK = true
	return info
}
