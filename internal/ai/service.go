package ai

import (
	"context"
	"log"
	"strings"

	"roomchat/internal/apperr"
	"roomchat/internal/chat"
	"roomchat/internal/chatkey"
)

// Messenger is the slice of the chat service the AI flow needs: persist a
// resolved message and broadcast it.
type Messenger interface {
	Record(ctx context.Context, chatType chatkey.Kind, chatKey, sender, content, format string, meta *chat.Meta) (*chat.Message, error)
}

type Service struct {
	messages   Messenger
	generators map[chatkey.Provider]Generator
}

func NewService(messages Messenger, openai, gemini Generator) *Service {
	return &Service{
		messages: messages,
		generators: map[chatkey.Provider]Generator{
			chatkey.ProviderOpenAI: openai,
			chatkey.ProviderGemini: gemini,
		},
	}
}

type SendRequest struct {
	Provider     string `json:"provider"`
	Text         string `json:"text"`
	ImageDataURL string `json:"imageDataUrl"`
	ProxyURL     string `json:"proxyUrl"`
}

type SendResult struct {
	UserMessage *chat.Message `json:"userMessage"`
	AIMessage   *chat.Message `json:"aiMessage"`
}

func senderFor(provider chatkey.Provider) string {
	if provider == chatkey.ProviderGemini {
		return chat.SenderGemini
	}
	return chat.SenderOpenAI
}

// Send persists the actor's prompt, asks the provider for a reply and
// persists that too. The prompt survives a provider failure: the failure is
// stored in place of the reply, never silently dropped.
func (s *Service) Send(ctx context.Context, actor string, req *SendRequest) (*SendResult, error) {
	provider := chatkey.CoerceProvider(req.Provider)
	text := strings.TrimSpace(req.Text)
	if text == "" && req.ImageDataURL == "" {
		return nil, apperr.InvalidArg("text or image is required")
	}

	proxyURL, err := NormalizeProxyURL(req.ProxyURL)
	if err != nil {
		return nil, err
	}

	key, err := chatkey.Resolve(chatkey.KindAI, actor, string(provider))
	if err != nil {
		return nil, err
	}

	promptMeta := &chat.Meta{Provider: provider, HasImage: req.ImageDataURL != ""}
	if mime, _, ok := splitDataURL(req.ImageDataURL); ok {
		promptMeta.Attachment = &chat.Attachment{
			Name:     "image-from-user.png",
			MimeType: mime,
			DataURL:  req.ImageDataURL,
		}
	}

	content := text
	if content == "" {
		content = "[image]"
	}

	userMessage, err := s.messages.Record(ctx, chatkey.KindAI, key, actor, content, chat.FormatPlain, promptMeta)
	if err != nil {
		return nil, err
	}

	reply, err := s.generators[provider].Generate(ctx, &GenerateRequest{
		Text:         text,
		ImageDataURL: req.ImageDataURL,
		ProxyURL:     proxyURL,
	})

	replyText := ""
	replyModel := ""
	replyFormat := chat.FormatMarkdown
	if err != nil {
		log.Printf("ai: %s generate failed for %s: %v", provider, actor, err)
		replyText = apperr.Message(err)
		replyFormat = chat.FormatPlain
	} else {
		replyText = reply.Text
		replyModel = reply.Model
	}

	aiMessage, err := s.messages.Record(ctx, chatkey.KindAI, key, senderFor(provider), replyText, replyFormat,
		&chat.Meta{Provider: provider, ModelUsed: replyModel})
	if err != nil {
		return nil, err
	}

	return &SendResult{UserMessage: userMessage, AIMessage: aiMessage}, nil
}
