package chat

import (
	"time"

	"roomchat/internal/chatkey"
)

// Realtime event names pushed over the websocket channel.
const (
	EventMessageNew    = "message:new"
	EventMessageDelete = "message:delete"
	EventUsersUpdate   = "users:update"
)

// Message body formats.
const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
)

// Sender names reserved for AI replies. Login refuses nicknames that collide
// with these, case-insensitively.
const (
	SenderOpenAI = "ChatGPT"
	SenderGemini = "Gemini"
)

var ReservedSenders = []string{SenderOpenAI, SenderGemini}

// PlaceholderAttachment is the content stored for attachment-only messages.
const PlaceholderAttachment = "[attachment]"

type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	DataURL  string `json:"dataUrl"`
}

// Meta is the optional structured payload attached to a message: an
// attachment descriptor and/or AI provider metadata.
type Meta struct {
	Attachment *Attachment      `json:"attachment,omitempty"`
	Provider   chatkey.Provider `json:"provider,omitempty"`
	HasImage   bool             `json:"hasImage,omitempty"`
	ModelUsed  string           `json:"modelUsed,omitempty"`
}

type Message struct {
	ID        int64        `json:"id"`
	ChatType  chatkey.Kind `json:"chatType"`
	ChatKey   string       `json:"chatKey"`
	Sender    string       `json:"sender"`
	Content   string       `json:"content"`
	Format    string       `json:"format"`
	Meta      *Meta        `json:"meta"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Page is one slice of a conversation's history. Messages are ascending by
// id; HasMore reports whether older messages remain before the first one.
type Page struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"hasMore"`
}

// Event is a single realtime event; batches of these are what the coalescer
// flushes to connected channels.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
