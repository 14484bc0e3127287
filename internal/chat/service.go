package chat

import (
	"context"
	"strings"

	"roomchat/internal/apperr"
	"roomchat/internal/chatkey"
)

// Store is the slice of the repository the service needs. Append and
// DeleteByID are the only mutators of the message table.
type Store interface {
	Append(ctx context.Context, chatType chatkey.Kind, chatKey, sender, content, format string, meta *Meta) (*Message, error)
	GetPage(ctx context.Context, chatKey string, beforeID int64, limit int) (*Page, error)
	GetByID(ctx context.Context, id int64) (*Message, error)
	DeleteByID(ctx context.Context, id int64) (*Message, error)
}

// Directory resolves nicknames case-insensitively to their stored casing.
// Nicknames are unique case-insensitively, so "ALICE" and "alice" denote the
// same account; DM keys must be built from the stored spelling.
type Directory interface {
	Lookup(ctx context.Context, nickname string) (string, bool, error)
}

// Broadcaster publishes realtime events; in production it is the coalescer.
type Broadcaster interface {
	Publish(event string, payload any)
}

type Service struct {
	store              Store
	users              Directory
	broadcast          Broadcaster
	maxAttachmentBytes int64
}

func NewService(store Store, users Directory, broadcast Broadcaster, maxAttachmentBytes int64) *Service {
	return &Service{
		store:              store,
		users:              users,
		broadcast:          broadcast,
		maxAttachmentBytes: maxAttachmentBytes,
	}
}

// resolveFor validates a (kind, target) request for an actor and derives the
// canonical key. dm requires a non-empty target; ai coerces the target into
// a known provider.
func resolveFor(kind chatkey.Kind, actor, target string) (string, error) {
	switch kind {
	case chatkey.KindGlobal:
		return chatkey.Resolve(kind, "", "")
	case chatkey.KindFavorite:
		return chatkey.Resolve(kind, actor, "")
	case chatkey.KindDM:
		other := strings.TrimSpace(target)
		if other == "" {
			return "", apperr.InvalidArg("target is required")
		}
		return chatkey.Resolve(kind, actor, other)
	case chatkey.KindAI:
		provider := chatkey.CoerceProvider(target)
		return chatkey.Resolve(kind, actor, string(provider))
	default:
		return "", apperr.InvalidArg("unknown chat type")
	}
}

// History returns one page of the conversation identified by (kind, target)
// for the actor. An empty conversation is an empty page, not an error.
func (s *Service) History(ctx context.Context, actor, kindStr, target string, beforeID int64, limit int) (*Page, error) {
	kind, err := chatkey.ParseKind(kindStr)
	if err != nil {
		return nil, err
	}
	if kind == chatkey.KindDM && strings.TrimSpace(target) != "" {
		// Read through the stored casing so "BOB" and "bob" name the same
		// conversation. An unknown target keeps the raw spelling and simply
		// reads an empty page.
		canonical, found, err := s.users.Lookup(ctx, strings.TrimSpace(target))
		if err != nil {
			return nil, apperr.Unavailable("could not look up recipient", err)
		}
		if found {
			target = canonical
		}
	}
	key, err := resolveFor(kind, actor, target)
	if err != nil {
		return nil, err
	}
	return s.store.GetPage(ctx, key, beforeID, limit)
}

// SendRequest is a user-authored message to persist and broadcast.
type SendRequest struct {
	Type               string `json:"type"`
	Target             string `json:"target"`
	Content            string `json:"content"`
	AttachmentDataURL  string `json:"attachmentDataUrl"`
	AttachmentName     string `json:"attachmentName"`
	AttachmentMimeType string `json:"attachmentMimeType"`
}

// Send validates, persists and publishes one message authored by sender.
// Validation is side-effect-free: nothing is written until every check has
// passed. AI conversations are written through the AI endpoint, not here.
func (s *Service) Send(ctx context.Context, sender string, req *SendRequest) (*Message, error) {
	kind, err := chatkey.ParseKind(req.Type)
	if err != nil {
		return nil, err
	}
	if kind == chatkey.KindAI {
		return nil, apperr.InvalidArg("ai messages go through the ai endpoint")
	}

	content := strings.TrimSpace(req.Content)
	attachment, err := ParseAttachment(req.AttachmentDataURL, req.AttachmentName, req.AttachmentMimeType, s.maxAttachmentBytes)
	if err != nil {
		return nil, err
	}
	if content == "" && attachment == nil {
		return nil, apperr.InvalidArg("content or attachment is required")
	}

	target := req.Target
	if kind == chatkey.KindDM {
		other := strings.TrimSpace(req.Target)
		if other == "" {
			return nil, apperr.InvalidArg("target is required")
		}
		// Reject before persisting rather than create a conversation with a
		// nonexistent account. The stored casing keys the conversation, so a
		// mixed-case target lands in the same one the recipient reads.
		canonical, found, err := s.users.Lookup(ctx, other)
		if err != nil {
			return nil, apperr.Unavailable("could not look up recipient", err)
		}
		if !found {
			return nil, apperr.NotFound("unknown recipient")
		}
		target = canonical
	}

	key, err := resolveFor(kind, sender, target)
	if err != nil {
		return nil, err
	}

	if content == "" {
		content = PlaceholderAttachment
	}
	var meta *Meta
	if attachment != nil {
		meta = &Meta{Attachment: attachment}
	}

	return s.Record(ctx, kind, key, sender, content, FormatPlain, meta)
}

// Record persists a fully resolved message and publishes message:new. The AI
// service uses it directly for prompts and replies.
func (s *Service) Record(ctx context.Context, chatType chatkey.Kind, chatKey, sender, content, format string, meta *Meta) (*Message, error) {
	msg, err := s.store.Append(ctx, chatType, chatKey, sender, content, format, meta)
	if err != nil {
		return nil, err
	}
	s.broadcast.Publish(EventMessageNew, map[string]any{"message": msg})
	return msg, nil
}

// Delete removes a message owned by requester and publishes message:delete
// with enough routing information for every client to reconcile local state.
func (s *Service) Delete(ctx context.Context, requester string, id int64) error {
	msg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.Sender != requester {
		return apperr.Forbidden("you can delete only your own messages")
	}

	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	s.broadcast.Publish(EventMessageDelete, map[string]any{
		"id":       deleted.ID,
		"chatType": deleted.ChatType,
		"chatKey":  deleted.ChatKey,
	})
	return nil
}
