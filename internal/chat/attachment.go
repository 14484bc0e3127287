package chat

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"roomchat/internal/apperr"
)

// ParseAttachment validates a base64 data URL and builds the attachment
// descriptor embedded in message meta. It has no side effects: a rejected
// attachment leaves nothing behind.
//
// Returns (nil, nil) when dataURL is empty.
func ParseAttachment(dataURL, name, mimeType string, maxBytes int64) (*Attachment, error) {
	if dataURL == "" {
		return nil, nil
	}

	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, apperr.InvalidArg("invalid attachment data")
	}
	header, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok || encoded == "" {
		return nil, apperr.InvalidArg("invalid attachment data")
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperr.InvalidArg("invalid attachment data")
	}
	size := int64(len(decoded))
	if size == 0 {
		return nil, apperr.InvalidArg("attachment is empty")
	}
	if size > maxBytes {
		return nil, apperr.TooLarge(fmt.Sprintf("attachment is too large (max %dMB)", maxBytes/(1024*1024)))
	}

	inferredMime := header
	if inferredMime == "" {
		inferredMime = "application/octet-stream"
	}

	attachmentName := truncate(strings.TrimSpace(name), 120)
	if attachmentName == "" {
		attachmentName = "file"
	}
	mime := truncate(strings.TrimSpace(mimeType), 120)
	if mime == "" {
		mime = inferredMime
	}

	return &Attachment{
		Name:     attachmentName,
		MimeType: mime,
		Size:     size,
		DataURL:  dataURL,
	}, nil
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
