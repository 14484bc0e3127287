package chat

import (
	"encoding/base64"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxTestBytes = 1024

func dataURL(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestParseAttachment(t *testing.T) {
	a, err := ParseAttachment(dataURL("image/png", []byte("png-bytes")), "shot.png", "image/png", maxTestBytes)
	require.NoError(t, err)
	assert.Equal(t, "shot.png", a.Name)
	assert.Equal(t, "image/png", a.MimeType)
	assert.Equal(t, int64(9), a.Size)
	assert.True(t, strings.HasPrefix(a.DataURL, "data:image/png;base64,"))
}

func TestParseAttachmentEmptyInput(t *testing.T) {
	a, err := ParseAttachment("", "x", "y", maxTestBytes)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestParseAttachmentDefaults(t *testing.T) {
	a, err := ParseAttachment(dataURL("text/plain", []byte("x")), "   ", "", maxTestBytes)
	require.NoError(t, err)
	assert.Equal(t, "file", a.Name)
	assert.Equal(t, "text/plain", a.MimeType, "mime type inferred from the data URL")
}

func TestParseAttachmentNameTruncated(t *testing.T) {
	long := strings.Repeat("n", 500)
	a, err := ParseAttachment(dataURL("text/plain", []byte("x")), long, "", maxTestBytes)
	require.NoError(t, err)
	assert.Len(t, a.Name, 120)
}

func TestParseAttachmentNameTruncatesOnRuneBoundary(t *testing.T) {
	// The byte cap falls in the middle of a three-byte rune.
	long := "a" + strings.Repeat("日", 60)
	a, err := ParseAttachment(dataURL("text/plain", []byte("x")), long, "", maxTestBytes)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(a.Name))
	assert.LessOrEqual(t, len(a.Name), 120)
	assert.True(t, strings.HasSuffix(a.Name, "日"), "the partial rune is dropped whole")
}

func TestParseAttachmentRejections(t *testing.T) {
	tests := []struct {
		name    string
		dataURL string
	}{
		{"not a data url", "http://example.com/file.png"},
		{"missing base64 marker", "data:image/png,rawbytes"},
		{"bad base64", "data:image/png;base64,!!!not-base64!!!"},
		{"empty payload", "data:image/png;base64,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAttachment(tt.dataURL, "f", "", maxTestBytes)
			assert.Error(t, err)
		})
	}
}

func TestParseAttachmentTooLarge(t *testing.T) {
	_, err := ParseAttachment(dataURL("application/octet-stream", make([]byte, maxTestBytes+1)), "big", "", maxTestBytes)
	assert.Error(t, err)

	// Exactly at the ceiling is allowed.
	a, err := ParseAttachment(dataURL("application/octet-stream", make([]byte, maxTestBytes)), "fits", "", maxTestBytes)
	require.NoError(t, err)
	assert.Equal(t, int64(maxTestBytes), a.Size)
}
