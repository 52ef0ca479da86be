package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	got := normalizeFilename("Adhan Makkah (new)!.mp3")
	assert.True(t, strings.HasPrefix(got, "Adhan_Makkah_new_"), "got %q", got)
	assert.True(t, strings.HasSuffix(got, ".mp3"))

	// A name reduced to nothing gets a stable fallback.
	got = normalizeFilename("!!!.wav")
	assert.True(t, strings.HasPrefix(got, "adhan_"), "got %q", got)
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", getContentType("a.mp3"))
	assert.Equal(t, "audio/ogg", getContentType("a.OGG"))
	assert.Equal(t, "audio/wav", getContentType("a.wav"))
	assert.Equal(t, "audio/aac", getContentType("a.m4a"))
	assert.Equal(t, "application/octet-stream", getContentType("a.pdf"))
}
