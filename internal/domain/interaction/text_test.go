package interaction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCommentText_Bounds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"single char", "a", true},
		{"max length", strings.Repeat("x", MaxCommentLength), true},
		{"over max", strings.Repeat("x", MaxCommentLength+1), false},
		{"empty", "", false},
		{"whitespace only", "   \t ", false},
		{"padded max", "  " + strings.Repeat("x", MaxCommentLength) + "  ", true},
		{"multibyte counted as runes", strings.Repeat("ж", MaxCommentLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCommentText(tt.text))
		})
	}
}

func TestLooksLikeSpam(t *testing.T) {
	longFewWords := strings.Repeat("abcde", 20) + "x y z w" // 107 chars, 4 words
	assert.Equal(t, 4, WordCount(longFewWords))

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"three links", "http http http", true},
		{"links are case insensitive", "HTTP://a HTTPS://b Http://c", true},
		{"two links", "see http://a and http://b", false},
		{"long text few words", longFewWords, true},
		{"exactly 101 chars one word", strings.Repeat("ab", 50) + "c", true},
		{"seven repeats", "aaaaaaa", true},
		{"six repeats", "aaaaaa", false},
		{"plain", "hello world", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeSpam(tt.text))
		})
	}
}

func TestTokensWithMarker(t *testing.T) {
	text := "hi @bob and @alice #go #go @bob"

	assert.Equal(t, []string{"bob", "alice", "bob"}, TokensWithMarker(text, "@"))
	assert.Equal(t, []string{"go", "go"}, TokensWithMarker(text, "#"))
	assert.Empty(t, TokensWithMarker("nothing here", "#"))
}

func TestContainsKeyword(t *testing.T) {
	assert.True(t, ContainsKeyword("Great VIDEO", "video"))
	assert.False(t, ContainsKeyword("Great video", "audio"))
	assert.True(t, ContainsLink("visit HTTPS://example.com"))
	assert.False(t, ContainsLink("no links"))
}
