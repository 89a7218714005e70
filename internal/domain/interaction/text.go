package interaction

import (
	"strings"
	"unicode/utf8"
)

// Comment text limits, measured in code points after trimming.
const (
	MinCommentLength = 1
	MaxCommentLength = 500
)

// Spam heuristic thresholds.
const (
	spamMaxLinks        = 2   // more than this many "http" occurrences
	spamLongTextChars   = 100 // longer than this...
	spamLongTextWords   = 5   // ...with fewer words than this
	spamMaxRepeatedRune = 6   // a rune repeated consecutively more than this
)

// LongCommentWords is the word count above which a comment is considered long.
const LongCommentWords = 100

// ValidCommentText reports whether text satisfies the comment length bounds.
func ValidCommentText(text string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	return n >= MinCommentLength && n <= MaxCommentLength
}

// CharCount returns the number of code points in text.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// LooksLikeSpam applies the basic spam heuristic. False positives and
// negatives are accepted.
func LooksLikeSpam(text string) bool {
	lower := strings.ToLower(text)

	if strings.Count(lower, "http") > spamMaxLinks {
		return true
	}

	if CharCount(text) > spamLongTextChars && WordCount(text) < spamLongTextWords {
		return true
	}

	return longestRun(lower) > spamMaxRepeatedRune
}

// longestRun returns the length of the longest run of one repeated rune.
func longestRun(text string) int {
	longest, run := 0, 0
	var last rune = -1
	for _, r := range text {
		if r == last {
			run++
		} else {
			last = r
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// TokensWithMarker returns whitespace tokens starting with marker, with the
// marker stripped, in original order and with duplicates preserved.
func TokensWithMarker(text, marker string) []string {
	out := make([]string, 0)
	for _, w := range strings.Fields(text) {
		if strings.HasPrefix(w, marker) {
			out = append(out, strings.TrimPrefix(w, marker))
		}
	}
	return out
}

// ContainsLink reports whether text mentions an http(s) link.
func ContainsLink(text string) bool {
	return strings.Contains(strings.ToLower(text), "http")
}

// ContainsKeyword performs a case-insensitive substring match.
func ContainsKeyword(text, keyword string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}
