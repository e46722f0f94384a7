package telegram

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is the Bot API limit in characters.
const maxMessageLength = 4096

// splitMessage cuts text into chunks of at most limit runes, preferring a
// paragraph break, then a line break, then any rune boundary.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := cutPoint(text, limit)
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func cutPoint(text string, limit int) int {
	end := 0
	for i := 0; i < limit && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	window := text[:end]
	for _, sep := range []string{"\n\n", "\n"} {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return idx + len(sep)
		}
	}
	return end
}
