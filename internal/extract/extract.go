package extract

import (
	"encoding/json"
	"log"
	"strings"
)

// Object locates the first balanced-brace JSON object embedded in free-form
// text, tolerating surrounding prose or markdown fences. It returns the raw
// JSON span and true on success, or nil and false when the text is empty,
// contains no opening brace, never balances, or the balanced span is not
// valid JSON. It never panics and never repairs malformed JSON beyond the
// brace scan.
func Object(text string) (json.RawMessage, bool) {
	if text == "" {
		return nil, false
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	end := -1
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, false
	}

	span := text[start : end+1]
	if !json.Valid([]byte(span)) {
		log.Printf("extract: balanced span is not valid JSON: %q", span)
		return nil, false
	}
	return json.RawMessage(span), true
}
