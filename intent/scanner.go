package intent

// MaxDepth bounds brace nesting inside one candidate. Deeper objects are
// abandoned rather than scanned to the end of the text.
const MaxDepth = 64

// Candidates returns the top-level balanced {...} spans of text, in order of
// appearance. Braces inside JSON strings do not count, and backslash escapes
// inside strings are honoured. Text outside a span is treated as prose, so
// stray quotes or apostrophes there are ignored.
//
// A span that never closes, or nests deeper than MaxDepth, is dropped and
// scanning resumes just after its opening brace, so a complete object nested
// inside broken text is still found.
func Candidates(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		if text[i] != '{' {
			i++
			continue
		}
		end, ok := matchBrace(text, i)
		if !ok {
			i++
			continue
		}
		out = append(out, text[i:end+1])
		i = end + 1
	}
	return out
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
			if depth > MaxDepth {
				return 0, false
			}
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
