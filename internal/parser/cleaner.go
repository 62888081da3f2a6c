package parser

import "strings"

const fence = "```"

// Clean turns raw generator text into a JSON candidate.
//
// It drops code-fence markers, keeps the span from the first '{' to the last
// '}', strips newline-terminated // comments and removes commas that directly
// precede a closing '}' or ']'. Comments and commas inside string literals
// are left alone. An empty result means there is no candidate.
//
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, fence, "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	candidate := text[start : end+1]
	candidate = stripLineComments(candidate)
	candidate = stripTrailingCommas(candidate)

	return strings.TrimSpace(candidate)
}

// stripLineComments removes "//" up to and including the next newline, which
// is kept. A comment on the final line has no newline and is left in place so
// the closing brace survives.
func stripLineComments(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(s) {
					i++
					sb.WriteByte(s[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			sb.WriteByte(c)
			continue
		}

		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			nl := strings.IndexByte(s[i:], '\n')
			if nl != -1 {
				i += nl
				sb.WriteByte('\n')
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// stripTrailingCommas drops every comma whose next non-space, non-comma byte
// is '}' or ']'. Runs like ",,}" go in one pass.
func stripTrailingCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(s) {
					i++
					sb.WriteByte(s[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			if closesAfter(s[i+1:]) {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func closesAfter(rest string) bool {
	for j := 0; j < len(rest); j++ {
		switch rest[j] {
		case ' ', '\t', '\n', '\r', ',':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}
