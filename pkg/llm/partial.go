package llm

import "strings"

// CompletePartial closes an in-flight JSON document so that the prefix
// streamed so far can be parsed. An unterminated string is closed (and, if
// it was an object key, given a null value), a cut-off true/false/null
// literal is completed, a dangling key gets a null value, a trailing comma
// is dropped, and open objects/arrays are closed in reverse order. The
// result is best-effort: callers should still check validity before use.
func CompletePartial(partial string) string {
	var stack []byte
	inString := false
	escaped := false
	stringStart := -1

	for i := 0; i < len(partial); i++ {
		ch := partial[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
			stringStart = i
		case '{', '[':
			stack = append(stack, ch)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	out := partial
	if escaped {
		out = out[:len(out)-1]
	}
	if inString {
		out += `"`
		// A string cut mid-key (preceded by '{' or ',' inside an object)
		// needs a value to stay parseable.
		if len(stack) > 0 && stack[len(stack)-1] == '{' && isKeyPosition(partial, stringStart) {
			out += ":null"
		}
	} else {
		out = completeTrailingLiteral(out)
		// A fully-streamed key whose ':' has not arrived yet.
		if strings.HasSuffix(strings.TrimRight(out, " \t\r\n"), `"`) &&
			len(stack) > 0 && stack[len(stack)-1] == '{' &&
			stringStart >= 0 && isKeyPosition(partial, stringStart) {
			out = strings.TrimRight(out, " \t\r\n") + ":null"
		}
	}

	out = trimNumberTail(out)

	trimmed := strings.TrimRight(out, " \t\r\n")
	switch {
	case strings.HasSuffix(trimmed, ":"):
		out = trimmed + "null"
	case strings.HasSuffix(trimmed, ","):
		out = trimmed[:len(trimmed)-1]
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out += "}"
		} else {
			out += "]"
		}
	}
	return out
}

// isKeyPosition reports whether the string opening at pos sits where an
// object key is expected (right after '{' or ',').
func isKeyPosition(s string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', ',':
			return true
		default:
			return false
		}
	}
	return false
}

// trimNumberTail strips a trailing numeric fragment that cannot end a JSON
// number ("3." or "1e" or "-"). 'e'/'E' are stripped only when preceded by a
// digit or dot so completed true/false literals are left alone.
func trimNumberTail(s string) string {
	for {
		trimmed := strings.TrimRight(s, " \t\r\n")
		if trimmed == "" {
			return s
		}
		last := trimmed[len(trimmed)-1]
		switch {
		case last == '.' || last == '-' || last == '+':
			s = trimmed[:len(trimmed)-1]
		case (last == 'e' || last == 'E') && len(trimmed) >= 2 &&
			(isDigit(trimmed[len(trimmed)-2]) || trimmed[len(trimmed)-2] == '.'):
			s = trimmed[:len(trimmed)-1]
		default:
			return s
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// completeTrailingLiteral finishes a true/false/null literal the stream was
// cut in the middle of.
func completeTrailingLiteral(s string) string {
	trimmed := strings.TrimRight(s, " \t\r\n")
	i := len(trimmed)
	for i > 0 && trimmed[i-1] >= 'a' && trimmed[i-1] <= 'z' {
		i--
	}
	tail := trimmed[i:]
	if tail == "" {
		return s
	}
	for _, lit := range []string{"true", "false", "null"} {
		if tail != lit && strings.HasPrefix(lit, tail) {
			return trimmed[:i] + lit
		}
	}
	return s
}
