package narrative

import "strings"

// replaceBraced visits each '{' in order. The candidate fragment runs to the
// first '}' after it; fn decides whether the fragment is a match. Matched
// fragments are replaced and scanning resumes after them, otherwise scanning
// resumes at the next '{'. Replacements are never rescanned.
func replaceBraced(text string, fn func(inner string) (string, bool)) string {
	var b strings.Builder
	last, pos := 0, 0
	for {
		open := strings.IndexByte(text[pos:], '{')
		if open < 0 {
			break
		}
		open += pos
		closeIdx := strings.IndexByte(text[open+1:], '}')
		if closeIdx < 0 {
			break
		}
		end := open + 1 + closeIdx

		replacement, ok := fn(text[open+1 : end])
		if !ok {
			pos = open + 1
			continue
		}
		b.WriteString(text[last:open])
		b.WriteString(replacement)
		last = end + 1
		pos = end + 1
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// splitTernary splits "cond ? a : b". The condition may itself contain '?',
// so the last '?' that leaves a non-empty true branch before the next ':'
// and a non-empty false branch after it is the separator.
func splitTernary(inner string) (cond, whenTrue, whenFalse string, ok bool) {
	for q := strings.LastIndexByte(inner, '?'); q > 0; q = strings.LastIndexByte(inner[:q], '?') {
		rest := inner[q+1:]
		colon := strings.IndexByte(rest, ':')
		if colon < 1 || colon == len(rest)-1 {
			continue
		}
		return inner[:q], rest[:colon], rest[colon+1:], true
	}
	return "", "", "", false
}

// splitCall splits "name:args" where name is a run of word characters.
func splitCall(inner string) (name, args string, ok bool) {
	i := 0
	for i < len(inner) && isWordByte(inner[i]) {
		i++
	}
	if i == 0 || i >= len(inner) || inner[i] != ':' || i == len(inner)-1 {
		return "", "", false
	}
	return inner[:i], inner[i+1:], true
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
