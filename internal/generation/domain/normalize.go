package domain

import (
	"strings"
)

// NormalizeMarkup turns a raw model response into a storable document
// body. Models sometimes wrap their output in a fenced code block and
// sometimes answer in plain prose; both shapes must land as markup.
//
// Rules, applied in order:
//  1. If the response contains a fenced block, keep only the fenced
//     content. The fence's language tag is ignored.
//  2. If the remaining text already looks like a document (doctype or
//     html root tag), keep it as is.
//  3. Otherwise wrap it in a minimal well-formed HTML shell.
func NormalizeMarkup(raw, title string) string {
	content := strings.TrimSpace(raw)
	if content == "" {
		return ""
	}

	if fenced, ok := extractFencedBlock(content); ok {
		content = fenced
	}
	if looksLikeDocument(content) {
		return content
	}
	return wrapDocument(content, title)
}

// extractFencedBlock returns the content of the first ``` fence. The
// opening fence may carry a language tag on the same line.
func extractFencedBlock(content string) (string, bool) {
	start := strings.Index(content, "```")
	if start < 0 {
		return "", false
	}
	rest := content[start+3:]

	// Drop the language tag line, if any.
	if newline := strings.Index(rest, "\n"); newline >= 0 {
		rest = rest[newline+1:]
	} else {
		return "", false
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		// Unterminated fence: keep everything after the opener.
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

func looksLikeDocument(content string) bool {
	head := strings.ToLower(content)
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype") || strings.Contains(head, "<html")
}

func wrapDocument(content, title string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(htmlEscape(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	if strings.Contains(content, "<") {
		b.WriteString(content)
	} else {
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			b.WriteString("<p>")
			b.WriteString(htmlEscape(line))
			b.WriteString("</p>\n")
		}
	}
	b.WriteString("\n</body>\n</html>")
	return b.String()
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
