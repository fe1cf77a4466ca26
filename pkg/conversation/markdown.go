package conversation

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// cleanMarkdown strips an LLM response's outer code-fence wrapping
// regardless of the fence's language tag (````markdown`, ```` ``` ````,
// ` ```go `, ...), grounded on the teacher's CleanMarkdown helper
// (pkg/core/utils/markdown.go).
func cleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") {
		return cleaned
	}

	body := strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || !strings.ContainsAny(tag, " \t") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body)
}

// validateMarkdown reports whether input parses as Markdown at all
// (goldmark is permissive, so this is a basic sanity check, same as the
// teacher's ValidateMarkdown).
func validateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil
}
