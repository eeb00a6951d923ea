package extract

import (
	"regexp"
	"strings"
)

// bulletPrefix strips the heterogeneous numbering and bullet styles the
// generator produces: "-", "*", "•", "1.", "1、", "（1）", "(1)", "①".
var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•●]\s*|[①-⑳]\s*|[（(]\d+[)）]\s*[、.．]?\s*|\d+\s*[、.．)）]\s*|[一二三四五六七八九十]+\s*[、.．]\s*)`)

// listNoiseLines are instructional filler the generator sometimes emits
// inside lists; they carry no content and are discarded.
var listNoiseLines = []string{
	"如下",
	"以下是",
	"具体步骤",
	"请参考",
	"等等",
	"etc.",
	"as follows",
}

// extractList turns a section body into a clean ordered list.
func extractList(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		stripped := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if stripped == "" || isListNoise(stripped) {
			continue
		}
		// Trailing JSON payloads belong to the follow-up extractor.
		if strings.HasPrefix(stripped, "{") || strings.HasPrefix(stripped, "[") {
			continue
		}
		items = append(items, stripped)
	}
	return items
}

func isListNoise(line string) bool {
	// Noise lines are short framing sentences, not content.
	if len([]rune(line)) > 12 {
		return false
	}
	for _, noise := range listNoiseLines {
		if strings.Contains(line, noise) {
			return true
		}
	}
	return false
}
