package extract

import "strings"

// endOfReasoningMarkers terminate a chain-of-thought block. The LAST
// occurrence wins: everything before it is model reasoning and is discarded.
var endOfReasoningMarkers = []string{
	"</think>",
	"[/THINK]",
	"【思考结束】",
	"--- 回答 ---",
	"### 正式回答",
}

// startOfReasoningMarkers open a chain-of-thought block. When no end marker
// is present, an unterminated block is contained by discarding from the
// marker to the end of text.
var startOfReasoningMarkers = []string{
	"<think>",
	"[THINK]",
	"【思考】",
	"【思考开始】",
}

// stripReasoning removes chain-of-thought content. Containment is
// best-effort: a reasoning block that never terminates is dropped rather
// than silently accepted as answer text.
func stripReasoning(text string) string {
	lastEnd := -1
	endLen := 0
	for _, marker := range endOfReasoningMarkers {
		if idx := strings.LastIndex(text, marker); idx > lastEnd {
			lastEnd = idx
			endLen = len(marker)
		}
	}
	if lastEnd >= 0 {
		return strings.TrimSpace(text[lastEnd+endLen:])
	}

	for _, marker := range startOfReasoningMarkers {
		if idx := strings.Index(text, marker); idx >= 0 {
			return strings.TrimSpace(text[:idx])
		}
	}

	return strings.TrimSpace(text)
}
