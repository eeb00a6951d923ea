package extract

import (
	"encoding/json"
	"strings"
)

// findJSONFragment locates the last balanced JSON object or array in the
// text using brace counting, which tolerates nested braces that naive
// regex matching cannot. Quoted braces are skipped.
func findJSONFragment(text string) string {
	last := ""
	for i := 0; i < len(text); i++ {
		open := text[i]
		if open != '{' && open != '[' {
			continue
		}
		if frag := balancedFrom(text, i); frag != "" {
			last = frag
			i += len(frag) - 1
		}
	}
	return last
}

// balancedFrom returns the balanced fragment starting at start, or "" when
// the fragment never closes.
func balancedFrom(text string, start int) string {
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// followUpPayload is the JSON shape the generator appends for follow-up
// questions.
type followUpPayload struct {
	FollowUpQuestions []string `json:"follow_up_questions"`
	Questions         []string `json:"questions"`
}

// extractFollowUpQuestions recovers the generator's appended follow-up
// questions: strict JSON first, heuristic line scanning second. It never
// fails; worst case it returns nothing.
func extractFollowUpQuestions(text string) []string {
	if frag := findJSONFragment(text); frag != "" {
		if questions := parseFollowUpJSON(frag); len(questions) > 0 {
			return questions
		}
	}
	return scanInterrogativeLines(text)
}

func parseFollowUpJSON(frag string) []string {
	if strings.HasPrefix(frag, "[") {
		var questions []string
		if err := json.Unmarshal([]byte(frag), &questions); err == nil {
			return nonEmpty(questions)
		}
		return nil
	}

	var payload followUpPayload
	if err := json.Unmarshal([]byte(frag), &payload); err != nil {
		return nil
	}
	if len(payload.FollowUpQuestions) > 0 {
		return nonEmpty(payload.FollowUpQuestions)
	}
	return nonEmpty(payload.Questions)
}

// scanInterrogativeLines looks for question sentences near the end of the
// text, the heuristic fallback when the JSON fragment is broken.
const interrogativeScanWindow = 8

func scanInterrogativeLines(text string) []string {
	lines := strings.Split(text, "\n")
	start := len(lines) - interrogativeScanWindow
	if start < 0 {
		start = 0
	}

	var questions []string
	for _, line := range lines[start:] {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, "?") || strings.HasSuffix(line, "？") {
			questions = append(questions, line)
		}
	}
	return questions
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
