package extract

import (
	"regexp"
	"strings"
)

// Section identifies one of the canonical answer sections.
type Section string

const (
	SectionDirectAnswer Section = "direct_answer"
	SectionAnalysis     Section = "analysis"
	SectionAdvice       Section = "advice"
	SectionRiskWarning  Section = "risk_warning"
	SectionActionSteps  Section = "action_steps"
	SectionRelevantLaws Section = "relevant_laws"
)

// headerPrefix matches the numbering/decoration in front of a section title:
// Chinese ordinals (一、二、), Latin numbering (1. 2) ), markdown headers.
const headerPrefix = `^\s*(?:[#*]{1,4}\s*)?(?:[一二三四五六七八九十]+\s*[、.．]\s*|\d+\s*[、.．)）]\s*)?`

// primarySynonyms recognizes section headers for every canonical section.
var primarySynonyms = map[Section][]string{
	SectionDirectAnswer: {"直接回答", "直接答复", "结论", "Direct Answer", "Conclusion"},
	SectionAnalysis:     {"法律分析", "案件分析", "分析", "Legal Analysis", "Analysis"},
	SectionAdvice:       {"行动建议", "专业建议", "律师建议", "建议", "Recommendations", "Advice"},
	SectionRiskWarning:  {"风险提示", "风险警示", "注意事项", "Risk Warning", "Risks"},
	SectionActionSteps:  {"后续步骤", "行动步骤", "操作步骤", "下一步行动", "Action Steps", "Next Steps"},
	SectionRelevantLaws: {"法律依据", "相关法条", "相关法律", "Legal Basis", "Relevant Laws"},
}

// analysisSecondarySynonyms is the retry set used only when the primary
// analysis headers found nothing.
var analysisSecondarySynonyms = []string{"详细解读", "具体分析", "情况说明", "Detailed Review"}

var sectionPatterns map[Section]*regexp.Regexp

var analysisSecondaryPattern *regexp.Regexp

func init() {
	sectionPatterns = make(map[Section]*regexp.Regexp, len(primarySynonyms))
	for section, synonyms := range primarySynonyms {
		sectionPatterns[section] = compileHeaderPattern(synonyms)
	}
	analysisSecondaryPattern = compileHeaderPattern(analysisSecondarySynonyms)
}

func compileHeaderPattern(synonyms []string) *regexp.Regexp {
	quoted := make([]string, len(synonyms))
	for i, s := range synonyms {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(headerPrefix + `(?:` + strings.Join(quoted, "|") + `)\s*[:：]?\s*$`)
}

type headerMatch struct {
	section Section
	line    int
}

// splitSections walks the text line by line and assigns content to the last
// recognized header. A section's content runs until the next recognized
// header or the end of text.
func splitSections(text string) map[Section]string {
	lines := strings.Split(text, "\n")

	var matches []headerMatch
	for i, line := range lines {
		if section, ok := matchHeader(line); ok {
			matches = append(matches, headerMatch{section: section, line: i})
		}
	}

	sections := make(map[Section]string)
	for i, m := range matches {
		end := len(lines)
		if i+1 < len(matches) {
			end = matches[i+1].line
		}
		content := strings.TrimSpace(strings.Join(lines[m.line+1:end], "\n"))
		// Inline content after the colon on the header line itself.
		if inline := inlineHeaderContent(lines[m.line]); inline != "" {
			if content == "" {
				content = inline
			} else {
				content = inline + "\n" + content
			}
		}
		if content != "" && sections[m.section] == "" {
			sections[m.section] = content
		}
	}

	// Secondary synonym retry for analysis only.
	if sections[SectionAnalysis] == "" {
		if content := extractByPattern(lines, analysisSecondaryPattern); content != "" {
			sections[SectionAnalysis] = content
		}
	}

	return sections
}

func matchHeader(line string) (Section, bool) {
	for section, pattern := range sectionPatterns {
		if pattern.MatchString(strings.TrimSpace(trimInlineContent(line))) {
			return section, true
		}
	}
	return "", false
}

// trimInlineContent drops anything after the first colon so headers like
// "结论：可以解除合同" still match the header pattern.
func trimInlineContent(line string) string {
	for _, sep := range []string{"：", ":"} {
		if idx := strings.Index(line, sep); idx >= 0 {
			return line[:idx+len(sep)]
		}
	}
	return line
}

func inlineHeaderContent(line string) string {
	for _, sep := range []string{"：", ":"} {
		if idx := strings.Index(line, sep); idx >= 0 {
			return strings.TrimSpace(line[idx+len(sep):])
		}
	}
	return ""
}

func extractByPattern(lines []string, pattern *regexp.Regexp) string {
	for i, line := range lines {
		if !pattern.MatchString(strings.TrimSpace(trimInlineContent(line))) {
			continue
		}
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if _, ok := matchHeader(lines[j]); ok {
				end = j
				break
			}
		}
		content := strings.TrimSpace(strings.Join(lines[i+1:end], "\n"))
		if inline := inlineHeaderContent(lines[i]); inline != "" && content == "" {
			content = inline
		}
		if content != "" {
			return content
		}
	}
	return ""
}
