// Package extract turns free-form generative text into the fixed result
// schemas the consultation flow relies on. Extraction is an ordered chain of
// fallback strategies; it never fails and always returns a populated
// analysis when the input carries any substance.
package extract

import (
	"log"
	"strings"
)

// Result is the structured specialist answer.
type Result struct {
	DirectAnswer      string
	Analysis          string
	Advice            string
	RiskWarning       string
	ActionSteps       []string
	RelevantLaws      []string
	FollowUpQuestions []string

	// Degraded is true when section extraction found nothing and the whole
	// cleaned text was used as analysis verbatim.
	Degraded bool
}

// Extractor runs the extraction pipeline. The logger records deliberate
// degradations so they are visible, not silent.
type Extractor struct {
	logger *log.Logger
}

func NewExtractor(logger *log.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// minMeaningfulRunes is the length below which a sectionless text is noise
// rather than an answer worth keeping verbatim.
const minMeaningfulRunes = 10

// Extract runs the ordered pipeline: strip reasoning, strip leaked
// instructions, split sections, extract lists, recover follow-up questions,
// and finally fall back to the whole cleaned text as analysis.
func (e *Extractor) Extract(raw string) *Result {
	cleaned := stripReasoning(raw)
	cleaned = stripLeakedInstructions(cleaned)

	sections := splitSections(cleaned)

	result := &Result{
		DirectAnswer: sections[SectionDirectAnswer],
		Analysis:     sections[SectionAnalysis],
		Advice:       sections[SectionAdvice],
		RiskWarning:  sections[SectionRiskWarning],
		ActionSteps:  extractList(sections[SectionActionSteps]),
		RelevantLaws: extractList(sections[SectionRelevantLaws]),
	}

	result.FollowUpQuestions = extractFollowUpQuestions(cleaned)

	if result.Analysis == "" {
		if len([]rune(cleaned)) >= minMeaningfulRunes {
			e.logf("[EXTRACT] No analysis section recognized, using cleaned text verbatim (%d chars)", len(cleaned))
			result.Analysis = withoutTrailingJSON(cleaned)
			result.Degraded = true
		} else if result.DirectAnswer != "" {
			result.Analysis = result.DirectAnswer
		}
	}

	return result
}

// withoutTrailingJSON drops the trailing follow-up JSON fragment from the
// verbatim fallback so users do not see raw JSON.
func withoutTrailingJSON(text string) string {
	frag := findJSONFragment(text)
	if frag == "" {
		return text
	}
	idx := strings.LastIndex(text, frag)
	if idx < 0 || strings.TrimSpace(text[idx+len(frag):]) != "" {
		// Fragment is not at the tail; leave the text alone.
		return text
	}
	return strings.TrimSpace(text[:idx])
}

func (e *Extractor) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
