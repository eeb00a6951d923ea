package extract

import "testing"

func TestClassificationParsesJSON(t *testing.T) {
	raw := `根据您的描述，分类结果如下：
{
  "primary_type": "labor_dispute",
  "specialist_role": "劳动法专家",
  "confidence": 0.92,
  "relevant_laws": ["劳动合同法", "劳动争议调解仲裁法"],
  "direct_questions": ["您的劳动合同是否到期？"],
  "suggested_questions": ["经济补偿如何计算？"],
  "persona": "严谨务实",
  "strategic_focus": "证据固定优先"
}`

	c := newTestExtractor().Classification(raw)
	if c.PrimaryType != "labor_dispute" {
		t.Errorf("PrimaryType = %q", c.PrimaryType)
	}
	if c.SpecialistRole != "劳动法专家" {
		t.Errorf("SpecialistRole = %q", c.SpecialistRole)
	}
	if c.Confidence != 0.92 {
		t.Errorf("Confidence = %f", c.Confidence)
	}
	if len(c.RelevantLaws) != 2 || len(c.DirectQuestions) != 1 || len(c.SuggestedQuestions) != 1 {
		t.Errorf("list fields not recovered: %+v", c)
	}
}

func TestClassificationLegacyCaseTypeField(t *testing.T) {
	c := newTestExtractor().Classification(`{"case_type": "contract_dispute", "confidence": 0.7}`)
	if c.PrimaryType != "contract_dispute" {
		t.Errorf("PrimaryType = %q, want legacy case_type value", c.PrimaryType)
	}
}

func TestClassificationDefaultsOnGarbage(t *testing.T) {
	for _, raw := range []string{"", "no json here at all", `{"primary_type": broken`} {
		c := newTestExtractor().Classification(raw)
		if c == nil {
			t.Fatalf("Classification(%q) returned nil", raw)
		}
		if c.PrimaryType != defaultPrimaryType {
			t.Errorf("Classification(%q).PrimaryType = %q, want default", raw, c.PrimaryType)
		}
		if c.SpecialistRole == "" {
			t.Error("default specialist role must be populated")
		}
	}
}

func TestClassificationConfidenceClamped(t *testing.T) {
	if c := newTestExtractor().Classification(`{"primary_type": "x", "confidence": 7.5}`); c.Confidence != 1 {
		t.Errorf("Confidence = %f, want clamped to 1", c.Confidence)
	}
	if c := newTestExtractor().Classification(`{"primary_type": "x", "confidence": -2}`); c.Confidence != 0 {
		t.Errorf("Confidence = %f, want clamped to 0", c.Confidence)
	}
}

func TestClassificationStripsReasoningFirst(t *testing.T) {
	raw := `<think>{"primary_type": "wrong_draft"}</think>{"primary_type": "company_law", "confidence": 0.8}`
	c := newTestExtractor().Classification(raw)
	if c.PrimaryType != "company_law" {
		t.Errorf("PrimaryType = %q, reasoning draft must not leak into classification", c.PrimaryType)
	}
}
