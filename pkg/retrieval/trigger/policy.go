package trigger

import "strings"

// Strategy selects how retrieval is performed for a consultation round.
type Strategy string

const (
	StrategyPrimarySourceFirst Strategy = "primary_source_first"
	StrategyHybrid             Strategy = "hybrid"
	StrategyFallbackSource     Strategy = "fallback_source"
	StrategyDisabled           Strategy = "disabled"
)

// CategoryConfig is the per-category retrieval configuration.
type CategoryConfig struct {
	Force    bool
	Strategy Strategy
}

// mandatoryDomains always trigger retrieval with the primary-source-first
// strategy, regardless of per-category overrides. Matching is by substring so
// composite type labels like "labor_contract_dispute" still hit.
var mandatoryDomains = []string{
	"civil",
	"commercial",
	"labor",
	"corporate",
	"contract",
	"民事",
	"商事",
	"劳动",
	"公司",
	"合同",
}

// complexitySignals are question fragments that indicate the answer needs
// statute-level precision even when the category itself is not mandatory.
var complexitySignals = []string{
	"第",     // statute article references, e.g. 第五百条
	"条规定",
	"诉讼时效",
	"limitation period",
	"判例",
	"precedent",
	"司法解释",
	"statute",
	"article ",
}

// validStrategies guards against junk strategy strings in configuration.
var validStrategies = map[Strategy]bool{
	StrategyPrimarySourceFirst: true,
	StrategyHybrid:             true,
	StrategyFallbackSource:     true,
}

// DefaultCategories covers the case types the triage model emits that are
// not already mandatory domains. Callers may replace or extend this map.
func DefaultCategories() map[string]CategoryConfig {
	return map[string]CategoryConfig{
		"intellectual_property": {Force: true, Strategy: StrategyPrimarySourceFirst},
		"criminal":              {Strategy: StrategyHybrid},
		"administrative":        {Strategy: StrategyHybrid},
		"family":                {Strategy: StrategyFallbackSource},
	}
}

// Evaluate decides whether and how to retrieve for a question in a given
// classification domain. It is a pure function and never fails: any lookup
// miss degrades to the keyword heuristic and then to the disabled default.
// Rule order, first match wins:
//  1. mandatory domain        → primary_source_first
//  2. category force=true     → configured strategy
//  3. category valid strategy → configured strategy
//  4. complexity signal       → primary_source_first
//  5. default                 → disabled
func Evaluate(question, domain string, categories map[string]CategoryConfig) (bool, Strategy) {
	lowerDomain := strings.ToLower(domain)
	for _, mandatory := range mandatoryDomains {
		if strings.Contains(lowerDomain, mandatory) {
			return true, StrategyPrimarySourceFirst
		}
	}

	if cfg, ok := categories[domain]; ok {
		strategy := cfg.Strategy
		if !validStrategies[strategy] {
			strategy = StrategyPrimarySourceFirst
		}
		if cfg.Force {
			return true, strategy
		}
		if validStrategies[cfg.Strategy] {
			return true, cfg.Strategy
		}
	}

	lowerQuestion := strings.ToLower(question)
	for _, signal := range complexitySignals {
		if strings.Contains(lowerQuestion, signal) || strings.Contains(question, signal) {
			return true, StrategyPrimarySourceFirst
		}
	}

	return false, StrategyDisabled
}
