package retrieval

import "strings"

// Intent is the lightly resolved search intent for one aggregation call.
// Resolution is best-effort keyword bucketing; it narrows target domains and
// trims conversational padding from the query, and it never blocks or fails.
type Intent struct {
	Query   string
	Domains []string
}

// domainBuckets maps signal keywords onto narrowed retrieval domains.
var domainBuckets = []struct {
	domain   string
	keywords []string
}{
	{"contract_law", []string{"合同", "违约", "解除", "契约", "contract", "breach", "termination clause"}},
	{"labor_law", []string{"劳动", "工资", "辞退", "加班", "labor", "employment", "dismissal", "overtime"}},
	{"corporate_law", []string{"公司", "股东", "股权", "董事", "corporate", "shareholder", "equity", "director"}},
}

// conversationalPadding is stripped from the head of queries so the stores
// see the substantive question, not the greeting.
var conversationalPadding = []string{
	"请问",
	"你好，",
	"你好,",
	"我想问一下",
	"我想咨询",
	"麻烦问下",
	"please tell me",
	"i want to ask",
	"i would like to know",
}

// ResolveIntent rewrites the query and narrows the target domains. When no
// bucket matches, the original domain is kept as the single target.
func ResolveIntent(query, domain string) Intent {
	rewritten := strings.TrimSpace(query)
	lower := strings.ToLower(rewritten)
	for _, padding := range conversationalPadding {
		if strings.HasPrefix(lower, padding) {
			rewritten = strings.TrimSpace(rewritten[len(padding):])
			lower = strings.ToLower(rewritten)
			break
		}
	}
	if rewritten == "" {
		rewritten = strings.TrimSpace(query)
	}

	var domains []string
	for _, bucket := range domainBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) || strings.Contains(rewritten, kw) {
				domains = append(domains, bucket.domain)
				break
			}
		}
	}
	if len(domains) == 0 {
		domains = []string{domain}
	}

	return Intent{Query: rewritten, Domains: domains}
}
