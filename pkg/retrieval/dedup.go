package retrieval

import (
	"strings"
	"unicode"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const (
	// duplicateThreshold: above this combined similarity two items are the
	// same document and only one survives.
	duplicateThreshold = 0.90
	// nearDuplicateThreshold: above this both items are kept but annotated.
	nearDuplicateThreshold = 0.75

	titleWeight   = 0.6
	contentWeight = 0.4
)

// annotationsKey marks a user-submitted item that carries explicit
// annotations; such an item survives deduplication even against a
// higher-priority curated entry.
const annotationsKey = "annotations"

// nearDuplicateKey is the warning annotation added to flagged items.
const nearDuplicateKey = "near_duplicate_of"

// normalizeText strips whitespace, punctuation and case so similarity
// compares substance, not formatting.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// bigramSimilarity is the Dice coefficient over rune bigrams of the
// normalized texts. Rune bigrams keep it meaningful for Chinese text.
func bigramSimilarity(a, b string) float64 {
	na, nb := []rune(normalizeText(a)), []rune(normalizeText(b))
	if len(na) == 0 && len(nb) == 0 {
		return 1
	}
	if len(na) < 2 || len(nb) < 2 {
		if string(na) == string(nb) {
			return 1
		}
		return 0
	}

	grams := make(map[string]int, len(na))
	for i := 0; i+1 < len(na); i++ {
		grams[string(na[i:i+2])]++
	}
	matches := 0
	for i := 0; i+1 < len(nb); i++ {
		g := string(nb[i : i+2])
		if grams[g] > 0 {
			grams[g]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(len(na)-1+len(nb)-1)
}

// itemSimilarity combines title and content similarity with fixed weights.
func itemSimilarity(a, b store.KnowledgeItem) float64 {
	return titleWeight*bigramSimilarity(a.Title, b.Title) +
		contentWeight*bigramSimilarity(a.Content, b.Content)
}

func hasAnnotations(item store.KnowledgeItem) bool {
	if item.Metadata == nil {
		return false
	}
	v, ok := item.Metadata[annotationsKey]
	if !ok {
		return false
	}
	s, isString := v.(string)
	return !isString || s != ""
}

// deduplicate collapses near-identical items across stores. For true
// duplicates the item from the higher-priority store wins, unless the lower
// priority item is user-submitted with explicit annotations. Near-duplicates
// are kept but receive a warning annotation.
func deduplicate(items []store.KnowledgeItem, priorities map[string]int) []store.KnowledgeItem {
	kept := make([]store.KnowledgeItem, 0, len(items))

	for _, candidate := range items {
		dropped := false
		for i := range kept {
			sim := itemSimilarity(kept[i], candidate)
			if sim >= duplicateThreshold {
				if shouldReplace(kept[i], candidate, priorities) {
					kept[i] = candidate
				}
				dropped = true
				break
			}
			if sim >= nearDuplicateThreshold {
				annotateNearDuplicate(&candidate, kept[i].ID)
			}
		}
		if !dropped {
			kept = append(kept, candidate)
		}
	}

	return kept
}

// shouldReplace decides which of two true duplicates survives.
func shouldReplace(current, challenger store.KnowledgeItem, priorities map[string]int) bool {
	// User annotations trump priority in either direction.
	if hasAnnotations(challenger) && !hasAnnotations(current) {
		return true
	}
	if hasAnnotations(current) && !hasAnnotations(challenger) {
		return false
	}
	return priorities[challenger.SourceStore] > priorities[current.SourceStore]
}

func annotateNearDuplicate(item *store.KnowledgeItem, ofID string) {
	if item.Metadata == nil {
		item.Metadata = make(map[string]interface{})
	}
	item.Metadata[nearDuplicateKey] = ofID
}
