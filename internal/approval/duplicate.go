// Package approval turns an accepted generated payload into real domain rows,
// exactly once, with duplicate detection guarding quest creation.
package approval

import (
	"strings"

	"wisentia/internal/domain"
)

// Scorer decides whether generated quest content duplicates an existing
// quest. Pluggable so the heuristic can be swapped for a stricter algorithm
// without touching the approval workflow.
type Scorer interface {
	Match(title, description string, existing []domain.ActiveQuest) *domain.DuplicateMatch
}

// TokenOverlapScorer is a word-overlap heuristic. False positives and
// negatives are expected and acceptable; it only has to catch the model
// re-generating near-identical quests.
type TokenOverlapScorer struct{}

const (
	titleWordCount   = 3
	titleWordMinLen  = 3
	titleMatchNeeded = 2
	descrMinLength   = 100
	descrWordMinLen  = 4
	descrMatchNeeded = 3
)

func (TokenOverlapScorer) Match(title, description string, existing []domain.ActiveQuest) *domain.DuplicateMatch {
	normTitle := strings.ToLower(strings.TrimSpace(title))
	if normTitle != "" {
		for _, q := range existing {
			if strings.ToLower(strings.TrimSpace(q.Title)) == normTitle {
				return &domain.DuplicateMatch{QuestID: q.ID, Title: q.Title, Reason: "exact_title"}
			}
		}
	}

	words := significantWords(title, titleWordCount, titleWordMinLen)
	if len(words) >= titleMatchNeeded {
		for _, q := range existing {
			haystack := strings.ToLower(q.Title)
			matched := 0
			for _, w := range words {
				if strings.Contains(haystack, w) {
					matched++
				}
			}
			if matched >= titleMatchNeeded {
				return &domain.DuplicateMatch{QuestID: q.ID, Title: q.Title, Reason: "title_overlap"}
			}
		}
	}

	if len(description) > descrMinLength {
		dwords := significantWords(description, 0, descrWordMinLen)
		for _, q := range existing {
			if len(q.Description) <= descrMinLength {
				continue
			}
			haystack := strings.ToLower(q.Description)
			matched := 0
			for _, w := range dwords {
				if strings.Contains(haystack, w) {
					matched++
				}
			}
			if matched >= descrMatchNeeded {
				return &domain.DuplicateMatch{QuestID: q.ID, Title: q.Title, Reason: "description_overlap"}
			}
		}
	}

	return nil
}

// significantWords returns the first limit lowercase words strictly longer
// than minLen. A limit of zero means all qualifying words, deduplicated.
func significantWords(text string, limit, minLen int) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,!?:;"'()`)
		if len(w) <= minLen {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

var _ Scorer = TokenOverlapScorer{}
