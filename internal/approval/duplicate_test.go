package approval

import (
	"strings"
	"testing"

	"wisentia/internal/domain"
)

var existingQuests = []domain.ActiveQuest{
	{ID: 7, Title: "The Code Breaker's Journey", Description: "Decrypt the legacy systems and restore the archive."},
	{ID: 8, Title: "Path of the Polyglot", Description: "Learn three languages."},
}

func TestScorerExactTitle(t *testing.T) {
	dup := TokenOverlapScorer{}.Match("the code breaker's journey", "anything", existingQuests)
	if dup == nil {
		t.Fatal("expected a match")
	}
	if dup.QuestID != 7 || dup.Reason != "exact_title" {
		t.Fatalf("dup = %+v", dup)
	}
}

func TestScorerTitleOverlapTwoWords(t *testing.T) {
	// "code" and "breaker" both appear in the existing title.
	dup := TokenOverlapScorer{}.Match("Code Breaker Challenge", "something fresh", existingQuests)
	if dup == nil {
		t.Fatal("expected a title_overlap match")
	}
	if dup.QuestID != 7 || dup.Reason != "title_overlap" {
		t.Fatalf("dup = %+v", dup)
	}
}

func TestScorerSingleSharedWordPasses(t *testing.T) {
	// Only "code" overlaps; one shared word is not a duplicate.
	dup := TokenOverlapScorer{}.Match("Code Masters Arena", "a new adventure", existingQuests)
	if dup != nil {
		t.Fatalf("unexpected match: %+v", dup)
	}
}

func TestScorerDescriptionOverlap(t *testing.T) {
	shared := "Explore the ancient repository, document every undiscovered function and refactor the forgotten modules before the deadline arrives."
	existing := []domain.ActiveQuest{
		{ID: 12, Title: "Completely Different Name", Description: shared},
	}
	novel := "Venture into the ancient repository to document each undiscovered function, then refactor all forgotten modules carefully."
	dup := TokenOverlapScorer{}.Match("Unrelated Title", novel, existing)
	if dup == nil {
		t.Fatal("expected a description_overlap match")
	}
	if dup.Reason != "description_overlap" {
		t.Fatalf("reason = %q", dup.Reason)
	}
}

func TestScorerShortDescriptionsNotCompared(t *testing.T) {
	existing := []domain.ActiveQuest{{ID: 13, Title: "Another Name", Description: "short text"}}
	dup := TokenOverlapScorer{}.Match("Fresh Title", "also short", existing)
	if dup != nil {
		t.Fatalf("unexpected match: %+v", dup)
	}
}

func TestSignificantWords(t *testing.T) {
	words := significantWords("The Code Breaker's Journey!", 3, 3)
	want := []string{"code", "breaker's", "journey"}
	if strings.Join(words, ",") != strings.Join(want, ",") {
		t.Fatalf("words = %v, want %v", words, want)
	}
}
