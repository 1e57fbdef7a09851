package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wisentia/internal/domain"
	"wisentia/internal/llm"
)

const defaultQuestMaxTokens = 2048

// QuestGenerator produces a themed quest grounded on a live catalog snapshot.
type QuestGenerator struct {
	gw     TextGenerator
	tuning Tuning
	logger zerolog.Logger
}

func NewQuestGenerator(gw TextGenerator, tuning Tuning, logger zerolog.Logger) *QuestGenerator {
	if tuning.MaxTokens <= 0 {
		tuning.MaxTokens = defaultQuestMaxTokens
	}
	return &QuestGenerator{gw: gw, tuning: tuning, logger: logger}
}

const questSystemPrompt = "You are a creative learning-journey designer for an educational platform. You respond only with a single valid JSON object, no markdown, no commentary."

// Condition types the platform understands. The prompt enumerates them so
// the model does not invent new ones.
var questConditionTypes = []string{
	"course_completion",
	"quiz_score",
	"watch_videos",
	"total_points",
}

// BuildQuestPrompt renders the quest prompt, embedding the catalog snapshot
// so every targetId the model emits references a real row.
func BuildQuestPrompt(params domain.GenerationParams, snapshot *domain.CatalogSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Design one quest for the %q category, difficulty %d of 5.\n", params.Category, params.Difficulty)
	fmt.Fprintf(&b, "The quest requires %d points to start and awards %d points on completion.\n", params.RequiredPoints, params.RewardPoints)
	b.WriteString("Give it a creative theme and an engaging title, not a generic one.\n\n")

	b.WriteString("Available platform content (use only these IDs in conditions):\n")
	if snapshot != nil {
		for _, c := range snapshot.Courses {
			fmt.Fprintf(&b, "- course id=%d title=%q category=%q difficulty=%d\n", c.ID, c.Title, c.Category, c.Difficulty)
		}
		for _, q := range snapshot.Quizzes {
			fmt.Fprintf(&b, "- quiz id=%d title=%q\n", q.ID, q.Title)
		}
		for _, v := range snapshot.Videos {
			fmt.Fprintf(&b, "- video id=%d title=%q\n", v.ID, v.Title)
		}
		for _, n := range snapshot.NFTs {
			fmt.Fprintf(&b, "- nft id=%d title=%q rarity=%q\n", n.ID, n.Title, n.Rarity)
		}
	}
	if snapshot.Empty() {
		b.WriteString("- (no catalog rows available; use only the total_points condition type)\n")
	}

	fmt.Fprintf(&b, "\nCondition types: %s.\n", strings.Join(questConditionTypes, ", "))
	b.WriteString(`
Respond with exactly this JSON shape:
{
  "title": "...",
  "description": "...",
  "difficultyLevel": 1,
  "requiredPoints": 0,
  "rewardPoints": 0,
  "conditions": [
    {"type": "course_completion", "targetId": 1, "targetValue": 100, "description": "..."}
  ],
  "nftRecommendation": {"title": "...", "description": "...", "rarity": "rare"}
}

Rules:
- 1 to 4 conditions, each referencing a real id from the list above (targetId may be null only for total_points).
- nftRecommendation is optional; include it when the quest deserves a collectible reward.
`)
	return b.String()
}

// Generate runs one quest generation round trip against the provided
// snapshot. The snapshot is taken by the caller so retries can reuse it.
func (g *QuestGenerator) Generate(ctx context.Context, params domain.GenerationParams, snapshot *domain.CatalogSnapshot) Result {
	res := g.gw.Generate(ctx, llm.Request{
		System:      questSystemPrompt,
		Prompt:      BuildQuestPrompt(params, snapshot),
		MaxTokens:   g.tuning.MaxTokens,
		Timeout:     g.tuning.Timeout,
		Temperature: 0.9,
		JSONMode:    true,
	})
	if !res.Success {
		return failureFromGateway(res)
	}

	span, err := ExtractJSONObject(res.Content)
	if err != nil {
		return validationFailure(err.Error(), res.Content)
	}
	var quest domain.GeneratedQuest
	if err := json.Unmarshal([]byte(span), &quest); err != nil {
		return validationFailure(fmt.Sprintf("parse quest JSON: %v", err), res.Content)
	}

	if strings.TrimSpace(quest.Title) == "" {
		return validationFailure("quest is missing a title", res.Content)
	}
	if strings.TrimSpace(quest.Description) == "" {
		return validationFailure("quest is missing a description", res.Content)
	}
	if quest.Conditions == nil {
		return validationFailure("quest is missing conditions", res.Content)
	}
	if len(quest.Conditions) == 0 {
		// Tolerated: materialization accepts an unconditioned quest.
		g.logger.Warn().Str("title", quest.Title).Msg("generate: quest has no conditions")
	}

	// Point values and difficulty come from the admin's parameters, not the
	// model; the model's numbers are advisory at best.
	quest.DifficultyLevel = params.Difficulty
	quest.RequiredPoints = params.RequiredPoints
	quest.RewardPoints = params.RewardPoints

	g.logger.Debug().
		Int("conditions", len(quest.Conditions)).
		Str("model", res.Model).
		Msg("generate: quest parsed")

	return Result{
		Success: true,
		Quest:   &quest,
		Model:   res.Model,
		Usage:   res.Usage,
		CostUSD: res.CostUSD,
	}
}
