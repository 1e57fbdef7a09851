package domain

// GeneratedQuest is the structured quest payload produced by the LLM.
type GeneratedQuest struct {
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	DifficultyLevel   int                `json:"difficultyLevel"`
	RequiredPoints    int                `json:"requiredPoints"`
	RewardPoints      int                `json:"rewardPoints"`
	Conditions        []QuestCondition   `json:"conditions"`
	NFTRecommendation *NFTRecommendation `json:"nftRecommendation,omitempty"`
}

// QuestCondition references a real catalog entity the learner must complete.
type QuestCondition struct {
	Type        string `json:"type"`
	TargetID    *int64 `json:"targetId"`
	TargetValue int    `json:"targetValue"`
	Description string `json:"description"`
}

// NFTRecommendation describes the reward NFT the model suggested for a quest.
type NFTRecommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rarity      string `json:"rarity,omitempty"`
}

// MaterializedQuest records the domain rows created from an approved quest.
type MaterializedQuest struct {
	QuestID        int64  `json:"questId"`
	ConditionCount int    `json:"conditionCount"`
	RewardNFTID    *int64 `json:"rewardNftId,omitempty"`
}

// ActiveQuest is the slice of an existing quest row that duplicate detection
// compares generated content against.
type ActiveQuest struct {
	ID          int64
	Title       string
	Description string
}

// DuplicateMatch references a pre-existing quest that generated content
// resembles closely enough to skip creation.
type DuplicateMatch struct {
	QuestID int64  `json:"questId"`
	Title   string `json:"title"`
	Reason  string `json:"reason"`
}
