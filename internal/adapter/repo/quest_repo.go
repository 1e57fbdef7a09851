package repo

import (
	"context"
	"fmt"

	"wisentia/internal/domain"
	"wisentia/internal/infra"
	"wisentia/internal/sqlinline"
)

// QuestRepoPG materializes generated quests and serves duplicate-detection
// candidates.
type QuestRepoPG struct {
	sql TxRunner
}

func NewQuestRepo(sql TxRunner) *QuestRepoPG {
	return &QuestRepoPG{sql: sql}
}

// CreateQuest writes the optional reward NFT, the quest row and all of its
// conditions in one transaction. Conditions go in as a single bulk insert.
func (r *QuestRepoPG) CreateQuest(ctx context.Context, quest *domain.GeneratedQuest) (*domain.MaterializedQuest, error) {
	insertNFT, err := infra.StripMarker(sqlinline.QInsertRewardNFT)
	if err != nil {
		return nil, err
	}
	insertQuest, err := infra.StripMarker(sqlinline.QInsertQuest)
	if err != nil {
		return nil, err
	}
	insertConditions, err := infra.StripMarker(sqlinline.QInsertQuestConditions)
	if err != nil {
		return nil, err
	}

	tx, err := r.sql.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var rewardNFTID *int64
	if rec := quest.NFTRecommendation; rec != nil {
		var nftID int64
		if err := tx.QueryRow(ctx, insertNFT, rec.Title, rec.Description, rec.Rarity).Scan(&nftID); err != nil {
			return nil, fmt.Errorf("insert reward nft: %w", err)
		}
		rewardNFTID = &nftID
	}

	var questID int64
	if err := tx.QueryRow(ctx, insertQuest,
		quest.Title,
		quest.Description,
		quest.DifficultyLevel,
		quest.RequiredPoints,
		quest.RewardPoints,
		rewardNFTID,
	).Scan(&questID); err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}

	if len(quest.Conditions) > 0 {
		types := make([]string, len(quest.Conditions))
		targets := make([]*int64, len(quest.Conditions))
		values := make([]int32, len(quest.Conditions))
		descriptions := make([]string, len(quest.Conditions))
		for i, c := range quest.Conditions {
			types[i] = c.Type
			targets[i] = c.TargetID
			values[i] = int32(c.TargetValue)
			descriptions[i] = c.Description
		}
		if _, err := tx.Exec(ctx, insertConditions, questID, types, targets, values, descriptions); err != nil {
			return nil, fmt.Errorf("insert conditions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &domain.MaterializedQuest{
		QuestID:        questID,
		ConditionCount: len(quest.Conditions),
		RewardNFTID:    rewardNFTID,
	}, nil
}

func (r *QuestRepoPG) ActiveQuests(ctx context.Context) ([]domain.ActiveQuest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QActiveQuests)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.ActiveQuest
	for rows.Next() {
		var q domain.ActiveQuest
		if err := rows.Scan(&q.ID, &q.Title, &q.Description); err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

var _ domain.QuestMaterializer = (*QuestRepoPG)(nil)
