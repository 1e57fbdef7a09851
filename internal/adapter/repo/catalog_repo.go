package repo

import (
	"context"
	"fmt"

	"wisentia/internal/domain"
	"wisentia/internal/infra"
	"wisentia/internal/sqlinline"
)

// CatalogRepoPG reads the course/quiz/video/NFT catalog for quest grounding.
type CatalogRepoPG struct {
	sql infra.SQLExecutor
}

func NewCatalogRepo(sql infra.SQLExecutor) *CatalogRepoPG {
	return &CatalogRepoPG{sql: sql}
}

// Snapshot samples up to domain.SnapshotLimit rows per entity type. The
// category filter is disabled for the general category.
func (r *CatalogRepoPG) Snapshot(ctx context.Context, category string) (*domain.CatalogSnapshot, error) {
	filter := category
	if filter == domain.GeneralCategory {
		filter = ""
	}

	snap := &domain.CatalogSnapshot{}

	rows, err := r.sql.Query(ctx, sqlinline.QSnapshotCourses, filter, domain.SnapshotLimit)
	if err != nil {
		return nil, fmt.Errorf("snapshot courses: %w", err)
	}
	for rows.Next() {
		var c domain.CourseRef
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &c.Difficulty); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Courses = append(snap.Courses, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.sql.Query(ctx, sqlinline.QSnapshotQuizzes, filter, domain.SnapshotLimit)
	if err != nil {
		return nil, fmt.Errorf("snapshot quizzes: %w", err)
	}
	for rows.Next() {
		var q domain.QuizRef
		if err := rows.Scan(&q.ID, &q.Title); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Quizzes = append(snap.Quizzes, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.sql.Query(ctx, sqlinline.QSnapshotVideos, filter, domain.SnapshotLimit)
	if err != nil {
		return nil, fmt.Errorf("snapshot videos: %w", err)
	}
	for rows.Next() {
		var v domain.VideoRef
		if err := rows.Scan(&v.ID, &v.Title, &v.YouTubeID); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Videos = append(snap.Videos, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.sql.Query(ctx, sqlinline.QSnapshotNFTs, domain.SnapshotLimit)
	if err != nil {
		return nil, fmt.Errorf("snapshot nfts: %w", err)
	}
	for rows.Next() {
		var n domain.NFTRef
		if err := rows.Scan(&n.ID, &n.Title, &n.Rarity); err != nil {
			rows.Close()
			return nil, err
		}
		snap.NFTs = append(snap.NFTs, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

func (r *CatalogRepoPG) FindVideoByYouTubeID(ctx context.Context, youtubeID string) (int64, error) {
	var id int64
	if err := r.sql.QueryRow(ctx, sqlinline.QFindVideoByYouTubeID, youtubeID).Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *CatalogRepoPG) CourseExists(ctx context.Context, courseID int64) (bool, error) {
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QCourseExists, courseID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ domain.CatalogRepository = (*CatalogRepoPG)(nil)
