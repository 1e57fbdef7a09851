package domain

// CatalogSnapshot is a bounded read-only sample of domain rows handed to the
// quest generator as grounding context. At most SnapshotLimit rows per entity
// type, filtered by category unless the category is GeneralCategory.
type CatalogSnapshot struct {
	Courses []CourseRef `json:"courses,omitempty"`
	Quizzes []QuizRef   `json:"quizzes,omitempty"`
	Videos  []VideoRef  `json:"videos,omitempty"`
	NFTs    []NFTRef    `json:"nfts,omitempty"`
}

// SnapshotLimit caps the rows sampled per entity type.
const SnapshotLimit = 10

// Empty reports whether the snapshot holds no rows at all.
func (s *CatalogSnapshot) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.Courses) == 0 && len(s.Quizzes) == 0 && len(s.Videos) == 0 && len(s.NFTs) == 0
}

// CourseRef is a sampled course row.
type CourseRef struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// QuizRef is a sampled quiz row.
type QuizRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// VideoRef is a sampled video row. YouTubeID is the natural key used when
// materializing video-bound quizzes.
type VideoRef struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	YouTubeID string `json:"youtubeId"`
}

// NFTRef is a sampled NFT row.
type NFTRef struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Rarity string `json:"rarity"`
}
