package repositories

import "tokobuku/internal/recommend"

// SignalRepository exposes the read-only aggregate queries behind recommendations.
type SignalRepository interface {
	// CoCartFrequencies counts, per other book, its lines in carts that hold bookID.
	CoCartFrequencies(bookID string) (map[string]int, error)
	// CoOrderFrequencies counts, per other book, the order lines of customers who ordered bookID.
	CoOrderFrequencies(bookID string) (map[string]int, error)
	// LikedTogether aggregates scores >= minScore given to other books by
	// customers who scored bookID >= minScore.
	LikedTogether(bookID string, minScore int) (map[string]recommend.RatingStat, error)
	// RatingStats aggregates all ratings per book.
	RatingStats() (map[string]recommend.RatingStat, error)
	// Popularity counts cart lines plus order lines per book.
	Popularity() (map[string]int, error)
}

type frequencyRow struct {
	BookID    string
	Frequency int
}

type ratingRow struct {
	BookID      string
	RatingCount int
	ScoreSum    int
}

func (r ratingRow) stat() recommend.RatingStat {
	return recommend.RatingStat{Count: r.RatingCount, Sum: r.ScoreSum}
}
