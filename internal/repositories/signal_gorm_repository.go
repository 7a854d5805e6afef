package repositories

import (
	"fmt"

	"tokobuku/internal/recommend"

	"gorm.io/gorm"
)

// GORMSignalRepository answers recommendation queries with SQL aggregates.
type GORMSignalRepository struct {
	db *gorm.DB
}

// NewGORMSignalRepository creates a new instance of GORMSignalRepository.
func NewGORMSignalRepository(db *gorm.DB) *GORMSignalRepository {
	return &GORMSignalRepository{
		db: db,
	}
}

const coCartQuery = `
SELECT ci.book_id AS book_id, COUNT(*) AS frequency
FROM cart_items ci
WHERE ci.cart_id IN (SELECT t.cart_id FROM cart_items t WHERE t.book_id = ?)
  AND ci.book_id <> ?
GROUP BY ci.book_id`

const coOrderQuery = `
SELECT oi.book_id AS book_id, COUNT(*) AS frequency
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.customer_id IN (
    SELECT o2.customer_id FROM order_items oi2
    JOIN orders o2 ON o2.id = oi2.order_id
    WHERE oi2.book_id = ?)
  AND oi.book_id <> ?
GROUP BY oi.book_id`

const likedTogetherQuery = `
SELECT r.book_id AS book_id, COUNT(*) AS rating_count, SUM(r.score) AS score_sum
FROM ratings r
WHERE r.score >= ?
  AND r.book_id <> ?
  AND r.customer_id IN (SELECT t.customer_id FROM ratings t WHERE t.book_id = ? AND t.score >= ?)
GROUP BY r.book_id`

// CoCartFrequencies implements SignalRepository.
func (r *GORMSignalRepository) CoCartFrequencies(bookID string) (map[string]int, error) {
	var rows []frequencyRow
	if err := r.db.Raw(coCartQuery, bookID, bookID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query co-cart frequencies for book %s: %w", bookID, err)
	}
	return frequencies(rows), nil
}

// CoOrderFrequencies implements SignalRepository.
func (r *GORMSignalRepository) CoOrderFrequencies(bookID string) (map[string]int, error) {
	var rows []frequencyRow
	if err := r.db.Raw(coOrderQuery, bookID, bookID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query co-order frequencies for book %s: %w", bookID, err)
	}
	return frequencies(rows), nil
}

// LikedTogether implements SignalRepository.
func (r *GORMSignalRepository) LikedTogether(bookID string, minScore int) (map[string]recommend.RatingStat, error) {
	var rows []ratingRow
	if err := r.db.Raw(likedTogetherQuery, minScore, bookID, bookID, minScore).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query rating similarity for book %s: %w", bookID, err)
	}
	return ratingStats(rows), nil
}

// RatingStats implements SignalRepository.
func (r *GORMSignalRepository) RatingStats() (map[string]recommend.RatingStat, error) {
	var rows []ratingRow
	err := r.db.Table("ratings").
		Select("book_id, COUNT(*) AS rating_count, SUM(score) AS score_sum").
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query rating stats: %w", err)
	}
	return ratingStats(rows), nil
}

// Popularity implements SignalRepository.
func (r *GORMSignalRepository) Popularity() (map[string]int, error) {
	out := make(map[string]int)
	for _, table := range []string{"cart_items", "order_items"} {
		var rows []frequencyRow
		err := r.db.Table(table).
			Select("book_id, COUNT(*) AS frequency").
			Group("book_id").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count %s per book: %w", table, err)
		}
		for _, row := range rows {
			out[row.BookID] += row.Frequency
		}
	}
	return out, nil
}

func frequencies(rows []frequencyRow) map[string]int {
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.BookID] = row.Frequency
	}
	return out
}

func ratingStats(rows []ratingRow) map[string]recommend.RatingStat {
	out := make(map[string]recommend.RatingStat, len(rows))
	for _, row := range rows {
		out[row.BookID] = row.stat()
	}
	return out
}
