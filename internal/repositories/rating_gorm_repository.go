package repositories

import (
	"fmt"
	"time"

	"tokobuku/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRatingRepository is a GORM implementation of RatingRepository.
type GORMRatingRepository struct {
	db *gorm.DB
}

// NewGORMRatingRepository creates a new instance of GORMRatingRepository.
func NewGORMRatingRepository(db *gorm.DB) *GORMRatingRepository {
	return &GORMRatingRepository{
		db: db,
	}
}

// Upsert inserts the rating or updates the score on (customer_id, book_id) conflict.
func (r *GORMRatingRepository) Upsert(rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}
	rating.UpdatedAt = time.Now()
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return fmt.Errorf("failed to save rating of book %s: %w", rating.BookID, err)
	}
	return nil
}

// AverageForBook returns the mean score and count for a book.
func (r *GORMRatingRepository) AverageForBook(bookID string) (float64, int, error) {
	var row ratingRow
	err := r.db.Model(&models.Rating{}).
		Select("book_id, COUNT(*) AS rating_count, COALESCE(SUM(score), 0) AS score_sum").
		Where("book_id = ?", bookID).
		Group("book_id").
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average ratings of book %s: %w", bookID, err)
	}
	stat := row.stat()
	return stat.Average(), stat.Count, nil
}
