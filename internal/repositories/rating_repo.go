package repositories

import "tokobuku/internal/models"

// RatingRepository defines the interface for rating data access.
type RatingRepository interface {
	// Upsert stores the rating, replacing the score of an existing
	// rating by the same customer for the same book.
	Upsert(rating *models.Rating) error
	// AverageForBook returns the mean score and number of ratings.
	AverageForBook(bookID string) (float64, int, error)
}
