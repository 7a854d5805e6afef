package repositories

import (
	"fmt"
	"sync"
	"time"

	"tokobuku/internal/models"

	"github.com/google/uuid"
)

type ratingKey struct {
	customerID string
	bookID     string
}

// MockRatingRepository is an in-memory implementation of RatingRepository.
type MockRatingRepository struct {
	ratings map[ratingKey]models.Rating
	mu      sync.RWMutex
}

// NewMockRatingRepository creates a new instance of MockRatingRepository.
func NewMockRatingRepository() *MockRatingRepository {
	return &MockRatingRepository{
		ratings: make(map[ratingKey]models.Rating),
	}
}

// Upsert stores or replaces the customer's rating for a book.
func (r *MockRatingRepository) Upsert(rating *models.Rating) error {
	if rating.CustomerID == "" || rating.BookID == "" {
		return fmt.Errorf("rating requires customer and book")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{customerID: rating.CustomerID, bookID: rating.BookID}
	now := time.Now()
	if existing, ok := r.ratings[key]; ok {
		existing.Score = rating.Score
		existing.UpdatedAt = now
		r.ratings[key] = existing
		*rating = existing
		return nil
	}
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}
	rating.CreatedAt = now
	rating.UpdatedAt = now
	r.ratings[key] = *rating
	return nil
}

// AverageForBook returns the mean score and count for a book.
func (r *MockRatingRepository) AverageForBook(bookID string) (float64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stat ratingRow
	for key, rating := range r.ratings {
		if key.bookID == bookID {
			stat.RatingCount++
			stat.ScoreSum += rating.Score
		}
	}
	s := stat.stat()
	return s.Average(), s.Count, nil
}
