package services

import (
	"fmt"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"
	"tokobuku/internal/repositories"
)

// RatingService records customer ratings.
type RatingService struct {
	ratings     repositories.RatingRepository
	books       repositories.BookRepository
	invalidator Invalidator
}

// NewRatingService creates a new RatingService. invalidator may be nil.
func NewRatingService(ratings repositories.RatingRepository, books repositories.BookRepository, invalidator Invalidator) *RatingService {
	return &RatingService{
		ratings:     ratings,
		books:       books,
		invalidator: invalidator,
	}
}

// Rate stores the customer's score for a book, replacing an earlier one.
func (s *RatingService) Rate(customerID, bookID string, score int) (*models.Rating, error) {
	if customerID == "" {
		return nil, fmt.Errorf("rating requires a customer: %w", apperrors.ErrUnauthenticated)
	}
	if !models.ValidScore(score) {
		return nil, fmt.Errorf("score %d must be between %d and %d: %w",
			score, models.MinRatingScore, models.MaxRatingScore, apperrors.ErrInvalidInput)
	}
	if _, err := s.books.GetByID(bookID); err != nil {
		return nil, err
	}

	rating := &models.Rating{CustomerID: customerID, BookID: bookID, Score: score}
	if err := s.ratings.Upsert(rating); err != nil {
		return nil, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	return rating, nil
}
