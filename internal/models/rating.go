package models

import "time"

// Rating is a customer's 1-5 score for a book. One rating per customer and book.
type Rating struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string    `json:"customer_id" gorm:"type:varchar(36);uniqueIndex:idx_rating_customer_book"`
	BookID     string    `json:"book_id" gorm:"type:varchar(36);uniqueIndex:idx_rating_customer_book;index"`
	Score      int       `json:"score" validate:"required,min=1,max=5"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// ValidScore reports whether score is within the accepted rating range.
func ValidScore(score int) bool {
	return score >= MinRatingScore && score <= MaxRatingScore
}
