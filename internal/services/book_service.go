package services

import (
	"fmt"
	"strings"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"
	"tokobuku/internal/repositories"
)

// QuickSearchLimit caps the number of quick search results.
const QuickSearchLimit = 10

// Invalidator drops cached data derived from the catalog or activity.
type Invalidator interface {
	Invalidate()
}

// BookDetail is a book with its rating summary.
type BookDetail struct {
	models.Book
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// BookService handles business logic related to the catalog.
type BookService struct {
	repo        repositories.BookRepository
	ratings     repositories.RatingRepository
	invalidator Invalidator
}

// NewBookService creates a new BookService. invalidator may be nil.
func NewBookService(repo repositories.BookRepository, ratings repositories.RatingRepository, invalidator Invalidator) *BookService {
	return &BookService{
		repo:        repo,
		ratings:     ratings,
		invalidator: invalidator,
	}
}

func (s *BookService) changed() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

// ListBooks returns one page of the catalog.
func (s *BookService) ListBooks(filter models.BookFilter) (*models.BookPage, error) {
	return s.repo.Search(filter)
}

// QuickSearch returns up to QuickSearchLimit summaries matching q.
func (s *BookService) QuickSearch(q string) ([]models.BookSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.BookSummary{}, nil
	}
	page, err := s.repo.Search(models.BookFilter{Query: q, PageSize: QuickSearchLimit})
	if err != nil {
		return nil, err
	}
	out := make([]models.BookSummary, 0, len(page.Books))
	for i := range page.Books {
		out = append(out, page.Books[i].Summary())
	}
	return out, nil
}

// GetBookByID retrieves a single book by its ID.
func (s *BookService) GetBookByID(id string) (*models.Book, error) {
	return s.repo.GetByID(id)
}

// GetBookDetail returns the book with its average rating.
func (s *BookService) GetBookDetail(id string) (*BookDetail, error) {
	book, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	detail := &BookDetail{Book: *book}
	if s.ratings != nil {
		avg, count, err := s.ratings.AverageForBook(id)
		if err != nil {
			return nil, err
		}
		detail.AverageRating = avg
		detail.RatingCount = count
	}
	return detail, nil
}

func validateBook(book *models.Book) error {
	if book.Price.IsNegative() {
		return fmt.Errorf("price %s must not be negative: %w", book.Price, apperrors.ErrInvalidInput)
	}
	if book.StockQuantity < 0 {
		return fmt.Errorf("stock quantity %d must not be negative: %w", book.StockQuantity, apperrors.ErrInvalidInput)
	}
	return nil
}

// CreateBook creates a new book.
func (s *BookService) CreateBook(book *models.Book) error {
	if err := validateBook(book); err != nil {
		return err
	}
	if err := s.repo.Create(book); err != nil {
		return err
	}
	s.changed()
	return nil
}

// UpdateBook updates an existing book.
func (s *BookService) UpdateBook(book *models.Book) error {
	if err := validateBook(book); err != nil {
		return err
	}
	if err := s.repo.Update(book); err != nil {
		return err
	}
	s.changed()
	return nil
}

// DeleteBook deletes a book by its ID.
func (s *BookService) DeleteBook(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// AdjustStock adds delta copies (or removes them when negative) and returns the updated book.
func (s *BookService) AdjustStock(id string, delta int) (*models.Book, error) {
	var err error
	switch {
	case delta > 0:
		err = s.repo.IncrementStock(id, delta)
	case delta < 0:
		err = s.repo.DecrementStock(id, -delta)
	default:
		return nil, fmt.Errorf("stock adjustment must not be zero: %w", apperrors.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	s.changed()
	return s.repo.GetByID(id)
}
