package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"

	"github.com/google/uuid"
)

// MockBookRepository is an in-memory implementation of BookRepository.
type MockBookRepository struct {
	books map[string]models.Book
	mu    sync.RWMutex
}

// NewMockBookRepository creates a new instance of MockBookRepository.
func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{
		books: make(map[string]models.Book),
	}
}

// GetAll returns all books ordered by title.
func (r *MockBookRepository) GetAll() ([]models.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookList := make([]models.Book, 0, len(r.books))
	for _, b := range r.books {
		bookList = append(bookList, b)
	}
	sortBooks(bookList, "title")
	return bookList, nil
}

// GetByID returns a book by its ID.
func (r *MockBookRepository) GetByID(id string) (*models.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, fmt.Errorf("book with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return &book, nil
}

// Search returns one page of books matching the filter.
func (r *MockBookRepository) Search(filter models.BookFilter) (*models.BookPage, error) {
	filter = filter.Normalized()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	author := strings.ToLower(strings.TrimSpace(filter.Author))

	r.mu.RLock()
	var matched []models.Book
	for _, b := range r.books {
		title, by := strings.ToLower(b.Title), strings.ToLower(b.Author)
		if q != "" && !strings.Contains(title, q) && !strings.Contains(by, q) {
			continue
		}
		if author != "" && !strings.Contains(by, author) {
			continue
		}
		matched = append(matched, b)
	}
	r.mu.RUnlock()

	sortBooks(matched, filter.Sort)
	total := int64(len(matched))
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return models.NewBookPage(matched[start:end], filter, total), nil
}

func sortBooks(books []models.Book, by string) {
	if _, ok := bookSortColumns[by]; !ok {
		by = "title"
	}
	desc := strings.HasPrefix(by, "-")
	field := strings.TrimPrefix(by, "-")
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i], books[j]
		var cmp int
		switch field {
		case "price":
			cmp = a.Price.Cmp(b.Price)
		case "author":
			cmp = strings.Compare(a.Author, b.Author)
		default:
			cmp = strings.Compare(a.Title, b.Title)
		}
		if cmp == 0 {
			return a.ID < b.ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// Create adds a new book.
func (r *MockBookRepository) Create(book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	r.books[book.ID] = *book
	return nil
}

// Update modifies an existing book.
func (r *MockBookRepository) Update(book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[book.ID]; !ok {
		return fmt.Errorf("book with ID %s for update: %w", book.ID, apperrors.ErrNotFound)
	}
	r.books[book.ID] = *book
	return nil
}

// Delete removes a book by its ID.
func (r *MockBookRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return fmt.Errorf("book with ID %s for deletion: %w", id, apperrors.ErrNotFound)
	}
	delete(r.books, id)
	return nil
}

// DecrementStock removes qty copies, failing when fewer are available.
func (r *MockBookRepository) DecrementStock(id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decrementLocked(id, qty)
}

// IncrementStock adds qty copies.
func (r *MockBookRepository) IncrementStock(id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.incrementLocked(id, qty)
}

// stockLocked checks that qty copies of id can be taken. r.mu must be held.
func (r *MockBookRepository) stockLocked(id string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("decrement stock by %d: %w", qty, apperrors.ErrInvalidInput)
	}
	book, ok := r.books[id]
	if !ok {
		return fmt.Errorf("book with ID %s: %w", id, apperrors.ErrNotFound)
	}
	if book.StockQuantity < qty {
		return fmt.Errorf("book %s (requested: %d, available: %d): %w", id, qty, book.StockQuantity, apperrors.ErrInsufficientStock)
	}
	return nil
}

func (r *MockBookRepository) decrementLocked(id string, qty int) error {
	if err := r.stockLocked(id, qty); err != nil {
		return err
	}
	book := r.books[id]
	book.StockQuantity -= qty
	r.books[id] = book
	return nil
}

func (r *MockBookRepository) incrementLocked(id string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("increment stock by %d: %w", qty, apperrors.ErrInvalidInput)
	}
	book, ok := r.books[id]
	if !ok {
		return fmt.Errorf("book with ID %s: %w", id, apperrors.ErrNotFound)
	}
	book.StockQuantity += qty
	r.books[id] = book
	return nil
}
