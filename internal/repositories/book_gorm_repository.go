package repositories

import (
	"errors"
	"fmt"
	"strings"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBookRepository is a GORM implementation of BookRepository.
type GORMBookRepository struct {
	db *gorm.DB
}

// NewGORMBookRepository creates a new instance of GORMBookRepository.
func NewGORMBookRepository(db *gorm.DB) *GORMBookRepository {
	return &GORMBookRepository{
		db: db,
	}
}

// GetAll retrieves all books ordered by title.
func (r *GORMBookRepository) GetAll() ([]models.Book, error) {
	var books []models.Book
	if err := r.db.Order("title ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to get all books: %w", err)
	}
	return books, nil
}

// GetByID retrieves a single book by its ID.
func (r *GORMBookRepository) GetByID(id string) (*models.Book, error) {
	var book models.Book
	if err := r.db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get book by ID %s: %w", id, err)
	}
	return &book, nil
}

// Search returns one page of books matching the filter.
func (r *GORMBookRepository) Search(filter models.BookFilter) (*models.BookPage, error) {
	filter = filter.Normalized()

	query := r.db.Model(&models.Book{})
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", like, like)
	}
	if a := strings.ToLower(strings.TrimSpace(filter.Author)); a != "" {
		query = query.Where("LOWER(author) LIKE ?", "%"+a+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	order, ok := bookSortColumns[filter.Sort]
	if !ok {
		order = bookSortColumns["title"]
	}
	var books []models.Book
	if err := query.Order(order).Order("id ASC").Offset(filter.Offset()).Limit(filter.PageSize).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return models.NewBookPage(books, filter, total), nil
}

// Create creates a new book.
func (r *GORMBookRepository) Create(book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// Update updates an existing book.
func (r *GORMBookRepository) Update(book *models.Book) error {
	res := r.db.Model(&models.Book{}).Where("id = ?", book.ID).Updates(map[string]interface{}{
		"title":          book.Title,
		"author":         book.Author,
		"price":          book.Price,
		"stock_quantity": book.StockQuantity,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book with ID %s for update: %w", book.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes a book by its ID.
func (r *GORMBookRepository) Delete(id string) error {
	res := r.db.Delete(&models.Book{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book with ID %s for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// DecrementStock removes qty copies, failing when fewer are available.
func (r *GORMBookRepository) DecrementStock(id string, qty int) error {
	return decrementStock(r.db, id, qty)
}

// IncrementStock adds qty copies.
func (r *GORMBookRepository) IncrementStock(id string, qty int) error {
	return incrementStock(r.db, id, qty)
}

func decrementStock(db *gorm.DB, id string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("decrement stock by %d: %w", qty, apperrors.ErrInvalidInput)
	}
	res := db.Model(&models.Book{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for book %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check book %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("book with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return fmt.Errorf("book %s (requested: %d): %w", id, qty, apperrors.ErrInsufficientStock)
	}
	return nil
}

func incrementStock(db *gorm.DB, id string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("increment stock by %d: %w", qty, apperrors.ErrInvalidInput)
	}
	res := db.Model(&models.Book{}).
		Where("id = ?", id).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for book %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
