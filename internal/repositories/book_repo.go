package repositories

import (
	"tokobuku/internal/models"
)

// BookRepository defines the interface for book data access.
type BookRepository interface {
	GetAll() ([]models.Book, error)
	GetByID(id string) (*models.Book, error)
	Search(filter models.BookFilter) (*models.BookPage, error)
	Create(book *models.Book) error
	Update(book *models.Book) error
	Delete(id string) error
	DecrementStock(id string, qty int) error
	IncrementStock(id string, qty int) error
}

var bookSortColumns = map[string]string{
	"title":   "title ASC",
	"-title":  "title DESC",
	"price":   "price ASC",
	"-price":  "price DESC",
	"author":  "author ASC",
	"-author": "author DESC",
}
