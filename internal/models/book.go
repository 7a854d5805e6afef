package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book represents a book in the store catalog.
type Book struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title         string          `json:"title" gorm:"type:varchar(255);index" validate:"required,min=1,max=255"`
	Author        string          `json:"author" gorm:"type:varchar(255);index" validate:"required,min=1,max=255"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0" validate:"gte=0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InStock reports whether at least one copy is available.
func (b *Book) InStock() bool {
	return b.StockQuantity > 0
}

// Summary returns the compact representation used in listings and recommendations.
func (b *Book) Summary() BookSummary {
	return BookSummary{
		ID:      b.ID,
		Title:   b.Title,
		Author:  b.Author,
		Price:   b.Price,
		InStock: b.InStock(),
	}
}

// BookSummary is the catalog entry returned by searches and recommendations.
type BookSummary struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Author  string          `json:"author"`
	Price   decimal.Decimal `json:"price"`
	InStock bool            `json:"in_stock"`
}

// BookFilter narrows a catalog listing.
type BookFilter struct {
	Query    string // matches title or author
	Author   string
	Sort     string // title, -title, price, -price, author, -author
	Page     int    // 1-based
	PageSize int
}

// BookPage is one page of a catalog listing.
type BookPage struct {
	Books      []Book `json:"books"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int64  `json:"total_items"`
	TotalPages int    `json:"total_pages"`
}

// DefaultPageSize is the number of books per catalog page.
const DefaultPageSize = 12

// Normalized returns f with page and page size defaults applied.
func (f BookFilter) Normalized() BookFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// Offset is the number of books skipped before the current page.
func (f BookFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// NewBookPage assembles a page for a normalized filter.
func NewBookPage(books []Book, f BookFilter, total int64) *BookPage {
	pages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	return &BookPage{
		Books:      books,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}
