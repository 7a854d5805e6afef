package database

import (
	"fmt"
	"log"

	"tokobuku/internal/models"
	"tokobuku/internal/repositories"

	"github.com/shopspring/decimal"
)

// CatalogSeed is the starter catalog loaded into an empty book store.
var CatalogSeed = []models.Book{
	{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", Price: decimal.RequireFromString("39.99"), StockQuantity: 12},
	{Title: "Concurrency in Go", Author: "Katherine Cox-Buday", Price: decimal.RequireFromString("34.50"), StockQuantity: 8},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: decimal.RequireFromString("45.00"), StockQuantity: 15},
	{Title: "Laskar Pelangi", Author: "Andrea Hirata", Price: decimal.RequireFromString("12.50"), StockQuantity: 20},
	{Title: "Bumi Manusia", Author: "Pramoedya Ananta Toer", Price: decimal.RequireFromString("14.75"), StockQuantity: 10},
	{Title: "Cantik Itu Luka", Author: "Eka Kurniawan", Price: decimal.RequireFromString("13.20"), StockQuantity: 6},
	{Title: "The Pragmatic Programmer", Author: "David Thomas", Price: decimal.RequireFromString("42.00"), StockQuantity: 0},
	{Title: "Clean Architecture", Author: "Robert C. Martin", Price: decimal.RequireFromString("9.99"), StockQuantity: 4},
}

// SeedCatalog inserts CatalogSeed when the store holds no books. It returns
// the number of books created.
func SeedCatalog(repo repositories.BookRepository) (int, error) {
	existing, err := repo.GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to check catalog before seeding: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, seed := range CatalogSeed {
		book := seed
		if err := repo.Create(&book); err != nil {
			return created, fmt.Errorf("failed to seed book %q: %w", book.Title, err)
		}
		log.Printf("Seeded book: %s (ID: %s)", book.Title, book.ID)
		created++
	}
	return created, nil
}
