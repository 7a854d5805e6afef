package repositories_test

import (
	"io"
	"log"
	"os"
	"testing"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/config"
	"tokobuku/internal/database"
	"tokobuku/internal/models"
	"tokobuku/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Config{
		DBDriver:    "sqlite",
		DatabaseDSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		DBLogLevel:  "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createBook(t *testing.T, repo repositories.BookRepository, title, price string, stock int) *models.Book {
	t.Helper()
	book := &models.Book{Title: title, Author: "Author of " + title, Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, repo.Create(book))
	return book
}

func TestGORMBookRepository_StockIsConditional(t *testing.T) {
	repo := repositories.NewGORMBookRepository(newTestDB(t))
	book := createBook(t, repo, "Bumi Manusia", "14.75", 3)

	require.NoError(t, repo.DecrementStock(book.ID, 2))
	err := repo.DecrementStock(book.ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	err = repo.DecrementStock(uuid.NewString(), 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.DecrementStock(book.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, repo.IncrementStock(book.ID, 4))
	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("14.75")))
}

func TestGORMBookRepository_Search(t *testing.T) {
	repo := repositories.NewGORMBookRepository(newTestDB(t))
	createBook(t, repo, "Go in Action", "30.00", 1)
	createBook(t, repo, "Learning Go", "25.00", 1)
	createBook(t, repo, "Laskar Pelangi", "12.50", 1)

	page, err := repo.Search(models.BookFilter{Query: "go", Sort: "-price"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)
	require.Len(t, page.Books, 2)
	assert.Equal(t, "Go in Action", page.Books[0].Title)
	assert.Equal(t, models.DefaultPageSize, page.PageSize)

	page, err = repo.Search(models.BookFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Learning Go", page.Books[0].Title)
}

func TestGORMCartRepository_SaveReplacesItems(t *testing.T) {
	db := newTestDB(t)
	books := repositories.NewGORMBookRepository(db)
	carts := repositories.NewGORMCartRepository(db)
	a := createBook(t, books, "A", "12.50", 5)
	b := createBook(t, books, "B", "9.99", 5)

	owner := models.CartOwner{SessionKey: "sess-1"}
	_, err := carts.GetByOwner(owner)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	cart, err := carts.CreateEmpty(owner)
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(a, 2))
	require.NoError(t, cart.AddItem(b, 1))
	require.NoError(t, carts.Save(cart))

	loaded, err := carts.GetByOwner(owner)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	require.NotNil(t, loaded.Items[0].Book)
	assert.True(t, loaded.TotalPrice().Equal(decimal.RequireFromString("34.99")))

	loaded.RemoveItem(a.ID)
	require.NoError(t, carts.Save(loaded))
	loaded, err = carts.GetByOwner(owner)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, b.ID, loaded.Items[0].BookID)

	// A customer cart is looked up separately from session carts.
	_, err = carts.GetByOwner(models.CartOwner{CustomerID: uuid.NewString()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = carts.GetByOwner(models.CartOwner{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func newOrder(customerID string, books ...*models.Book) *models.Order {
	order := &models.Order{CustomerID: customerID, Status: models.OrderConfirmed, PaymentStatus: models.PaymentCompleted}
	for _, b := range books {
		order.Items = append(order.Items, models.OrderItem{BookID: b.ID, Title: b.Title, Quantity: 1, Price: b.Price})
	}
	return order
}

func TestGORMOrderRepository_CheckoutIsAtomic(t *testing.T) {
	db := newTestDB(t)
	books := repositories.NewGORMBookRepository(db)
	carts := repositories.NewGORMCartRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	a := createBook(t, books, "A", "10.00", 2)
	b := createBook(t, books, "B", "20.00", 0)

	cart, err := carts.CreateEmpty(models.CartOwner{CustomerID: "c1"})
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(a, 1))
	require.NoError(t, carts.Save(cart))

	err = orders.Checkout(newOrder("c1", a, b), cart.ItemIDs())
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	// Nothing changed: stock, orders and cart are untouched.
	got, err := books.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQuantity)
	placed, err := orders.ListByCustomer("c1")
	require.NoError(t, err)
	assert.Empty(t, placed)
	loaded, err := carts.GetByOwner(models.CartOwner{CustomerID: "c1"})
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 1)

	order := newOrder("c1", a)
	require.NoError(t, orders.Checkout(order, cart.ItemIDs()))
	got, err = books.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)
	loaded, err = carts.GetByOwner(models.CartOwner{CustomerID: "c1"})
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())

	listed, err := orders.ListByCustomer("c1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Items, 1)
}

func TestGORMOrderRepository_CheckoutKeepsLinesAddedMeanwhile(t *testing.T) {
	db := newTestDB(t)
	books := repositories.NewGORMBookRepository(db)
	carts := repositories.NewGORMCartRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	a := createBook(t, books, "A", "10.00", 5)
	b := createBook(t, books, "B", "20.00", 5)
	owner := models.CartOwner{CustomerID: "c1"}

	cart, err := carts.CreateEmpty(owner)
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(a, 1))
	require.NoError(t, carts.Save(cart))
	ordered, err := carts.GetByOwner(owner)
	require.NoError(t, err)

	// B lands in the cart after the order was priced from the loaded cart.
	current, err := carts.GetByOwner(owner)
	require.NoError(t, err)
	require.NoError(t, current.AddItem(b, 1))
	require.NoError(t, carts.Save(current))

	require.NoError(t, orders.Checkout(newOrder("c1", a), ordered.ItemIDs()))

	loaded, err := carts.GetByOwner(owner)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, b.ID, loaded.Items[0].BookID)
}

func TestGORMOrderRepository_CancelRestoresStock(t *testing.T) {
	db := newTestDB(t)
	books := repositories.NewGORMBookRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	a := createBook(t, books, "A", "10.00", 1)

	order := newOrder("c1", a)
	require.NoError(t, orders.Checkout(order, nil))

	cancelled, err := orders.Cancel(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)

	got, err := books.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)

	_, err = orders.Cancel(order.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	_, err = orders.Cancel(uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGORMCustomerRepository_UniqueEmail(t *testing.T) {
	repo := repositories.NewGORMCustomerRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.Customer{Name: "Sari", Email: "Sari@Example.com", Password: "hash"}))

	err := repo.Create(&models.Customer{Name: "Sari Lain", Email: "sari@example.com", Password: "hash"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	got, err := repo.GetByEmail("SARI@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Sari", got.Name)
}

func TestGORMRatingRepository_UpsertReplacesScore(t *testing.T) {
	repo := repositories.NewGORMRatingRepository(newTestDB(t))

	require.NoError(t, repo.Upsert(&models.Rating{CustomerID: "c1", BookID: "b1", Score: 2}))
	require.NoError(t, repo.Upsert(&models.Rating{CustomerID: "c1", BookID: "b1", Score: 5}))
	require.NoError(t, repo.Upsert(&models.Rating{CustomerID: "c2", BookID: "b1", Score: 4}))

	avg, count, err := repo.AverageForBook("b1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 4.5, avg)

	avg, count, err = repo.AverageForBook("none")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
}
