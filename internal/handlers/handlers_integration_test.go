package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"tokobuku/internal/config"
	"tokobuku/internal/database"
	"tokobuku/internal/handlers"
	"tokobuku/internal/middleware"
	"tokobuku/internal/models"
	"tokobuku/internal/repositories"
	"tokobuku/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app   *fiber.App
	books repositories.BookRepository
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T, policy config.StockPolicy) testEnv {
	t.Helper()
	db, err := database.Open(config.Config{
		DBDriver:    "sqlite",
		DatabaseDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		DBLogLevel:  "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	bookRepo := repositories.NewGORMBookRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	ratingRepo := repositories.NewGORMRatingRepository(db)

	recommendations := services.NewRecommendationService(bookRepo, repositories.NewGORMSignalRepository(db), services.RecommendationOptions{DefaultLimit: 5})
	authService := services.NewAuthService(repositories.NewGORMCustomerRepository(db), "test_jwt_secret", 0)
	bookService := services.NewBookService(bookRepo, ratingRepo, recommendations)
	ratingService := services.NewRatingService(ratingRepo, bookRepo, recommendations)
	cartService := services.NewCartService(cartRepo, bookRepo, policy, recommendations)
	orderService := services.NewOrderService(repositories.NewGORMOrderRepository(db), cartRepo, bookRepo, nil, recommendations) // nil for RabbitMQ client

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	protect := middleware.AuthRequired(authService)
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewBookHandler(bookService, ratingService, recommendations).RegisterRoutes(apiV1, protect)
	handlers.NewCartHandler(cartService).RegisterRoutes(apiV1, middleware.Identity(authService))
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, protect)

	return testEnv{app: app, books: bookRepo}
}

func (e testEnv) seed(t *testing.T, title, price string, stock int) *models.Book {
	t.Helper()
	book := &models.Book{Title: title, Author: "Penulis " + title, Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, e.books.Create(book))
	return book
}

type request struct {
	method  string
	path    string
	body    interface{}
	token   string
	session string
}

func (e testEnv) do(t *testing.T, r request, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if r.body != nil {
		jsonBody, err := json.Marshal(r.body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(r.method, r.path, reader)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.session != "" {
		req.Header.Set(middleware.SessionHeader, r.session)
	}
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e testEnv) login(t *testing.T, email string) string {
	t.Helper()
	status := e.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"name": "Pelanggan", "email": email, "password": "password123",
	}}, nil)
	require.Equal(t, http.StatusCreated, status)

	var loginResp map[string]interface{}
	status = e.do(t, request{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"email": email, "password": "password123",
	}}, &loginResp)
	require.Equal(t, http.StatusOK, status)
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t, config.StockPolicyNone)
	env.login(t, "test@example.com")

	// Duplicate registration
	var failure map[string]interface{}
	status := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"name": "Lagi", "email": "TEST@example.com", "password": "password123",
	}}, &failure)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, failure["success"])

	// Invalid payload
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"name": "x", "email": "not-an-email", "password": "1",
	}}, &failure)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, failure, "errors")

	// Wrong password
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"email": "test@example.com", "password": "wrongpassword",
	}}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBookEndpoints(t *testing.T) {
	env := setupApp(t, config.StockPolicyNone)
	env.seed(t, "Laskar Pelangi", "12.50", 3)

	// Writes require a token
	status := env.do(t, request{method: http.MethodPost, path: "/api/v1/books", body: map[string]interface{}{
		"title": "Ronggeng Dukuh Paruk", "author": "Ahmad Tohari", "price": "11.00", "stock_quantity": 4,
	}}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.login(t, "admin@example.com")
	var created models.Book
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/books", token: token, body: map[string]interface{}{
		"title": "Ronggeng Dukuh Paruk", "author": "Ahmad Tohari", "price": "11.00", "stock_quantity": 4,
	}}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("11.00")))

	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/books", token: token, body: map[string]interface{}{
		"title": "Negative", "author": "Nobody", "price": "-1", "stock_quantity": 1,
	}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var page models.BookPage
	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/books?q=ronggeng"}, &page)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, page.TotalItems)

	var summaries []models.BookSummary
	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/books/search?q=pelangi"}, &summaries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].InStock)

	var adjusted models.Book
	status = env.do(t, request{method: http.MethodPatch, path: "/api/v1/books/" + created.ID + "/stock", token: token,
		body: map[string]int{"delta": -4}}, &adjusted)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, adjusted.StockQuantity)

	status = env.do(t, request{method: http.MethodPatch, path: "/api/v1/books/" + created.ID + "/stock", token: token,
		body: map[string]int{"delta": -1}}, nil)
	assert.Equal(t, http.StatusConflict, status)

	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/books/" + created.ID + "/rate", token: token,
		body: map[string]int{"score": 5}}, nil)
	assert.Equal(t, http.StatusOK, status)
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/books/" + created.ID + "/rate", token: token,
		body: map[string]int{"score": 9}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var detail struct {
		Book            services.BookDetail  `json:"book"`
		Recommendations []models.BookSummary `json:"recommendations"`
	}
	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/books/" + created.ID}, &detail)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, detail.Book.RatingCount)
	assert.Equal(t, 5.0, detail.Book.AverageRating)
	for _, r := range detail.Recommendations {
		assert.NotEqual(t, created.ID, r.ID)
	}

	status = env.do(t, request{method: http.MethodDelete, path: "/api/v1/books/" + created.ID, token: token}, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/books/" + created.ID}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSessionCart(t *testing.T) {
	env := setupApp(t, config.StockPolicyReject)
	a := env.seed(t, "A", "12.50", 5)
	b := env.seed(t, "B", "9.99", 5)

	// No identity at all
	var result services.CartResult
	status := env.do(t, request{method: http.MethodGet, path: "/api/v1/cart"}, &result)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	session := "sess-" + uuid.NewString()
	for _, add := range []struct {
		id  string
		qty int
	}{{a.ID, 1}, {a.ID, 1}, {b.ID, 1}} {
		status = env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", session: session,
			body: map[string]interface{}{"book_id": add.id, "quantity": add.qty}}, &result)
		require.Equal(t, http.StatusOK, status)
	}
	assert.True(t, result.Success)
	assert.Len(t, result.Cart.Items, 2)
	assert.Equal(t, 3, result.TotalItems)
	assert.True(t, result.TotalPrice.Equal(decimal.RequireFromString("34.99")))

	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", session: session,
		body: map[string]interface{}{"book_id": a.ID, "quantity": 6}}, &result)
	assert.Equal(t, http.StatusConflict, status)

	status = env.do(t, request{method: http.MethodPut, path: "/api/v1/cart/items/" + a.ID, session: session,
		body: map[string]int{"quantity": 9}}, &result)
	assert.Equal(t, http.StatusConflict, status)

	status = env.do(t, request{method: http.MethodPut, path: "/api/v1/cart/items/" + a.ID, session: session,
		body: map[string]int{"quantity": 0}}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, result.TotalItems)

	status = env.do(t, request{method: http.MethodDelete, path: "/api/v1/cart/items/" + a.ID, session: session}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)

	status = env.do(t, request{method: http.MethodDelete, path: "/api/v1/cart", session: session}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, result.TotalItems)
}

func TestMergeSessionCartOnSignIn(t *testing.T) {
	env := setupApp(t, config.StockPolicyNone)
	a := env.seed(t, "A", "12.50", 5)
	session := "sess-" + uuid.NewString()

	status := env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", session: session,
		body: map[string]interface{}{"book_id": a.ID, "quantity": 2}}, nil)
	require.Equal(t, http.StatusOK, status)

	// Merging needs a signed-in customer.
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/merge", session: session}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.login(t, "tamu@example.com")
	var result services.CartResult
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/merge", token: token, session: session}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalItems)

	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", session: session}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, result.TotalItems)

	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", token: token}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, result.TotalItems)
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	env := setupApp(t, config.StockPolicyNone)
	a := env.seed(t, "A", "12.50", 2)
	token := env.login(t, "pembeli@example.com")

	checkout := map[string]string{
		"shipping_method": "overnight", "address": "Jl. Diponegoro 9", "city": "Surabaya",
		"postal_code": "60241", "country": "ID", "payment_method": "credit_card",
	}

	// Orders need a token
	status := env.do(t, request{method: http.MethodPost, path: "/api/v1/orders/checkout", body: checkout}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Empty cart
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/orders/checkout", token: token, body: checkout}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", token: token,
		body: map[string]interface{}{"book_id": a.ID, "quantity": 2}}, nil)
	require.Equal(t, http.StatusOK, status)

	var order models.Order
	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/orders/checkout", token: token, body: checkout}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, models.OrderConfirmed, order.Status)

	stock, err := env.books.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.StockQuantity)

	var orders []models.Order
	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/orders", token: token}, &orders)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, orders, 1)

	other := env.login(t, "lain@example.com")
	status = env.do(t, request{method: http.MethodGet, path: "/api/v1/orders/" + order.ID, token: other}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = env.do(t, request{method: http.MethodPatch, path: "/api/v1/orders/" + order.ID + "/status", token: token,
		body: map[string]string{"status": "delivered"}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status = env.do(t, request{method: http.MethodPost, path: "/api/v1/orders/" + order.ID + "/cancel", token: token}, nil)
	require.Equal(t, http.StatusOK, status)
	stock, err = env.books.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stock.StockQuantity)
}
