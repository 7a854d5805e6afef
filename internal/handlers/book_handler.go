package handlers

import (
	"log"

	"tokobuku/internal/middleware"
	"tokobuku/internal/models"
	"tokobuku/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// BookHandler handles HTTP requests for the catalog, ratings and recommendations.
type BookHandler struct {
	books           *services.BookService
	ratings         *services.RatingService
	recommendations *services.RecommendationService
	validate        *validator.Validate
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(books *services.BookService, ratings *services.RatingService, recommendations *services.RecommendationService) *BookHandler {
	return &BookHandler{
		books:           books,
		ratings:         ratings,
		recommendations: recommendations,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the book routes. Writes go through protect.
func (h *BookHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	bookRoutes := router.Group("/books")
	bookRoutes.Get("/", h.HandleListBooks)
	bookRoutes.Get("/search", h.HandleQuickSearch)
	bookRoutes.Get("/:id", h.HandleGetBook)
	bookRoutes.Get("/:id/recommendations", h.HandleRecommendations)
	bookRoutes.Post("/", protect, h.HandleCreateBook)
	bookRoutes.Put("/:id", protect, h.HandleUpdateBook)
	bookRoutes.Delete("/:id", protect, h.HandleDeleteBook)
	bookRoutes.Patch("/:id/stock", protect, h.HandleAdjustStock)
	bookRoutes.Post("/:id/rate", protect, h.HandleRateBook)
}

// BookRequest is the body for creating or replacing a book.
type BookRequest struct {
	Title         string          `json:"title" validate:"required,min=1,max=255"`
	Author        string          `json:"author" validate:"required,min=1,max=255"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
}

func (r BookRequest) book(id string) *models.Book {
	return &models.Book{
		ID:            id,
		Title:         r.Title,
		Author:        r.Author,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
	}
}

// HandleListBooks returns one page of the catalog.
func (h *BookHandler) HandleListBooks(c *fiber.Ctx) error {
	filter := models.BookFilter{
		Query:    c.Query("q"),
		Author:   c.Query("author"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", models.DefaultPageSize),
	}
	page, err := h.books.ListBooks(filter)
	if err != nil {
		return fail(c, "Could not retrieve books", err)
	}
	return c.JSON(page)
}

// HandleQuickSearch returns a short list of summaries for type-ahead search.
func (h *BookHandler) HandleQuickSearch(c *fiber.Ctx) error {
	results, err := h.books.QuickSearch(c.Query("q"))
	if err != nil {
		return fail(c, "Could not search books", err)
	}
	return c.JSON(results)
}

// HandleGetBook returns the book detail with its rating and recommendations.
func (h *BookHandler) HandleGetBook(c *fiber.Ctx) error {
	bookID := c.Params("id")
	detail, err := h.books.GetBookDetail(bookID)
	if err != nil {
		return fail(c, "Could not retrieve book", err)
	}
	recommended, err := h.recommendations.Recommend(bookID, 0)
	if err != nil {
		// The detail page still renders without recommendations.
		log.Printf("Error computing recommendations for book %s: %v", bookID, err)
		recommended = []models.BookSummary{}
	}
	return c.JSON(fiber.Map{
		"book":            detail,
		"recommendations": recommended,
	})
}

// HandleRecommendations returns the ranked related books.
func (h *BookHandler) HandleRecommendations(c *fiber.Ctx) error {
	recommended, err := h.recommendations.Recommend(c.Params("id"), c.QueryInt("limit", 0))
	if err != nil {
		return fail(c, "Could not compute recommendations", err)
	}
	return c.JSON(recommended)
}

// HandleCreateBook creates a new book.
func (h *BookHandler) HandleCreateBook(c *fiber.Ctx) error {
	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if ok, err := validate(c, h.validate, req); !ok {
		return err
	}
	book := req.book("")
	if err := h.books.CreateBook(book); err != nil {
		return fail(c, "Could not create book", err)
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

// HandleUpdateBook replaces the fields of an existing book.
func (h *BookHandler) HandleUpdateBook(c *fiber.Ctx) error {
	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if ok, err := validate(c, h.validate, req); !ok {
		return err
	}
	book := req.book(c.Params("id"))
	if err := h.books.UpdateBook(book); err != nil {
		return fail(c, "Could not update book", err)
	}
	updated, err := h.books.GetBookByID(book.ID)
	if err != nil {
		return fail(c, "Could not retrieve book", err)
	}
	return c.JSON(updated)
}

// HandleDeleteBook deletes a book.
func (h *BookHandler) HandleDeleteBook(c *fiber.Ctx) error {
	if err := h.books.DeleteBook(c.Params("id")); err != nil {
		return fail(c, "Could not delete book", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StockRequest adjusts stock by a signed delta.
type StockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// HandleAdjustStock adds or removes copies.
func (h *BookHandler) HandleAdjustStock(c *fiber.Ctx) error {
	var req StockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if ok, err := validate(c, h.validate, req); !ok {
		return err
	}
	book, err := h.books.AdjustStock(c.Params("id"), req.Delta)
	if err != nil {
		return fail(c, "Could not adjust stock", err)
	}
	return c.JSON(book)
}

// RateRequest is the body of a rating.
type RateRequest struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}

// HandleRateBook records the customer's score for the book.
func (h *BookHandler) HandleRateBook(c *fiber.Ctx) error {
	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if ok, err := validate(c, h.validate, req); !ok {
		return err
	}
	rating, err := h.ratings.Rate(middleware.CustomerID(c), c.Params("id"), req.Score)
	if err != nil {
		return fail(c, "Could not rate book", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"rating":  rating,
	})
}
