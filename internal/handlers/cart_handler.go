package handlers

import (
	"tokobuku/internal/middleware"
	"tokobuku/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes. identity must resolve the cart owner.
func (h *CartHandler) RegisterRoutes(router fiber.Router, identity fiber.Handler) {
	cartRoutes := router.Group("/cart", identity)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:bookId", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:bookId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/merge", h.HandleMergeCart)
}

func (h *CartHandler) respond(c *fiber.Ctx, status int, result *services.CartResult, err error) error {
	if err != nil {
		return c.Status(statusFor(err)).JSON(services.FailedCartResult(err))
	}
	return c.Status(status).JSON(result)
}

// HandleGetCart returns the current cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	result, err := h.service.GetCart(middleware.CartOwner(c))
	return h.respond(c, fiber.StatusOK, result, err)
}

// AddItemRequest is the body for adding a book to the cart.
type AddItemRequest struct {
	BookID   string `json:"book_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1"`
}

// HandleAddItem adds a book, merging with an existing line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if ok, err := validate(c, h.validate, req); !ok {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	result, err := h.service.AddItem(middleware.CartOwner(c), req.BookID, req.Quantity)
	return h.respond(c, fiber.StatusOK, result, err)
}

// UpdateItemRequest sets the quantity of a cart line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateItem sets a line quantity. Zero or less removes the line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	result, err := h.service.UpdateQuantity(middleware.CartOwner(c), c.Params("bookId"), req.Quantity)
	return h.respond(c, fiber.StatusOK, result, err)
}

// HandleRemoveItem removes a line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	result, err := h.service.RemoveItem(middleware.CartOwner(c), c.Params("bookId"))
	return h.respond(c, fiber.StatusOK, result, err)
}

// HandleClearCart removes every line from the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	result, err := h.service.Clear(middleware.CartOwner(c))
	return h.respond(c, fiber.StatusOK, result, err)
}

// HandleMergeCart moves the session cart named by the session header into the
// signed-in customer's cart.
func (h *CartHandler) HandleMergeCart(c *fiber.Ctx) error {
	owner := middleware.CartOwner(c)
	result, err := h.service.MergeSessionCart(owner.CustomerID, owner.SessionKey)
	return h.respond(c, fiber.StatusOK, result, err)
}
