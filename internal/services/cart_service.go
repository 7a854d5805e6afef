package services

import (
	"errors"
	"fmt"
	"log"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/config"
	"tokobuku/internal/models"
	"tokobuku/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartResult is the outcome of a cart operation as returned to clients.
type CartResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	Cart       *models.Cart    `json:"cart,omitempty"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

// FailedCartResult wraps err in a failure result.
func FailedCartResult(err error) *CartResult {
	return &CartResult{Success: false, Error: err.Error()}
}

func cartResult(cart *models.Cart, message string) *CartResult {
	return &CartResult{
		Success:    true,
		Message:    message,
		Cart:       cart,
		TotalPrice: cart.TotalPrice(),
		TotalItems: cart.TotalItems(),
	}
}

// CartService handles business logic related to shopping carts.
type CartService struct {
	carts       repositories.CartRepository
	books       repositories.BookRepository
	policy      config.StockPolicy
	invalidator Invalidator
}

// NewCartService creates a new CartService. policy controls how
// UpdateQuantity treats stock. invalidator may be nil.
func NewCartService(carts repositories.CartRepository, books repositories.BookRepository, policy config.StockPolicy, invalidator Invalidator) *CartService {
	if policy == "" {
		policy = config.StockPolicyNone
	}
	return &CartService{
		carts:       carts,
		books:       books,
		policy:      policy,
		invalidator: invalidator,
	}
}

func (s *CartService) changed() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

// save persists the cart and drops recommendations derived from cart contents.
func (s *CartService) save(cart *models.Cart) error {
	if err := s.carts.Save(cart); err != nil {
		return err
	}
	s.changed()
	return nil
}

// findCart returns the owner's cart, or an unsaved empty cart when none exists yet.
func (s *CartService) findCart(owner models.CartOwner) (*models.Cart, bool, error) {
	if !owner.Valid() {
		return nil, false, fmt.Errorf("cart requires a customer or session: %w", apperrors.ErrUnauthenticated)
	}
	cart, err := s.carts.GetByOwner(owner)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &models.Cart{CustomerID: owner.CustomerID, SessionKey: owner.SessionKey, Items: []models.CartItem{}}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

// GetCart returns the owner's cart. No cart is created.
func (s *CartService) GetCart(owner models.CartOwner) (*CartResult, error) {
	cart, _, err := s.findCart(owner)
	if err != nil {
		return nil, err
	}
	return cartResult(cart, ""), nil
}

// AddItem adds quantity copies of a book, creating the cart on first use.
// The requested quantity must not exceed the book's current stock.
func (s *CartService) AddItem(owner models.CartOwner, bookID string, quantity int) (*CartResult, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity %d must be at least 1: %w", quantity, apperrors.ErrInvalidInput)
	}
	book, err := s.books.GetByID(bookID)
	if err != nil {
		return nil, err
	}
	if quantity > book.StockQuantity {
		return nil, fmt.Errorf("%q (requested: %d, available: %d): %w",
			book.Title, quantity, book.StockQuantity, apperrors.ErrInsufficientStock)
	}

	cart, exists, err := s.findCart(owner)
	if err != nil {
		return nil, err
	}
	if !exists {
		if cart, err = s.carts.CreateEmpty(owner); err != nil {
			return nil, err
		}
	}
	if err := cart.AddItem(book, quantity); err != nil {
		return nil, err
	}
	if err := s.save(cart); err != nil {
		return nil, err
	}
	log.Printf("Cart %s: added %d x %s", owner, quantity, book.ID)
	return cartResult(cart, fmt.Sprintf("Added %s to cart", book.Title)), nil
}

// RemoveItem removes a book from the cart. Removing an absent book is not an error.
func (s *CartService) RemoveItem(owner models.CartOwner, bookID string) (*CartResult, error) {
	cart, exists, err := s.findCart(owner)
	if err != nil {
		return nil, err
	}
	item, ok := cart.Item(bookID)
	if !exists || !ok {
		return cartResult(cart, "Item not in cart"), nil
	}
	title := item.Title
	cart.RemoveItem(bookID)
	if err := s.save(cart); err != nil {
		return nil, err
	}
	return cartResult(cart, fmt.Sprintf("Removed %s from cart", title)), nil
}

// UpdateQuantity sets the quantity of a cart line. A quantity of zero or less
// removes the line. Stock handling follows the configured policy.
func (s *CartService) UpdateQuantity(owner models.CartOwner, bookID string, quantity int) (*CartResult, error) {
	if quantity <= 0 {
		return s.RemoveItem(owner, bookID)
	}
	cart, exists, err := s.findCart(owner)
	if err != nil {
		return nil, err
	}
	if _, ok := cart.Item(bookID); !exists || !ok {
		return nil, fmt.Errorf("book %s in cart: %w", bookID, apperrors.ErrNotFound)
	}

	message := "Cart updated"
	if s.policy != config.StockPolicyNone {
		book, err := s.books.GetByID(bookID)
		if err != nil {
			return nil, err
		}
		if quantity > book.StockQuantity {
			if s.policy == config.StockPolicyReject {
				return nil, fmt.Errorf("%q (requested: %d, available: %d): %w",
					book.Title, quantity, book.StockQuantity, apperrors.ErrInsufficientStock)
			}
			quantity = book.StockQuantity
			message = fmt.Sprintf("Only %d copies of %s available; quantity adjusted", quantity, book.Title)
			if quantity == 0 {
				message = fmt.Sprintf("%s is out of stock and was removed", book.Title)
			}
		}
	}

	cart.UpdateQuantity(bookID, quantity)
	if err := s.save(cart); err != nil {
		return nil, err
	}
	return cartResult(cart, message), nil
}

// Clear removes every item from the owner's cart.
func (s *CartService) Clear(owner models.CartOwner) (*CartResult, error) {
	cart, exists, err := s.findCart(owner)
	if err != nil {
		return nil, err
	}
	if !exists || cart.IsEmpty() {
		return cartResult(cart, "Cart is already empty"), nil
	}
	cart.Clear()
	if err := s.save(cart); err != nil {
		return nil, err
	}
	return cartResult(cart, "Cart cleared"), nil
}

// MergeSessionCart moves every line of the anonymous cart held under
// sessionKey into the customer's cart and deletes the session cart. Books
// already in the customer's cart have their quantities added.
func (s *CartService) MergeSessionCart(customerID, sessionKey string) (*CartResult, error) {
	if customerID == "" {
		return nil, fmt.Errorf("merging a cart requires a customer: %w", apperrors.ErrUnauthenticated)
	}
	if sessionKey == "" {
		return nil, fmt.Errorf("merging a cart requires a session key: %w", apperrors.ErrInvalidInput)
	}
	owner := models.CartOwner{CustomerID: customerID}
	session, err := s.carts.GetByOwner(models.CartOwner{SessionKey: sessionKey})
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.GetCart(owner)
	}
	if err != nil {
		return nil, err
	}

	cart, exists, err := s.findCart(owner)
	if err != nil {
		return nil, err
	}
	if !exists {
		if cart, err = s.carts.CreateEmpty(owner); err != nil {
			return nil, err
		}
	}
	merged := 0
	for _, item := range session.Items {
		book := item.Book
		if book == nil {
			if book, err = s.books.GetByID(item.BookID); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				return nil, err
			}
		}
		if err := cart.AddItem(book, item.Quantity); err != nil {
			return nil, err
		}
		merged += item.Quantity
	}
	if err := s.carts.Save(cart); err != nil {
		return nil, err
	}
	if err := s.carts.Delete(session.ID); err != nil {
		return nil, err
	}
	s.changed()
	log.Printf("Cart %s: merged %d copies from session cart %s", owner, merged, session.ID)
	return cartResult(cart, fmt.Sprintf("Merged %d items from your session cart", merged)), nil
}
