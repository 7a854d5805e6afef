package repositories

import (
	"fmt"
	"sync"
	"time"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// Item books are resolved through the book repository on read.
type MockCartRepository struct {
	carts map[string]models.Cart
	books *MockBookRepository
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository(books *MockBookRepository) *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
		books: books,
	}
}

func (r *MockCartRepository) findLocked(owner models.CartOwner) (models.Cart, bool) {
	for _, c := range r.carts {
		if owner.CustomerID != "" && c.CustomerID == owner.CustomerID {
			return c, true
		}
		if owner.CustomerID == "" && c.CustomerID == "" && c.SessionKey == owner.SessionKey {
			return c, true
		}
	}
	return models.Cart{}, false
}

// GetByOwner returns a copy of the owner's cart.
func (r *MockCartRepository) GetByOwner(owner models.CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, fmt.Errorf("cart owner: %w", apperrors.ErrUnauthenticated)
	}
	r.mu.RLock()
	cart, ok := r.findLocked(owner)
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cart for %s: %w", owner, apperrors.ErrNotFound)
	}

	out := cart
	out.Items = make([]models.CartItem, len(cart.Items))
	copy(out.Items, cart.Items)
	for i := range out.Items {
		out.Items[i].Book = nil
		if r.books != nil {
			if book, err := r.books.GetByID(out.Items[i].BookID); err == nil {
				out.Items[i].Book = book
			}
		}
	}
	return &out, nil
}

// CreateEmpty adds a cart without items.
func (r *MockCartRepository) CreateEmpty(owner models.CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, fmt.Errorf("cart owner: %w", apperrors.ErrUnauthenticated)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cart := models.Cart{
		ID:         uuid.New().String(),
		CustomerID: owner.CustomerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if owner.CustomerID == "" {
		cart.SessionKey = owner.SessionKey
	}
	r.carts[cart.ID] = cart
	return &cart, nil
}

// Save stores a copy of the cart.
func (r *MockCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	cart.UpdatedAt = time.Now()
	stored := *cart
	stored.Items = make([]models.CartItem, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		item.CartID = cart.ID
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		stored.Items[i] = *item
		stored.Items[i].Book = nil
	}
	r.carts[cart.ID] = stored
	return nil
}

// Delete removes a cart.
func (r *MockCartRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[id]; !ok {
		return fmt.Errorf("cart with ID %s: %w", id, apperrors.ErrNotFound)
	}
	delete(r.carts, id)
	return nil
}

// removeItemsLocked deletes the cart lines with the given IDs. r.mu must be held.
func (r *MockCartRepository) removeItemsLocked(itemIDs []string) {
	if len(itemIDs) == 0 {
		return
	}
	remove := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		remove[id] = true
	}
	for id, cart := range r.carts {
		kept := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if !remove[item.ID] {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(cart.Items) {
			cart.Items = kept
			cart.UpdatedAt = time.Now()
			r.carts[id] = cart
		}
	}
}
