package repositories

import "tokobuku/internal/models"

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetByOwner returns the owner's cart with items and their books loaded.
	GetByOwner(owner models.CartOwner) (*models.Cart, error)
	CreateEmpty(owner models.CartOwner) (*models.Cart, error)
	// Save persists the cart and replaces its stored items with cart.Items.
	Save(cart *models.Cart) error
	Delete(id string) error
}
