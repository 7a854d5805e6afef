package repositories

import (
	"tokobuku/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Checkout atomically takes stock for every order line, stores the order
	// and deletes the ordered cart lines. Nothing is written when any step fails.
	Checkout(order *models.Order, cartItemIDs []string) error
	GetByID(id string) (*models.Order, error)
	ListByCustomer(customerID string) ([]models.Order, error)
	UpdateStatus(id string, status models.OrderStatus) error
	// Cancel atomically marks the order cancelled and restores its stock.
	Cancel(id string) (*models.Order, error)
}
