package repositories

import (
	"errors"
	"fmt"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Checkout runs stock decrement, order creation and removal of the ordered
// cart lines in one transaction. Lines added to the cart meanwhile are kept.
func (r *GORMOrderRepository) Checkout(order *models.Order, cartItemIDs []string) error {
	assignOrderIDs(order)
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := decrementStock(tx, item.BookID, item.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if len(cartItemIDs) > 0 {
			if err := tx.Where("id IN ?", cartItemIDs).Delete(&models.CartItem{}).Error; err != nil {
				return fmt.Errorf("failed to remove ordered cart lines: %w", err)
			}
		}
		return nil
	})
}

func assignOrderIDs(order *models.Order) {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	return getOrder(r.db, id)
}

func getOrder(db *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByCustomer retrieves a customer's orders, newest first.
func (r *GORMOrderRepository) ListByCustomer(customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("customer_id = ?", customerID).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// UpdateStatus sets the status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s for status update: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Cancel marks the order cancelled and returns its copies to stock.
func (r *GORMOrderRepository) Cancel(id string) (*models.Order, error) {
	var cancelled *models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		order, err := getOrder(tx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(models.OrderCancelled) {
			return fmt.Errorf("order %s is %s: %w", id, order.Status, apperrors.ErrIllegalTransition)
		}
		for _, item := range order.Items {
			if err := incrementStock(tx, item.BookID, item.Quantity); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
		}
		order.Status = models.OrderCancelled
		if order.PaymentStatus == models.PaymentCompleted {
			order.PaymentStatus = models.PaymentRefunded
		}
		err = tx.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel order %s: %w", id, err)
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}
