package repositories

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// Checkout and Cancel hold the book and cart locks so they apply all or nothing.
type MockOrderRepository struct {
	orders map[string]models.Order
	books  *MockBookRepository
	carts  *MockCartRepository
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(books *MockBookRepository, carts *MockCartRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		books:  books,
		carts:  carts,
	}
}

// Checkout validates every line before changing any state.
func (r *MockOrderRepository) Checkout(order *models.Order, cartItemIDs []string) error {
	r.books.mu.Lock()
	defer r.books.mu.Unlock()
	r.carts.mu.Lock()
	defer r.carts.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	needed := make(map[string]int)
	for _, item := range order.Items {
		needed[item.BookID] += item.Quantity
	}
	for bookID, qty := range needed {
		if err := r.books.stockLocked(bookID, qty); err != nil {
			return err
		}
	}
	for bookID, qty := range needed {
		if err := r.books.decrementLocked(bookID, qty); err != nil {
			return err
		}
	}

	assignOrderIDs(order)
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.orders[order.ID] = copyOrder(*order)
	r.carts.removeItemsLocked(cartItemIDs)
	return nil
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
	}
	out := copyOrder(order)
	return &out, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (r *MockOrderRepository) ListByCustomer(customerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			orderList = append(orderList, copyOrder(order))
		}
	}
	sortOrders(orderList)
	return orderList, nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s for status update: %w", id, apperrors.ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// Cancel marks the order cancelled and restores stock.
func (r *MockOrderRepository) Cancel(id string) (*models.Order, error) {
	r.books.mu.Lock()
	defer r.books.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
	}
	if !order.Status.CanTransitionTo(models.OrderCancelled) {
		return nil, fmt.Errorf("order %s is %s: %w", id, order.Status, apperrors.ErrIllegalTransition)
	}
	for _, item := range order.Items {
		if err := r.books.incrementLocked(item.BookID, item.Quantity); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	order.Status = models.OrderCancelled
	if order.PaymentStatus == models.PaymentCompleted {
		order.PaymentStatus = models.PaymentRefunded
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	out := copyOrder(order)
	return &out, nil
}
