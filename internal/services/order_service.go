package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"
	"tokobuku/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routing keys of order events.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusUpdated = "order.status_updated"
	EventOrderCancelled     = "order.cancelled"
)

// EventPublisher sends domain events to a message broker.
type EventPublisher interface {
	PublishEvent(routingKey string, event interface{}) error
}

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	Status     models.OrderStatus `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	BookIDs    []string           `json:"book_ids"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// CheckoutRequest carries the shipping and payment choices for checkout.
type CheckoutRequest struct {
	ShippingMethod models.ShippingMethod `json:"shipping_method" validate:"required"`
	Address        string                `json:"address" validate:"required,max=255"`
	City           string                `json:"city" validate:"required,max=100"`
	PostalCode     string                `json:"postal_code" validate:"required,max=20"`
	Country        string                `json:"country" validate:"required,max=100"`
	PaymentMethod  string                `json:"payment_method" validate:"required"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	bookRepo  repositories.BookRepository
	publisher   EventPublisher
	invalidator Invalidator
}

// NewOrderService creates a new OrderService. publisher and invalidator may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, bookRepo repositories.BookRepository, publisher EventPublisher, invalidator Invalidator) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		bookRepo:    bookRepo,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

func (s *OrderService) changed() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

// Checkout turns the customer's cart into a confirmed, paid order. Stock is
// taken, the order stored and the cart cleared in one transaction.
func (s *OrderService) Checkout(customerID string, req CheckoutRequest) (*models.Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("checkout requires a customer: %w", apperrors.ErrUnauthenticated)
	}
	shippingCost, ok := req.ShippingMethod.Cost()
	if !ok {
		return nil, fmt.Errorf("unknown shipping method %q: %w", req.ShippingMethod, apperrors.ErrInvalidInput)
	}
	if !models.PaymentMethods[req.PaymentMethod] {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.PaymentMethod, apperrors.ErrInvalidInput)
	}

	cart, err := s.cartRepo.GetByOwner(models.CartOwner{CustomerID: customerID})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("customer %s: %w", customerID, apperrors.ErrEmptyCart)
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("customer %s: %w", customerID, apperrors.ErrEmptyCart)
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		CustomerID:      customerID,
		Status:          models.OrderConfirmed,
		ShippingMethod:  req.ShippingMethod,
		ShippingCost:    shippingCost,
		ShippingAddress: req.Address,
		City:            req.City,
		PostalCode:      req.PostalCode,
		Country:         req.Country,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, item := range cart.Items {
		book := item.Book
		if book == nil {
			if book, err = s.bookRepo.GetByID(item.BookID); err != nil {
				return nil, err
			}
		}
		if book.StockQuantity < item.Quantity {
			return nil, fmt.Errorf("%q (requested: %d, available: %d): %w",
				book.Title, item.Quantity, book.StockQuantity, apperrors.ErrInsufficientStock)
		}
		order.Items = append(order.Items, models.OrderItem{
			BookID:   book.ID,
			Title:    book.Title,
			Quantity: item.Quantity,
			Price:    book.Price, // Use price at the time of checkout
		})
	}
	order.Subtotal = order.ItemsTotal()
	order.TotalAmount = order.Subtotal.Add(shippingCost)
	order.PaymentStatus = models.PaymentCompleted
	order.TransactionID = "TXN-" + order.ID

	if err := s.orderRepo.Checkout(order, cart.ItemIDs()); err != nil {
		return nil, fmt.Errorf("checkout for customer %s: %w", customerID, err)
	}
	s.changed()
	log.Printf("Order %s placed by customer %s: total %s", order.ID, customerID, order.TotalAmount)

	s.publish(EventOrderPlaced, order)
	return order, nil
}

func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := OrderEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		Total:      order.TotalAmount,
		OccurredAt: time.Now(),
	}
	for _, item := range order.Items {
		event.BookIDs = append(event.BookIDs, item.BookID)
	}
	if err := s.publisher.PublishEvent(routingKey, event); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	log.Printf("Published %s event for order %s", routingKey, order.ID)
}

// GetCustomerOrders retrieves the customer's orders, newest first.
func (s *OrderService) GetCustomerOrders(customerID string) ([]models.Order, error) {
	return s.orderRepo.ListByCustomer(customerID)
}

// GetCustomerOrder retrieves one of the customer's orders. Orders of other
// customers are reported as not found.
func (s *OrderService) GetCustomerOrder(customerID, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return order, nil
}

// UpdateOrderStatus moves an order along its lifecycle.
func (s *OrderService) UpdateOrderStatus(id string, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("invalid order status %q: %w", status, apperrors.ErrInvalidInput)
	}
	if next == models.OrderCancelled {
		return s.cancel(id)
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("order %s from %s to %s: %w", id, order.Status, next, apperrors.ErrIllegalTransition)
	}
	if err := s.orderRepo.UpdateStatus(id, next); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order.Status = next
	s.publish(EventOrderStatusUpdated, order)
	return order, nil
}

// CancelOrder cancels one of the customer's orders and restores its stock.
func (s *OrderService) CancelOrder(customerID, id string) (*models.Order, error) {
	if _, err := s.GetCustomerOrder(customerID, id); err != nil {
		return nil, err
	}
	return s.cancel(id)
}

func (s *OrderService) cancel(id string) (*models.Order, error) {
	order, err := s.orderRepo.Cancel(id)
	if err != nil {
		return nil, err
	}
	s.changed()
	log.Printf("Order %s cancelled", id)
	s.publish(EventOrderCancelled, order)
	return order, nil
}
