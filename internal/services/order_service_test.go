package services_test

import (
	"errors"
	"testing"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/config"
	"tokobuku/internal/models"
	"tokobuku/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(routingKey string, event interface{}) error {
	args := m.Called(routingKey, event)
	return args.Error(0)
}

var checkoutRequest = services.CheckoutRequest{
	ShippingMethod: models.ShippingExpress,
	Address:        "Jl. Merdeka 1",
	City:           "Bandung",
	PostalCode:     "40111",
	Country:        "ID",
	PaymentMethod:  "bank_transfer",
}

func fillCart(t *testing.T, st store, customerID string, lines map[string]int) {
	t.Helper()
	carts := services.NewCartService(st.carts, st.books, config.StockPolicyNone, nil)
	for id, qty := range lines {
		_, err := carts.AddItem(models.CartOwner{CustomerID: customerID}, id, qty)
		require.NoError(t, err)
	}
}

func TestOrderService_Checkout(t *testing.T) {
	st := newStore()
	st.book(t, "A", "12.50", 5)
	st.book(t, "B", "9.99", 1)
	publisher := new(MockEventPublisher)
	svc := services.NewOrderService(st.orders, st.carts, st.books, publisher, nil)

	fillCart(t, st, "c1", map[string]int{"A": 2, "B": 1})
	publisher.On("PublishEvent", services.EventOrderPlaced, mock.AnythingOfType("services.OrderEvent")).Return(nil).Once()

	order, err := svc.Checkout("c1", checkoutRequest)
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, models.PaymentCompleted, order.PaymentStatus)
	assert.Equal(t, "TXN-"+order.ID, order.TransactionID)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("34.99")))
	assert.True(t, order.ShippingCost.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("49.99")))
	assert.Len(t, order.Items, 2)

	a, _ := st.books.GetByID("A")
	b, _ := st.books.GetByID("B")
	assert.Equal(t, 3, a.StockQuantity)
	assert.Equal(t, 0, b.StockQuantity)

	cart, err := st.carts.GetByOwner(models.CartOwner{CustomerID: "c1"})
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	publisher.AssertExpectations(t)

	// The cart is now empty.
	_, err = svc.Checkout("c1", checkoutRequest)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestOrderService_CheckoutSnapshotsPrice(t *testing.T) {
	st := newStore()
	book := st.book(t, "A", "10.00", 5)
	svc := services.NewOrderService(st.orders, st.carts, st.books, nil, nil)
	fillCart(t, st, "c1", map[string]int{"A": 1})

	order, err := svc.Checkout("c1", checkoutRequest)
	require.NoError(t, err)

	book.Price = decimal.RequireFromString("99.00")
	book.StockQuantity = 4
	require.NoError(t, st.books.Update(book))

	stored, err := svc.GetCustomerOrder("c1", order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
}

func TestOrderService_CheckoutFailuresLeaveStateUntouched(t *testing.T) {
	st := newStore()
	st.book(t, "A", "10.00", 5)
	st.book(t, "B", "20.00", 2)
	publisher := new(MockEventPublisher)
	svc := services.NewOrderService(st.orders, st.carts, st.books, publisher, nil)

	_, err := svc.Checkout("c1", checkoutRequest)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	fillCart(t, st, "c1", map[string]int{"A": 1, "B": 2})
	require.NoError(t, st.books.DecrementStock("B", 1))

	_, err = svc.Checkout("c1", checkoutRequest)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	bad := checkoutRequest
	bad.ShippingMethod = "teleport"
	_, err = svc.Checkout("c1", bad)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	bad = checkoutRequest
	bad.PaymentMethod = "seashells"
	_, err = svc.Checkout("c1", bad)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Checkout("", checkoutRequest)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	a, _ := st.books.GetByID("A")
	assert.Equal(t, 5, a.StockQuantity)
	assert.Equal(t, 2, inv.n, "checkout and cancel refresh recommendations")
	cart, err := st.carts.GetByOwner(models.CartOwner{CustomerID: "c1"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	orders, err := svc.GetCustomerOrders("c1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	publisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
}

func TestOrderService_PublishFailureDoesNotFailCheckout(t *testing.T) {
	st := newStore()
	st.book(t, "A", "10.00", 5)
	publisher := new(MockEventPublisher)
	publisher.On("PublishEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := services.NewOrderService(st.orders, st.carts, st.books, publisher, nil)
	fillCart(t, st, "c1", map[string]int{"A": 1})

	order, err := svc.Checkout("c1", checkoutRequest)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func TestOrderService_StatusTransitions(t *testing.T) {
	st := newStore()
	st.book(t, "A", "10.00", 5)
	inv := &countingInvalidator{}
	svc := services.NewOrderService(st.orders, st.carts, st.books, nil, inv)
	fillCart(t, st, "c1", map[string]int{"A": 2})
	order, err := svc.Checkout("c1", checkoutRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.n)

	_, err = svc.UpdateOrderStatus(order.ID, "delivered")
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	_, err = svc.UpdateOrderStatus(order.ID, "lost")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	updated, err := svc.UpdateOrderStatus(order.ID, "processing")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, updated.Status)

	_, err = svc.CancelOrder("someone-else", order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	cancelled, err := svc.CancelOrder("c1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)
	a, _ := st.books.GetByID("A")
	assert.Equal(t, 5, a.StockQuantity)

	_, err = svc.UpdateOrderStatus(order.ID, "confirmed")
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestOrderService_ShippedOrdersCannotBeCancelled(t *testing.T) {
	st := newStore()
	st.book(t, "A", "10.00", 5)
	svc := services.NewOrderService(st.orders, st.carts, st.books, nil, nil)
	fillCart(t, st, "c1", map[string]int{"A": 1})
	order, err := svc.Checkout("c1", checkoutRequest)
	require.NoError(t, err)

	for _, status := range []string{"processing", "shipped"} {
		_, err = svc.UpdateOrderStatus(order.ID, status)
		require.NoError(t, err)
	}
	_, err = svc.CancelOrder("c1", order.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)

	delivered, err := svc.UpdateOrderStatus(order.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
}
