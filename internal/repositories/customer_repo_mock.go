package repositories

import (
	"fmt"
	"strings"
	"sync"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"

	"github.com/google/uuid"
)

// MockCustomerRepository is an in-memory implementation of CustomerRepository.
type MockCustomerRepository struct {
	customers map[string]models.Customer
	byEmail   map[string]string
	mu        sync.RWMutex
}

// NewMockCustomerRepository creates a new instance of MockCustomerRepository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]models.Customer),
		byEmail:   make(map[string]string),
	}
}

// Create adds a new customer. Emails are unique.
func (r *MockCustomerRepository) Create(customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer.Email = strings.ToLower(customer.Email)
	if _, taken := r.byEmail[customer.Email]; taken {
		return fmt.Errorf("email '%s': %w", customer.Email, apperrors.ErrConflict)
	}
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	r.customers[customer.ID] = *customer
	r.byEmail[customer.Email] = customer.ID
	return nil
}

// GetByID returns a customer by ID.
func (r *MockCustomerRepository) GetByID(id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return &customer, nil
}

// GetByEmail returns a customer by email.
func (r *MockCustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("customer with email %s: %w", email, apperrors.ErrNotFound)
	}
	customer := r.customers[id]
	return &customer, nil
}
