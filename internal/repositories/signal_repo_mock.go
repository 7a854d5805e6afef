package repositories

import (
	"tokobuku/internal/recommend"
)

// MockSignalRepository computes recommendation signals from the in-memory repositories.
type MockSignalRepository struct {
	carts   *MockCartRepository
	orders  *MockOrderRepository
	ratings *MockRatingRepository
}

// NewMockSignalRepository creates a new instance of MockSignalRepository.
func NewMockSignalRepository(carts *MockCartRepository, orders *MockOrderRepository, ratings *MockRatingRepository) *MockSignalRepository {
	return &MockSignalRepository{
		carts:   carts,
		orders:  orders,
		ratings: ratings,
	}
}

// CoCartFrequencies implements SignalRepository.
func (r *MockSignalRepository) CoCartFrequencies(bookID string) (map[string]int, error) {
	r.carts.mu.RLock()
	defer r.carts.mu.RUnlock()

	out := make(map[string]int)
	for _, cart := range r.carts.carts {
		if _, ok := cart.Item(bookID); !ok {
			continue
		}
		for _, item := range cart.Items {
			if item.BookID != bookID {
				out[item.BookID]++
			}
		}
	}
	return out, nil
}

// CoOrderFrequencies implements SignalRepository.
func (r *MockSignalRepository) CoOrderFrequencies(bookID string) (map[string]int, error) {
	r.orders.mu.RLock()
	defer r.orders.mu.RUnlock()

	buyers := make(map[string]bool)
	for _, order := range r.orders.orders {
		for _, item := range order.Items {
			if item.BookID == bookID {
				buyers[order.CustomerID] = true
			}
		}
	}
	out := make(map[string]int)
	for _, order := range r.orders.orders {
		if !buyers[order.CustomerID] {
			continue
		}
		for _, item := range order.Items {
			if item.BookID != bookID {
				out[item.BookID]++
			}
		}
	}
	return out, nil
}

// LikedTogether implements SignalRepository.
func (r *MockSignalRepository) LikedTogether(bookID string, minScore int) (map[string]recommend.RatingStat, error) {
	r.ratings.mu.RLock()
	defer r.ratings.mu.RUnlock()

	likers := make(map[string]bool)
	for key, rating := range r.ratings.ratings {
		if key.bookID == bookID && rating.Score >= minScore {
			likers[key.customerID] = true
		}
	}
	out := make(map[string]recommend.RatingStat)
	for key, rating := range r.ratings.ratings {
		if key.bookID == bookID || !likers[key.customerID] || rating.Score < minScore {
			continue
		}
		stat := out[key.bookID]
		stat.Count++
		stat.Sum += rating.Score
		out[key.bookID] = stat
	}
	return out, nil
}

// RatingStats implements SignalRepository.
func (r *MockSignalRepository) RatingStats() (map[string]recommend.RatingStat, error) {
	r.ratings.mu.RLock()
	defer r.ratings.mu.RUnlock()

	out := make(map[string]recommend.RatingStat)
	for key, rating := range r.ratings.ratings {
		stat := out[key.bookID]
		stat.Count++
		stat.Sum += rating.Score
		out[key.bookID] = stat
	}
	return out, nil
}

// Popularity implements SignalRepository.
func (r *MockSignalRepository) Popularity() (map[string]int, error) {
	out := make(map[string]int)

	r.carts.mu.RLock()
	for _, cart := range r.carts.carts {
		for _, item := range cart.Items {
			out[item.BookID]++
		}
	}
	r.carts.mu.RUnlock()

	r.orders.mu.RLock()
	for _, order := range r.orders.orders {
		for _, item := range order.Items {
			out[item.BookID]++
		}
	}
	r.orders.mu.RUnlock()

	return out, nil
}
