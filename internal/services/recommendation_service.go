package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"
	"tokobuku/internal/recommend"
	"tokobuku/internal/repositories"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// MaxRecommendationLimit caps the limit accepted from clients.
const MaxRecommendationLimit = 50

// RecommendationOptions tunes the recommendation service.
type RecommendationOptions struct {
	DefaultLimit int
	CacheSize    int
	// CacheTTL of zero disables caching.
	CacheTTL time.Duration
}

type recommendationKey struct {
	bookID string
	limit  int
}

// RecommendationService ranks books related to a target book.
type RecommendationService struct {
	books        repositories.BookRepository
	signals      repositories.SignalRepository
	defaultLimit int
	cache        *expirable.LRU[recommendationKey, []models.BookSummary]
	group        singleflight.Group
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(books repositories.BookRepository, signals repositories.SignalRepository, opts RecommendationOptions) *RecommendationService {
	if opts.DefaultLimit < 1 {
		opts.DefaultLimit = 5
	}
	s := &RecommendationService{
		books:        books,
		signals:      signals,
		defaultLimit: opts.DefaultLimit,
	}
	if opts.CacheTTL > 0 && opts.CacheSize > 0 {
		s.cache = expirable.NewLRU[recommendationKey, []models.BookSummary](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

// Recommend returns up to limit summaries of books related to bookID. A limit
// of zero uses the default. An unknown book yields an empty list.
func (s *RecommendationService) Recommend(bookID string, limit int) ([]models.BookSummary, error) {
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 0 || limit > MaxRecommendationLimit {
		return nil, fmt.Errorf("limit %d must be between 1 and %d: %w", limit, MaxRecommendationLimit, apperrors.ErrInvalidInput)
	}

	key := recommendationKey{bookID: bookID, limit: limit}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return slices.Clone(cached), nil
		}
	}

	v, err, _ := s.group.Do(fmt.Sprintf("%s/%d", bookID, limit), func() (interface{}, error) {
		out, err := s.compute(bookID, limit)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Add(key, out)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.BookSummary)), nil
}

func (s *RecommendationService) compute(bookID string, limit int) ([]models.BookSummary, error) {
	if _, err := s.books.GetByID(bookID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return []models.BookSummary{}, nil
		}
		return nil, err
	}

	snap, err := s.snapshot(bookID)
	if err != nil {
		return nil, err
	}
	all, err := s.books.GetAll()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Book, len(all))
	stock := make(recommend.StockMap, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
		stock[all[i].ID] = all[i].StockQuantity
	}

	ids := recommend.Recommend(bookID, limit, snap, stock)
	out := make([]models.BookSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id].Summary())
	}
	return out, nil
}

func (s *RecommendationService) snapshot(bookID string) (recommend.Snapshot, error) {
	var snap recommend.Snapshot
	var err error
	if snap.CoCart, err = s.signals.CoCartFrequencies(bookID); err != nil {
		return snap, err
	}
	if snap.CoOrder, err = s.signals.CoOrderFrequencies(bookID); err != nil {
		return snap, err
	}
	if snap.LikedTogether, err = s.signals.LikedTogether(bookID, recommend.LikedScore); err != nil {
		return snap, err
	}
	if snap.Ratings, err = s.signals.RatingStats(); err != nil {
		return snap, err
	}
	if snap.Popularity, err = s.signals.Popularity(); err != nil {
		return snap, err
	}
	return snap, nil
}

// Invalidate drops every cached recommendation.
func (s *RecommendationService) Invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// HandleOrderEvent consumes an order lifecycle event and drops cached recommendations.
func (s *RecommendationService) HandleOrderEvent(routingKey string, body []byte) error {
	var event OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode %s event: %v: %w", routingKey, err, apperrors.ErrInvalidInput)
	}
	log.Printf("Received %s event for order %s; purging recommendation cache", routingKey, event.OrderID)
	s.Invalidate()
	return nil
}
