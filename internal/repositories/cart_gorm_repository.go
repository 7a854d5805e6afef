package repositories

import (
	"errors"
	"fmt"
	"time"

	"tokobuku/internal/apperrors"
	"tokobuku/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

func ownerScope(owner models.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.CustomerID != "" {
			return db.Where("customer_id = ?", owner.CustomerID)
		}
		return db.Where("session_key = ? AND customer_id = ?", owner.SessionKey, "")
	}
}

// GetByOwner retrieves the owner's cart.
func (r *GORMCartRepository) GetByOwner(owner models.CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, fmt.Errorf("cart owner: %w", apperrors.ErrUnauthenticated)
	}
	var cart models.Cart
	err := r.db.Scopes(ownerScope(owner)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC") }).
		Preload("Items.Book").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for %s: %w", owner, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for %s: %w", owner, err)
	}
	return &cart, nil
}

// CreateEmpty creates a cart without items.
func (r *GORMCartRepository) CreateEmpty(owner models.CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, fmt.Errorf("cart owner: %w", apperrors.ErrUnauthenticated)
	}
	cart := &models.Cart{
		ID:         uuid.New().String(),
		CustomerID: owner.CustomerID,
	}
	if owner.CustomerID == "" {
		cart.SessionKey = owner.SessionKey
	}
	if err := r.db.Omit("Items").Create(cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart for %s: %w", owner, err)
	}
	return cart, nil
}

// Save writes the cart row and replaces its items in one transaction.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		item.CartID = cart.ID
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.AddedAt.IsZero() {
			item.AddedAt = time.Now()
		}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(cart).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		return tx.Omit("Book").Create(&cart.Items).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save cart %s: %w", cart.ID, err)
	}
	return nil
}

// Delete removes a cart and its items.
func (r *GORMCartRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Cart{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("cart with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", id, err)
	}
	return nil
}
