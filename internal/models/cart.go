package models

import (
	"fmt"
	"time"

	"tokobuku/internal/apperrors"

	"github.com/shopspring/decimal"
)

// CartOwner identifies who a cart belongs to: a customer or an anonymous session.
type CartOwner struct {
	CustomerID string
	SessionKey string
}

// Valid reports whether the owner carries any identity.
func (o CartOwner) Valid() bool {
	return o.CustomerID != "" || o.SessionKey != ""
}

func (o CartOwner) String() string {
	if o.CustomerID != "" {
		return "customer:" + o.CustomerID
	}
	return "session:" + o.SessionKey
}

// Cart is a shopping cart. It holds at most one CartItem per book.
type Cart struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string     `json:"customer_id,omitempty" gorm:"type:varchar(36);index"`
	SessionKey string     `json:"session_key,omitempty" gorm:"type:varchar(64);index"`
	Items      []CartItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem is one line of a cart. Title and UnitPrice are captured when the
// book is first added.
type CartItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string          `json:"cart_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_book"`
	BookID    string          `json:"book_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_book;index"`
	Book      *Book           `json:"book,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	Quantity  int             `json:"quantity"`
	Title     string          `json:"title" gorm:"type:varchar(255)"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2)"`
	AddedAt   time.Time       `json:"added_at"`
}

// LinePrice returns the live book price times quantity, or the add-time
// snapshot when the book is not loaded.
func (i *CartItem) LinePrice() decimal.Decimal {
	price := i.UnitPrice
	if i.Book != nil {
		price = i.Book.Price
	}
	return price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Owner returns the cart's owner.
func (c *Cart) Owner() CartOwner {
	return CartOwner{CustomerID: c.CustomerID, SessionKey: c.SessionKey}
}

func (c *Cart) indexOf(bookID string) int {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			return i
		}
	}
	return -1
}

// Item returns the line for bookID, if present.
func (c *Cart) Item(bookID string) (*CartItem, bool) {
	if i := c.indexOf(bookID); i >= 0 {
		return &c.Items[i], true
	}
	return nil, false
}

// AddItem merges quantity into the existing line for book or appends a new line.
// Stock is not checked here.
func (c *Cart) AddItem(book *Book, quantity int) error {
	if book == nil {
		return fmt.Errorf("add item: nil book: %w", apperrors.ErrInvalidInput)
	}
	if quantity < 1 {
		return fmt.Errorf("add item: quantity %d must be at least 1: %w", quantity, apperrors.ErrInvalidInput)
	}
	if i := c.indexOf(book.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].Book = book
		return nil
	}
	c.Items = append(c.Items, CartItem{
		CartID:    c.ID,
		BookID:    book.ID,
		Book:      book,
		Quantity:  quantity,
		Title:     book.Title,
		UnitPrice: book.Price,
		AddedAt:   time.Now(),
	})
	return nil
}

// RemoveItem deletes the line for bookID. It reports whether a line was removed.
func (c *Cart) RemoveItem(bookID string) bool {
	i := c.indexOf(bookID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// UpdateQuantity sets the quantity of the line for bookID. A quantity of zero
// or less removes the line. It reports whether the line existed.
func (c *Cart) UpdateQuantity(bookID string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(bookID)
	}
	i := c.indexOf(bookID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = quantity
	return true
}

// TotalPrice is the exact sum of every line price.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LinePrice())
	}
	return total
}

// TotalItems is the number of copies across all lines.
func (c *Cart) TotalItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// ItemIDs returns the IDs of the stored lines.
func (c *Cart) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID != "" {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clear removes every line. The cart itself is kept.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}
