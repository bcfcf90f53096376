package models

import (
	"time"

	"gorm.io/gorm"
)

// SaleStatus is the lifecycle state of a sale.
type SaleStatus string

const (
	StatusPending   SaleStatus = "PENDING"
	StatusConfirmed SaleStatus = "CONFIRMED"
	StatusCancelled SaleStatus = "CANCELLED"
	StatusDelivered SaleStatus = "DELIVERED"
)

// saleTransitions is the declared transition table. CANCELLED and DELIVERED
// are terminal; cancellation additionally restores stock, which is why the
// service funnels it through CancelSale rather than a plain status write.
var saleTransitions = map[SaleStatus][]SaleStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusDelivered},
	StatusCancelled: {},
	StatusDelivered: {},
}

// Valid reports whether s is one of the four known statuses.
func (s SaleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusDelivered:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed by the
// transition table.
func (s SaleStatus) CanTransition(next SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SaleItem is a single line of a sale. UnitPrice snapshots the product's
// sale price at creation time; items are immutable after that.
type SaleItem struct {
	ID        string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SaleID    string   `json:"sale_id" gorm:"type:varchar(36);index"`
	ProductID string   `json:"product_id" gorm:"type:varchar(36);index" validate:"required"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64  `json:"unit_price"`
	Subtotal  float64  `json:"subtotal"`
}

// Sale represents a customer sale with its items.
type Sale struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code       string     `json:"code" gorm:"uniqueIndex;type:varchar(50)" validate:"required"`
	Customer   string     `json:"customer" validate:"required,min=2,max=200"`
	Items      []SaleItem `json:"items" gorm:"foreignKey:SaleID"`
	Discount   float64    `json:"discount" validate:"gte=0"`
	TotalValue float64    `json:"total_value"`
	Status     SaleStatus `json:"status" gorm:"type:varchar(20)"`
	Date       time.Time  `json:"date"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
