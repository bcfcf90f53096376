package models

import "gorm.io/gorm"

// CriticalStockThreshold is the hard floor used by the dashboard's critical
// stock list. It is intentionally independent of each product's MinStock:
// MinStock drives the reorder report, this value drives the "act now" list.
const CriticalStockThreshold = 10

// Product represents an item tracked in inventory.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code        string    `json:"code" gorm:"uniqueIndex;type:varchar(50)" validate:"required,min=1,max=50"`
	Title       string    `json:"title" validate:"required,min=2,max=200"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	CategoryID  string    `json:"category_id" gorm:"type:varchar(36);index"`
	Category    *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
	UnitPrice   float64   `json:"unit_price" validate:"gte=0"`
	SalePrice   float64   `json:"sale_price" validate:"gte=0"`
	MinStock    int       `json:"min_stock" validate:"gte=0"`
	IsActive    bool      `json:"is_active"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// NeedsReorder reports whether the product is under its own reorder threshold.
func (p *Product) NeedsReorder() bool {
	return p.Quantity == 0 || p.Quantity < p.MinStock
}

// CriticallyLow reports whether the product falls under the global critical
// threshold used by the dashboard, regardless of its MinStock.
func (p *Product) CriticallyLow() bool {
	return p.Quantity == 0 || p.Quantity < CriticalStockThreshold
}
