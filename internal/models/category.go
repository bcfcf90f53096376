package models

import "gorm.io/gorm"

// Category groups products into a self-referential tree.
type Category struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string     `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	ParentID    *string    `json:"parent_id" gorm:"type:varchar(36);index"`
	Parent      *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children    []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Products    []Product  `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
	IsActive    bool       `json:"is_active"`
	gorm.Model             // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
