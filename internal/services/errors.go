package services

import "errors"

// Business rule and lookup failures surfaced by the services. Handlers match
// these with errors.Is to choose HTTP status codes; wrapped messages carry the
// human-readable detail.
var (
	ErrInvalidInput = errors.New("invalid input")

	ErrDuplicateCode     = errors.New("code already exists")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidDiscount   = errors.New("discount cannot exceed total value")

	ErrSaleNotFound         = errors.New("sale not found")
	ErrSaleAlreadyCancelled = errors.New("sale is already cancelled")
	ErrSaleDelivered        = errors.New("delivered sales cannot be cancelled")
	ErrInvalidStatus        = errors.New("invalid sale status")
	ErrInvalidTransition    = errors.New("status transition not allowed")

	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryOwnParent = errors.New("category cannot be its own parent")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)
