package shop

import "errors"

var (
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
)
