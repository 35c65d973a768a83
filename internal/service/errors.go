package service

import "errors"

var (
	// ErrInvalidInput is returned for malformed or out-of-range input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned on login with a wrong username
	// or password, deliberately not saying which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when an authenticated user lacks the
	// privilege for an operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientStock is returned when an order line asks for more
	// units than the product has. Wrapped messages name the product.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition is returned for a status change the order
	// status machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)
