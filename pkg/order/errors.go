package order

import "errors"

var (
	ErrDetailNotFound   = errors.New("Order detail not found!")
	ErrPaymentNotFound  = errors.New("Payment not found!")
	ErrInvalidUser      = errors.New("Invalid user!")
	ErrInvalidStatus    = errors.New("Invalid order status!")
	ErrInvalidPayment   = errors.New("Invalid payment status!")
	ErrInvalidDate      = errors.New("Invalid date!")
	ErrInvalidOwnership = errors.New("Invalid ownership!")
)
