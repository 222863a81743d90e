package service

import "errors"

// Sentinel errors for service layer
var (
	ErrNotConfigured = errors.New("transport not configured")
	ErrDelivery      = errors.New("delivery failed")
	ErrInternal      = errors.New("internal fault")
)
