package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound           = errors.New("data not found")
	ErrNoUpdatedData          = errors.New("no data to update")
	ErrConflictingData        = errors.New("data conflicts with existing data in unique column")
	ErrConcurrentModification = errors.New("record changed by a concurrent request, retry")
	ErrStoreFailure           = errors.New("storage failure")

	// * Communication errors.
	ErrBadRequest     = errors.New("error parsing request")
	ErrUnknownStatus  = errors.New("unknown order status")
	ErrUnknownGroupBy = errors.New("unknown report grouping")

	// * Authority errors.
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")

	// * Business errors.
	ErrInvalidOrder      = errors.New("order items are empty or malformed")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
	ErrOrderLocked       = errors.New("order is terminal and cannot be updated")
)
