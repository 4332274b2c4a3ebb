package engine

import (
	"errors"
	"fmt"
)

// StoreError wraps a transport or store failure during an operation. The
// attempted state change was not applied.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// NotFoundError indicates the referenced room does not exist.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("room %s does not exist", e.Code)
}

func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// InvalidArgumentError indicates empty or malformed operation input,
// caught before any network call.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

func IsInvalidArgument(err error) bool {
	var invalidErr *InvalidArgumentError
	return errors.As(err, &invalidErr)
}

// InsufficientCardsError indicates the deck holds fewer cards than a deal
// requires.
type InsufficientCardsError struct {
	Have int
	Need int
}

func (e *InsufficientCardsError) Error() string {
	return fmt.Sprintf("not enough cards to deal: have %d, need %d", e.Have, e.Need)
}

func IsInsufficientCards(err error) bool {
	var insufficientErr *InsufficientCardsError
	return errors.As(err, &insufficientErr)
}

// EmptyResourceError indicates a draw from an empty deck or discard pile.
type EmptyResourceError struct {
	Resource string
}

func (e *EmptyResourceError) Error() string {
	return fmt.Sprintf("%s is empty", e.Resource)
}

func IsEmptyResource(err error) bool {
	var emptyErr *EmptyResourceError
	return errors.As(err, &emptyErr)
}

// InvalidStateError indicates a game-state precondition failure, such as a
// recall without a matching last play.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

func IsInvalidState(err error) bool {
	var invalidErr *InvalidStateError
	return errors.As(err, &invalidErr)
}
