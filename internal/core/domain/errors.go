package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrAccessDenied         = errors.New("access denied")
	ErrUserNotFound         = errors.New("user not found")
	ErrCardNotFound         = errors.New("card not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrBlockRequestNotFound = errors.New("block request not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrCardOperation        = errors.New("card operation failed")
	ErrTransferFailed       = errors.New("transfer failed")
	ErrBlockRequest         = errors.New("block request error")
	ErrInvalidDecision      = errors.New("invalid decision: must be 'approve' or 'reject'")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrValidation           = errors.New("validation failed")
	ErrDatabaseOperation    = errors.New("database operation failed")
	ErrCrypto               = errors.New("card number encryption failed")
)

// Error is a domain failure of a given kind with a client-facing message.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Business rule violations
var (
	ErrCardAccessDenied   = &Error{Kind: ErrAccessDenied, Message: "card not found or access denied"}
	ErrCardAlreadyBlocked = &Error{Kind: ErrCardOperation, Message: "card is already blocked"}
	ErrPositiveBalance    = &Error{Kind: ErrCardOperation, Message: "cannot delete card with positive balance"}
	ErrCardNumberExists   = &Error{Kind: ErrCardOperation, Message: "card with this number already exists"}

	ErrSourceCardNotActive = &Error{Kind: ErrTransferFailed, Message: "source card is not active"}
	ErrTargetCardNotActive = &Error{Kind: ErrTransferFailed, Message: "destination card is not active"}
	ErrInsufficientFunds   = &Error{Kind: ErrTransferFailed, Message: "insufficient funds"}
	ErrSameCard            = &Error{Kind: ErrTransferFailed, Message: "cannot transfer to the same card"}

	ErrRequestCardBlocked = &Error{Kind: ErrBlockRequest, Message: "card is already blocked"}
	ErrPendingExists      = &Error{Kind: ErrBlockRequest, Message: "a pending block request already exists for this card"}
	ErrAlreadyProcessed   = &Error{Kind: ErrBlockRequest, Message: "block request has already been processed"}
)

// InvalidParameter reports a rejected query or path parameter
func InvalidParameter(message string) error {
	return &Error{Kind: ErrInvalidParameter, Message: message}
}

// ValidationFailed reports a rejected request body field
func ValidationFailed(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

// DatabaseError wraps a persistence failure. The cause is logged, never shown to clients.
func DatabaseError(op string, cause error) error {
	return &Error{Kind: ErrDatabaseOperation, Message: fmt.Sprintf("%s failed", op), Cause: cause}
}

// CryptoError wraps a codec failure
func CryptoError(message string, cause error) error {
	return &Error{Kind: ErrCrypto, Message: message, Cause: cause}
}

var kinds = []error{
	ErrInvalidCredentials, ErrAuthenticationFailed, ErrRefreshTokenExpired, ErrRefreshTokenNotFound,
	ErrAccessDenied, ErrUserNotFound, ErrCardNotFound, ErrRoleNotFound, ErrBlockRequestNotFound,
	ErrUserAlreadyExists, ErrCardOperation, ErrTransferFailed, ErrBlockRequest, ErrInvalidDecision,
	ErrInvalidParameter, ErrValidation, ErrDatabaseOperation, ErrCrypto,
}

// KindOf returns the kind of a domain error, or nil if err is not one
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
