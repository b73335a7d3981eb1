package service

import "errors"

// User-facing failures. Handlers return err.Error() to the caller verbatim,
// so the messages are part of the HTTP contract.
var (
	ErrUserNotFound               = errors.New("User not found")
	ErrInvalidAmount              = errors.New("Amount must be greater than zero")
	ErrUnknownPlan                = errors.New("Invalid plan type")
	ErrSubscriptionExists         = errors.New("Active subscription already exists")
	ErrActiveSubscriptionRequired = errors.New("Active subscription required")
	ErrMiningAlreadyActive        = errors.New("Mining already active")
	ErrMiningNotActive            = errors.New("Mining not active")
	ErrNoRewards                  = errors.New("No rewards available")
	ErrInsufficientBalance        = errors.New("Insufficient OPTK balance")
	ErrInvalidTradeType           = errors.New("Invalid trade type")
	ErrTokenNotFound              = errors.New("Token not found")
	ErrNotTokenCreator            = errors.New("Only the token creator can modify this token")
	ErrInvalidSignature           = errors.New("Invalid webhook signature")
	ErrStorageUnavailable         = errors.New("Logo storage is not configured")
	ErrLogoNotUploaded            = errors.New("Logo has not been uploaded")
	ErrInvalidInput               = errors.New("Invalid input")
)
