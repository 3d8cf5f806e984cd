package deposit

import "errors"

var (
	// ErrInvalidAmount marks a transfer whose amount differs from the required deposit.
	// It is a filter outcome, never a failure.
	ErrInvalidAmount = errors.New("transfer amount does not match required deposit")

	// ErrDuplicateObservation is returned when a (txHash, outputIndex) pair is already recorded.
	ErrDuplicateObservation = errors.New("transfer already observed")

	// ErrClaimLost is returned when a conditional state transition finds the record
	// in a different state than expected, usually because another worker claimed it.
	ErrClaimLost = errors.New("deposit claim lost")

	// ErrRefundSubmission wraps a failed refund broadcast.
	ErrRefundSubmission = errors.New("refund submission failed")

	// ErrRecordNotFound is returned when no record exists for a key.
	ErrRecordNotFound = errors.New("deposit record not found")

	// ErrUserHasActiveDeposit is returned when a user already holds a non-refunded record.
	ErrUserHasActiveDeposit = errors.New("user already has an active deposit")

	// ErrNotRefundable is returned when a refund is requested for a record in the wrong state.
	ErrNotRefundable = errors.New("deposit is not in a refundable state")

	// ErrRegistrationExists is returned when registering a user twice.
	ErrRegistrationExists = errors.New("registration already exists")

	// ErrRegistrationNotFound is returned when no pending registration matches.
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrWebhookNotFound is returned when deleting an unknown webhook.
	ErrWebhookNotFound = errors.New("webhook not found")
)
