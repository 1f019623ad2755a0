package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInsufficientBalance rejects a mutation that would drive a wallet
	// balance negative. The wallet it was checked against is never written.
	ErrInsufficientBalance = errors.New("insufficient_balance")
	// ErrConflict signals a lost optimistic-concurrency race on a wallet write.
	ErrConflict = errors.New("conflict")
	// ErrImageUpload indicates the receipt/icon upload collaborator failed.
	ErrImageUpload = errors.New("image_upload_failed")
	// ErrQueryFailed wraps store read failures surfaced by the reporting side.
	ErrQueryFailed = errors.New("query_failed")
	// ErrInconsistentState marks a failed compensation during a two-wallet
	// move. The books need operator attention.
	ErrInconsistentState = errors.New("inconsistent_state")
)
