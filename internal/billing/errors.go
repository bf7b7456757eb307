package billing

import "errors"

var (
	// ErrNotInitialized is returned when an operation is issued before a
	// billing session was established through Connect.
	ErrNotInitialized = errors.New("billing client is not initialized")

	// ErrItemNotQueried is returned when a purchase flow is requested for a
	// product that was never returned by a catalog query.
	ErrItemNotQueried = errors.New("must query item from store before calling purchase")

	// ErrUnfinishedOperation is returned when a consumption is requested
	// while another finalize operation is still outstanding.
	ErrUnfinishedOperation = errors.New("must wait for previous operation to finish before recalling function")

	// ErrQueryFailed is returned when the aggregated purchase query did not
	// complete with an OK result.
	ErrQueryFailed = errors.New("billing client was unavailable or query was unsuccessful")

	// ErrServiceUnavailable is returned when the connection handshake could
	// not be completed.
	ErrServiceUnavailable = errors.New("billing service connection failed")
)
