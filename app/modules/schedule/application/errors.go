package scheduleservice

import "errors"

var (
	// ErrNotSubscribed is returned by Join/Leave when the (user, event)
	// pair has no subscription row.
	ErrNotSubscribed = errors.New("user is not subscribed to event")

	// ErrInvalidRequest is returned for an empty event list or malformed
	// identifiers. Store errors are propagated unchanged.
	ErrInvalidRequest = errors.New("invalid request")
)
