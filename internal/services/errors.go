package services

import "errors"

var (
	// ErrKeyNotFound is returned by KV.Get when nothing is stored under the key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrItemNotFound is returned by Toggle when no item has the given id.
	ErrItemNotFound = errors.New("item not found")
)

// ValidationError reports client input that a store refused. The message is
// safe to surface in an HTTP response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
