package tenancy

import "errors"

// The authorization core surfaces exactly three error kinds. NOT_FOUND is
// deliberately used for both "does not exist" and "belongs to another
// tenant" so an id scan cannot distinguish the two.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)
