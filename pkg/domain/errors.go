package domain

import (
	"errors"
	"fmt"
)

// NotFoundError is returned by update operations targeting a missing record.
// Plain lookups report a miss as (zero, false) instead; MarkNotificationRead
// deliberately swallows misses entirely. The three policies are intentional
// and documented rather than normalized.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
